package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/campusboard/showcase/internal/apperror"
	"github.com/campusboard/showcase/internal/model"
	"github.com/campusboard/showcase/internal/repository"
)

// ItemStore implements repository.ItemRepository over the shared pool.
type ItemStore struct {
	db *DB
}

var _ repository.ItemRepository = (*ItemStore)(nil)

// Placeholder identity for references to users that no longer exist.
const (
	unknownUserName  = "Unknown User"
	unknownUserEmail = "unknown@example.com"
)

// Keywords are stored as a JSON-encoded TEXT column. A single ordered list
// per item with no per-keyword queries does not warrant a join table.
func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("encoding keywords: %w", err)
	}
	return string(data), nil
}

func decodeKeywords(data string) ([]string, error) {
	keywords := []string{}
	if data == "" {
		return keywords, nil
	}
	if err := json.Unmarshal([]byte(data), &keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	return keywords, nil
}

// Create inserts a new item. The passed-in struct gets its generated ID and
// CreatedAt populated.
func (s *ItemStore)Create(ctx context.Context, item *model.Item) error {
	item.ID = xid.New().String()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	keywords, err := encodeKeywords(item.Keywords)
	if err != nil {
		return fmt.Errorf("sqlite: creating item: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO items (id, type, title, url, keywords, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Type,
		item.Title,
		item.URL,
		keywords,
		item.CreatedBy,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating item: %w", err)
	}

	return nil
}

// GetByID retrieves a single item with its upvoters resolved.
func (s *ItemStore)GetByID(ctx context.Context, id string) (*model.Item, error) {
	var (
		item     model.Item
		keywords string
	)

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT i.id, i.type, i.title, i.url, i.keywords, i.created_by,
		        COALESCE(u.name, ?), i.created_at,
		        (SELECT COUNT(*) FROM upvotes v WHERE v.item_id = i.id),
		        (SELECT COUNT(*) FROM comments c WHERE c.item_id = i.id)
		 FROM items i
		 LEFT JOIN users u ON u.id = i.created_by
		 WHERE i.id = ?`,
		unknownUserName, id,
	).Scan(
		&item.ID,
		&item.Type,
		&item.Title,
		&item.URL,
		&keywords,
		&item.CreatedBy,
		&item.CreatorName,
		&item.CreatedAt,
		&item.Upvotes,
		&item.CommentCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %s: %w", id, err)
	}

	if item.Keywords, err = decodeKeywords(keywords); err != nil {
		return nil, fmt.Errorf("sqlite: item %s: %w", id, err)
	}

	if item.Upvoters, err = s.ListUpvoters(ctx, id); err != nil {
		return nil, err
	}

	return &item, nil
}

// List returns all items sorted by upvote count descending. Ties keep
// insertion order (rowid), which is the storage order. Creator names and
// upvoter lists are resolved in two queries total, not per item.
func (s *ItemStore)List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT i.id, i.type, i.title, i.url, i.keywords, i.created_by,
		        COALESCE(u.name, ?), i.created_at,
		        (SELECT COUNT(*) FROM upvotes v WHERE v.item_id = i.id) AS upvote_count,
		        (SELECT COUNT(*) FROM comments c WHERE c.item_id = i.id)
		 FROM items i
		 LEFT JOIN users u ON u.id = i.created_by
		 ORDER BY upvote_count DESC, i.rowid ASC`,
		unknownUserName,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0, 32)
	for rows.Next() {
		var (
			item     model.Item
			keywords string
		)
		if err := rows.Scan(
			&item.ID, &item.Type, &item.Title, &item.URL, &keywords,
			&item.CreatedBy, &item.CreatorName, &item.CreatedAt,
			&item.Upvotes, &item.CommentCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		if item.Keywords, err = decodeKeywords(keywords); err != nil {
			return nil, fmt.Errorf("sqlite: item %s: %w", item.ID, err)
		}
		item.Upvoters = []model.Upvoter{}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}

	// Attach upvoters with one query across all items.
	vrows, err := s.db.conn.QueryContext(ctx,
		`SELECT v.item_id, v.user_id, COALESCE(u.name, ?), v.created_at
		 FROM upvotes v
		 LEFT JOIN users u ON u.id = v.user_id
		 ORDER BY v.rowid ASC`,
		unknownUserName,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing upvoters: %w", err)
	}
	defer vrows.Close()

	byID := make(map[string]int, len(items))
	for i := range items {
		byID[items[i].ID] = i
	}

	for vrows.Next() {
		var (
			itemID string
			up     model.Upvoter
		)
		if err := vrows.Scan(&itemID, &up.UserID, &up.Name, &up.Date); err != nil {
			return nil, fmt.Errorf("sqlite: scanning upvoter row: %w", err)
		}
		if i, ok := byID[itemID]; ok {
			items[i].Upvoters = append(items[i].Upvoters, up)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating upvoters: %w", err)
	}

	return items, nil
}

// Delete removes an item; its upvotes and comments cascade away with it.
func (s *ItemStore)Delete(ctx context.Context, id string) error {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", id)
	}

	return nil
}

// DeleteAll removes every item and returns how many were deleted.
func (s *ItemStore)DeleteAll(ctx context.Context) (int, error) {
	result, err := s.db.conn.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting all items: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// AddUpvote records an upvote. The (item_id, user_id) primary key enforces
// at most one upvote per user; a duplicate surfaces as apperror.Conflict
// even if two requests race past the service-level check.
func (s *ItemStore)AddUpvote(ctx context.Context, itemID, userID string, date time.Time) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO upvotes (item_id, user_id, created_at) VALUES (?, ?, ?)`,
		itemID, userID, date,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("upvote", itemID)
		}
		return fmt.Errorf("sqlite: adding upvote on item %s: %w", itemID, err)
	}
	return nil
}

// ListUpvoters returns the item's upvoters in the order they voted.
func (s *ItemStore)ListUpvoters(ctx context.Context, itemID string) ([]model.Upvoter, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT v.user_id, COALESCE(u.name, ?), v.created_at
		 FROM upvotes v
		 LEFT JOIN users u ON u.id = v.user_id
		 WHERE v.item_id = ?
		 ORDER BY v.rowid ASC`,
		unknownUserName, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing upvoters for item %s: %w", itemID, err)
	}
	defer rows.Close()

	upvoters := make([]model.Upvoter, 0, 8)
	for rows.Next() {
		var up model.Upvoter
		if err := rows.Scan(&up.UserID, &up.Name, &up.Date); err != nil {
			return nil, fmt.Errorf("sqlite: scanning upvoter row: %w", err)
		}
		upvoters = append(upvoters, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating upvoters: %w", err)
	}

	return upvoters, nil
}

// AddComment inserts a new comment, populating its ID and CreatedAt.
func (s *ItemStore)AddComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, item_id, author_id, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.ItemID,
		comment.AuthorID,
		comment.Text,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding comment on item %s: %w", comment.ItemID, err)
	}

	return nil
}

// GetComment retrieves one comment scoped to its item, so a commentID from
// a different item reads as not found.
func (s *ItemStore)GetComment(ctx context.Context, itemID, commentID string) (*model.Comment, error) {
	var c model.Comment

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT c.id, c.item_id, c.author_id, COALESCE(u.name, ?), c.text, c.created_at
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.author_id
		 WHERE c.id = ? AND c.item_id = ?`,
		unknownUserName, commentID, itemID,
	).Scan(&c.ID, &c.ItemID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", commentID)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", commentID, err)
	}

	return &c, nil
}

// DeleteComment removes one comment scoped to its item.
func (s *ItemStore)DeleteComment(ctx context.Context, itemID, commentID string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ? AND item_id = ?`,
		commentID, itemID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", commentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", commentID)
	}

	return nil
}

// ListComments returns an item's comments oldest first.
func (s *ItemStore)ListComments(ctx context.Context, itemID string) ([]model.Comment, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT c.id, c.item_id, c.author_id, COALESCE(u.name, ?), c.text, c.created_at
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.author_id
		 WHERE c.item_id = ?
		 ORDER BY c.rowid ASC`,
		unknownUserName, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for item %s: %w", itemID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0, 8)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// CountCreatedBetween counts items of one type created by the user within
// [from, to). This is the ground-truth count behind the stats read path.
func (s *ItemStore)CountCreatedBetween(ctx context.Context, userID, itemType string, from, to time.Time) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items
		 WHERE created_by = ? AND type = ? AND created_at >= ? AND created_at < ?`,
		userID, itemType, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting %s items for user %s: %w", itemType, userID, err)
	}
	return count, nil
}

// TopPosters counts items created per user since the window start.
func (s *ItemStore)TopPosters(ctx context.Context, since time.Time) ([]model.UserScore, error) {
	return s.queryScores(ctx,
		`SELECT i.created_by, COALESCE(u.name, ?), COALESCE(u.email, ?), COUNT(*) AS score
		 FROM items i
		 LEFT JOIN users u ON u.id = i.created_by
		 WHERE i.created_at >= ?
		 GROUP BY i.created_by
		 ORDER BY score DESC
		 LIMIT ?`,
		since,
	)
}

// TopUpvoted sums upvotes received per creator over items created since the
// window start.
func (s *ItemStore)TopUpvoted(ctx context.Context, since time.Time) ([]model.UserScore, error) {
	return s.queryScores(ctx,
		`SELECT i.created_by, COALESCE(u.name, ?), COALESCE(u.email, ?), COUNT(v.user_id) AS score
		 FROM items i
		 LEFT JOIN upvotes v ON v.item_id = i.id
		 LEFT JOIN users u ON u.id = i.created_by
		 WHERE i.created_at >= ?
		 GROUP BY i.created_by
		 ORDER BY score DESC
		 LIMIT ?`,
		since,
	)
}

// TopCommenters counts comments authored per user since the window start.
// The window applies at the comment level, not the item level.
func (s *ItemStore)TopCommenters(ctx context.Context, since time.Time) ([]model.UserScore, error) {
	return s.queryScores(ctx,
		`SELECT c.author_id, COALESCE(u.name, ?), COALESCE(u.email, ?), COUNT(*) AS score
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.author_id
		 WHERE c.created_at >= ?
		 GROUP BY c.author_id
		 ORDER BY score DESC
		 LIMIT ?`,
		since,
	)
}

// queryScores runs one of the leaderboard aggregations. Every query binds
// the same four parameters in the same order: the two placeholder identity
// fallbacks, the window start, and the row limit.
func (s *ItemStore)queryScores(ctx context.Context, query string, since time.Time) ([]model.UserScore, error) {
	rows, err := s.db.conn.QueryContext(ctx, query,
		unknownUserName, unknownUserEmail, since, repository.LeaderboardLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	scores := make([]model.UserScore, 0, repository.LeaderboardLimit)
	for rows.Next() {
		var s model.UserScore
		if err := rows.Scan(&s.UserID, &s.Name, &s.Email, &s.Score); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard rows: %w", err)
	}

	return scores, nil
}
