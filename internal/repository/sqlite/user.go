package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/campusboard/showcase/internal/apperror"
	"github.com/campusboard/showcase/internal/model"
	"github.com/campusboard/showcase/internal/repository"
)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	db *DB
}

var _ repository.UserRepository = (*UserStore)(nil)

// Upsert inserts or updates a user keyed on their Google ID.
//
// First sign-in → INSERT with a fresh xid. Subsequent sign-ins → UPDATE the
// profile fields (name, email, avatar may change on Google's side) while
// keeping the existing internal ID. The passed-in struct is populated with
// the canonical ID and timestamps either way.
func (s *UserStore)Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE google_id = ?`, user.GoogleID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by google_id: %w", err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = s.db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Name,
			user.Email,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, google_id, name, email, avatar_url, streak_points, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		user.ID,
		user.GoogleID,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore)GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id, google_id, name, email, avatar_url, streak_points, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.GoogleID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.StreakPoints,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// AddStreakPoint increments the user's streak points by 1 in a single
// statement — no read-modify-write, so concurrent awards cannot lose one.
func (s *UserStore)AddStreakPoint(ctx context.Context, userID string) error {
	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE users SET streak_points = streak_points + 1, updated_at = ?
		 WHERE id = ?`,
		time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding streak point for user %s: %w", userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}

// ResetAllContributions wipes every contribution bucket for every user.
// Used by the admin delete-all path as a bulk reset.
func (s *UserStore)ResetAllContributions(ctx context.Context) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM contribution_buckets`); err != nil {
		return fmt.Errorf("sqlite: resetting contribution buckets: %w", err)
	}
	return nil
}
