package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campusboard/showcase/internal/apperror"
	"github.com/campusboard/showcase/internal/auth"
	"github.com/campusboard/showcase/internal/model"
	"github.com/campusboard/showcase/internal/repository"
)

// Validation limits for submitted content.
const (
	MaxTitleLength   = 300
	MaxURLLength     = 2048
	MaxKeywordLength = 50
	MaxKeywords      = 10
	MaxCommentLength = 2000
)

// ItemService is the item catalog: create, list, upvote, delete, and
// comment operations with the board's ownership rules.
type ItemService struct {
	items         repository.ItemRepository
	users         repository.UserRepository
	contributions *ContributionService
	access        auth.Access
	logger        *slog.Logger
	clock         func() time.Time
}

// NewItemService creates an ItemService.
func NewItemService(
	items repository.ItemRepository,
	users repository.UserRepository,
	contributions *ContributionService,
	access auth.Access,
	logger *slog.Logger,
) *ItemService {
	return &ItemService{
		items:         items,
		users:         users,
		contributions: contributions,
		access:        access,
		logger:        logger,
		clock:         time.Now,
	}
}

// Create validates and persists a new item, then books the creator's
// contribution.
//
// The bucket update is best-effort: the item insert is the primary effect
// and is never rolled back because a secondary counter write failed. Such
// failures are logged and the create still succeeds.
func (s *ItemService) Create(ctx context.Context, userID, itemType, title, url string, keywords []string) (*model.Item, error) {
	if itemType != model.KindProject && itemType != model.KindIdea {
		return nil, apperror.ValidationFailed("type", "type must be 'project' or 'idea'")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	url = strings.TrimSpace(url)
	if itemType == model.KindProject && url == "" {
		return nil, apperror.ValidationFailed("url", "url is required for projects")
	}
	if len(url) > MaxURLLength {
		return nil, apperror.ValidationFailed("url",
			fmt.Sprintf("url must be %d characters or less", MaxURLLength))
	}

	// Trim keywords and drop blanks, preserving submission order.
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if len(kw) > MaxKeywordLength {
			return nil, apperror.ValidationFailed("keywords",
				fmt.Sprintf("keywords must be %d characters or less", MaxKeywordLength))
		}
		cleaned = append(cleaned, kw)
	}
	if len(cleaned) == 0 {
		return nil, apperror.ValidationFailed("keywords", "at least one keyword is required")
	}
	if len(cleaned) > MaxKeywords {
		return nil, apperror.ValidationFailed("keywords",
			fmt.Sprintf("at most %d keywords are allowed", MaxKeywords))
	}

	now := s.clock()
	item := &model.Item{
		Type:      itemType,
		Title:     title,
		URL:       url,
		Keywords:  cleaned,
		Upvoters:  []model.Upvoter{},
		CreatedBy: userID,
		CreatedAt: now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		s.logger.Error("failed to create item",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating item: %w", err)
	}

	if creator, err := s.users.GetByID(ctx, userID); err == nil {
		item.CreatorName = creator.Name
	}

	s.logger.Info("item created",
		slog.String("id", item.ID),
		slog.String("type", item.Type),
		slog.String("userID", userID),
	)

	// Best-effort secondary write — see the function comment.
	if err := s.contributions.Record(ctx, userID, itemType, now); err != nil {
		s.logger.Error("contribution update failed after item create",
			slog.String("itemID", item.ID),
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}

	return item, nil
}

// List returns every item, most upvoted first.
func (s *ItemService) List(ctx context.Context) ([]model.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		s.logger.Error("failed to list items", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// UpvoteResult is returned by Upvote: the refreshed count plus the full
// upvoter list, recomputed from the records rather than read from a
// counter.
type UpvoteResult struct {
	Upvotes  int             `json:"upvotes"`
	Upvoters []model.Upvoter `json:"upvoters"`
}

// Upvote records an upvote by actingUserID on the item. Authors cannot
// upvote their own items, and a user upvotes a given item at most once.
func (s *ItemService) Upvote(ctx context.Context, itemID, actingUserID string) (*UpvoteResult, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.CreatedBy == actingUserID {
		return nil, apperror.ValidationFailed("", "You cannot upvote your own post")
	}
	for _, up := range item.Upvoters {
		if up.UserID == actingUserID {
			return nil, apperror.ValidationFailed("", "You have already upvoted this item")
		}
	}

	if err := s.items.AddUpvote(ctx, itemID, actingUserID, s.clock()); err != nil {
		// Two racing upvotes by the same user: the primary key catches what
		// the check above missed. Same answer as the pre-check.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("", "You have already upvoted this item")
		}
		s.logger.Error("failed to add upvote",
			slog.String("itemID", itemID),
			slog.String("userID", actingUserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding upvote: %w", err)
	}

	upvoters, err := s.items.ListUpvoters(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("refreshing upvoters: %w", err)
	}

	s.logger.Info("item upvoted",
		slog.String("itemID", itemID),
		slog.String("userID", actingUserID),
	)

	return &UpvoteResult{Upvotes: len(upvoters), Upvoters: upvoters}, nil
}

// ListUpvoters returns who upvoted the item, in voting order.
func (s *ItemService) ListUpvoters(ctx context.Context, itemID string) ([]model.Upvoter, error) {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.items.ListUpvoters(ctx, itemID)
}

// Delete removes an item. Only the item's creator or the admin may delete
// it. The creator's contribution bucket for the item's creation period is
// decremented best-effort before the delete.
func (s *ItemService) Delete(ctx context.Context, itemID, actingUserID string) error {
	actor, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return err
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	if !s.access.CanDeleteItem(actor, item) {
		return apperror.Forbidden("You can only delete your own items")
	}

	if err := s.contributions.Reverse(ctx, item.CreatedBy, item.Type, item.CreatedAt); err != nil {
		s.logger.Error("contribution reversal failed before item delete",
			slog.String("itemID", itemID),
			slog.String("ownerID", item.CreatedBy),
			slog.String("error", err.Error()),
		)
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return err
	}

	s.logger.Info("item deleted",
		slog.String("itemID", itemID),
		slog.String("deletedBy", actingUserID),
		slog.Bool("byAdmin", s.access.IsAdmin(actor)),
	)

	return nil
}

// DeleteAll removes every item and resets every user's contribution
// buckets. Admin only.
//
// The bucket reset is a bulk wipe, not a per-item reversal — with every
// item gone there is nothing left for any bucket to count. A failure
// between the two statements leaves buckets stale until the next reset;
// there is no rollback.
func (s *ItemService) DeleteAll(ctx context.Context, actingUserID string) (int, error) {
	actor, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return 0, err
	}
	if !s.access.IsAdmin(actor) {
		return 0, apperror.Forbidden("Admin access required")
	}

	count, err := s.items.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("failed to delete all items", slog.String("error", err.Error()))
		return 0, apperror.Unavailable("item store unavailable")
	}

	if err := s.users.ResetAllContributions(ctx); err != nil {
		s.logger.Error("failed to reset contribution buckets after delete-all",
			slog.String("error", err.Error()),
		)
		return count, fmt.Errorf("resetting contributions: %w", err)
	}

	s.logger.Info("all items deleted",
		slog.Int("count", count),
		slog.String("adminID", actingUserID),
	)

	return count, nil
}

// AddComment appends a comment by authorID to the item.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "comment text is required")
	}
	if len(text) > MaxCommentLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ItemID:    itemID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.clock(),
	}

	if err := s.items.AddComment(ctx, comment); err != nil {
		s.logger.Error("failed to add comment",
			slog.String("itemID", itemID),
			slog.String("userID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	if author, err := s.users.GetByID(ctx, authorID); err == nil {
		comment.AuthorName = author.Name
	}

	s.logger.Info("comment added",
		slog.String("commentID", comment.ID),
		slog.String("itemID", itemID),
	)

	return comment, nil
}

// ListComments returns the item's comments, oldest first.
func (s *ItemService) ListComments(ctx context.Context, itemID string) ([]model.Comment, error) {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.items.ListComments(ctx, itemID)
}

// DeleteComment removes a comment. Only the comment's author may delete it;
// the admin's item-deletion override deliberately does not apply here.
func (s *ItemService) DeleteComment(ctx context.Context, itemID, commentID, actingUserID string) error {
	actor, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return err
	}

	comment, err := s.items.GetComment(ctx, itemID, commentID)
	if err != nil {
		return err
	}

	if !s.access.CanDeleteComment(actor, comment) {
		return apperror.Forbidden("You can only delete your own comments")
	}

	if err := s.items.DeleteComment(ctx, itemID, commentID); err != nil {
		return err
	}

	s.logger.Info("comment deleted",
		slog.String("commentID", commentID),
		slog.String("itemID", itemID),
	)

	return nil
}
