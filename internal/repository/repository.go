// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in subpackages (sqlite); tests inject
// in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/campusboard/showcase/internal/model"
)

// LeaderboardLimit is the number of rows a leaderboard aggregation returns.
const LeaderboardLimit = 10

type UserRepository interface {
	// Upsert inserts the user on first sign-in and updates the profile
	// fields on subsequent sign-ins, keyed on GoogleID. The internal ID is
	// preserved across updates and populated on the passed-in struct.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// AddStreakPoint atomically increments the user's streak points by 1.
	AddStreakPoint(ctx context.Context, userID string) error
	// ResetAllContributions removes every contribution bucket for every
	// user. Used by the admin delete-all path, which bypasses per-item
	// reversal.
	ResetAllContributions(ctx context.Context) error
}

type ContributionRepository interface {
	// IncrementBucket adds 1 to the (userID, kind, bucketStart) bucket,
	// creating it with count 1 if absent. Single atomic statement — two
	// concurrent submissions both land.
	IncrementBucket(ctx context.Context, userID, kind string, bucketStart time.Time) error
	// DecrementBucket subtracts 1 from the bucket, removing it when the
	// count reaches zero. A missing bucket is a no-op.
	DecrementBucket(ctx context.Context, userID, kind string, bucketStart time.Time) error
	ListBuckets(ctx context.Context, userID, kind string) ([]model.Bucket, error)
	// GetBucketCount returns the count for one bucket, 0 if absent.
	GetBucketCount(ctx context.Context, userID, kind string, bucketStart time.Time) (int, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	// GetByID returns the item with its upvoters resolved.
	GetByID(ctx context.Context, id string) (*model.Item, error)
	// List returns all items sorted by upvote count descending, ties broken
	// by insertion order. Creator names and upvoters are resolved.
	List(ctx context.Context) ([]model.Item, error)
	Delete(ctx context.Context, id string) error
	// DeleteAll removes every item (with its upvotes and comments) and
	// returns the number of items deleted.
	DeleteAll(ctx context.Context) (int, error)

	// AddUpvote records an upvote. Returns apperror.Conflict if the user
	// already upvoted the item.
	AddUpvote(ctx context.Context, itemID, userID string, date time.Time) error
	ListUpvoters(ctx context.Context, itemID string) ([]model.Upvoter, error)

	AddComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, itemID, commentID string) (*model.Comment, error)
	DeleteComment(ctx context.Context, itemID, commentID string) error
	ListComments(ctx context.Context, itemID string) ([]model.Comment, error)

	// CountCreatedBetween counts items of the given type created by the
	// user within [from, to). Ground truth for the stats read path.
	CountCreatedBetween(ctx context.Context, userID, itemType string, from, to time.Time) (int, error)

	// Leaderboard aggregations: group by user, order by score descending,
	// top LeaderboardLimit rows. Users that no longer exist resolve to the
	// "Unknown User" placeholder.
	TopPosters(ctx context.Context, since time.Time) ([]model.UserScore, error)
	TopUpvoted(ctx context.Context, since time.Time) ([]model.UserScore, error)
	TopCommenters(ctx context.Context, since time.Time) ([]model.UserScore, error)
}
