// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services validate, enforce the
// board's rules, and orchestrate; repositories read and write the database.
// Services receive repository interfaces, never concrete types, so tests
// inject in-memory mocks.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusboard/showcase/internal/apperror"
	"github.com/campusboard/showcase/internal/model"
	"github.com/campusboard/showcase/internal/repository"
)

// Leaderboard kinds accepted by GET /api/leaderboard?type=...
const (
	LeaderboardPosts    = "posts"
	LeaderboardUpvotes  = "upvotes"
	LeaderboardComments = "comments"
)

// streakMinBuckets is how many qualifying buckets each axis needs before a
// streak point is awarded.
const streakMinBuckets = 3

// BucketKeyForProject returns the bucket key for a project contribution at
// t: the first day of t's calendar month, local time, midnight.
func BucketKeyForProject(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// BucketKeyForIdea returns the bucket key for an idea contribution at t:
// the Sunday starting t's calendar week, local time, midnight.
func BucketKeyForIdea(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// bucketKey picks the key function for an item type. Projects bucket
// monthly, ideas weekly.
func bucketKey(itemType string, t time.Time) time.Time {
	if itemType == model.KindProject {
		return BucketKeyForProject(t)
	}
	return BucketKeyForIdea(t)
}

// ContributionService is the contribution and leaderboard engine: it owns
// the per-user bucket counters, the streak rule, and the ranked
// aggregations.
type ContributionService struct {
	users   repository.UserRepository
	buckets repository.ContributionRepository
	items   repository.ItemRepository
	logger  *slog.Logger

	// clock is time.Now in production; tests pin it for deterministic
	// window math.
	clock func() time.Time
}

// NewContributionService creates a ContributionService.
func NewContributionService(
	users repository.UserRepository,
	buckets repository.ContributionRepository,
	items repository.ItemRepository,
	logger *slog.Logger,
) *ContributionService {
	return &ContributionService{
		users:   users,
		buckets: buckets,
		items:   items,
		logger:  logger,
		clock:   time.Now,
	}
}

// Record books one contribution of the given type for the user at time
// `at`: the matching period bucket is atomically incremented (created with
// count 1 if absent), then the streak rule is evaluated.
func (s *ContributionService) Record(ctx context.Context, userID, itemType string, at time.Time) error {
	key := bucketKey(itemType, at)

	if err := s.buckets.IncrementBucket(ctx, userID, itemType, key); err != nil {
		return fmt.Errorf("recording %s contribution: %w", itemType, err)
	}

	s.logger.Info("contribution recorded",
		slog.String("userID", userID),
		slog.String("type", itemType),
		slog.Time("bucketStart", key),
	)

	if err := s.EvaluateStreak(ctx, userID); err != nil {
		return fmt.Errorf("evaluating streak: %w", err)
	}

	return nil
}

// Reverse undoes one contribution. createdAt is the deleted item's creation
// time: the bucket that was incremented at creation is the one decremented
// here, so deleting an old item cannot corrupt the current period's count.
// Decrementing a bucket to zero removes it; a missing bucket is a no-op.
func (s *ContributionService) Reverse(ctx context.Context, userID, itemType string, createdAt time.Time) error {
	key := bucketKey(itemType, createdAt)

	if err := s.buckets.DecrementBucket(ctx, userID, itemType, key); err != nil {
		return fmt.Errorf("reversing %s contribution: %w", itemType, err)
	}

	s.logger.Info("contribution reversed",
		slog.String("userID", userID),
		slog.String("type", itemType),
		slog.Time("bucketStart", key),
	)

	return nil
}

// EvaluateStreak awards one streak point when the user has at least three
// qualifying buckets on both axes: project buckets starting within the last
// month AND idea buckets starting within the last week, every qualifying
// bucket holding a count of at least 1.
//
// The check carries no de-duplication window: every call that finds both
// axes qualifying awards another point. It runs only on the contribution
// write path, never on reads.
func (s *ContributionService) EvaluateStreak(ctx context.Context, userID string) error {
	now := s.clock()

	projectOK, err := s.axisQualifies(ctx, userID, model.KindProject, now.AddDate(0, -1, 0))
	if err != nil {
		return err
	}
	if !projectOK {
		return nil
	}

	ideaOK, err := s.axisQualifies(ctx, userID, model.KindIdea, now.AddDate(0, 0, -7))
	if err != nil {
		return err
	}
	if !ideaOK {
		return nil
	}

	if err := s.users.AddStreakPoint(ctx, userID); err != nil {
		return fmt.Errorf("awarding streak point: %w", err)
	}

	s.logger.Info("streak point awarded", slog.String("userID", userID))
	return nil
}

// axisQualifies counts the user's buckets of one kind starting at or after
// windowStart. The axis qualifies with streakMinBuckets such buckets, each
// with a positive count.
func (s *ContributionService) axisQualifies(ctx context.Context, userID, kind string, windowStart time.Time) (bool, error) {
	buckets, err := s.buckets.ListBuckets(ctx, userID, kind)
	if err != nil {
		return false, fmt.Errorf("listing %s buckets: %w", kind, err)
	}

	qualifying := 0
	for _, b := range buckets {
		if b.BucketStart.Before(windowStart) {
			continue
		}
		if b.Count < 1 {
			return false, nil
		}
		qualifying++
	}

	return qualifying >= streakMinBuckets, nil
}

// UserStats assembles the stats panel for one user.
//
// currentMonthProjects is a direct count of the user's project items created
// this calendar month — the buckets are a write-path cache and the read path
// re-derives ground truth so the two cannot drift. currentWeekIdeas reads
// the current week's idea bucket, 0 if absent.
func (s *ContributionService) UserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()

	monthStart := BucketKeyForProject(now)
	monthProjects, err := s.items.CountCreatedBetween(ctx, userID, model.KindProject, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("counting current month projects: %w", err)
	}

	weekIdeas, err := s.buckets.GetBucketCount(ctx, userID, model.KindIdea, BucketKeyForIdea(now))
	if err != nil {
		return nil, fmt.Errorf("reading current week idea bucket: %w", err)
	}

	return &model.UserStats{
		StreakPoints:         user.StreakPoints,
		CurrentMonthProjects: monthProjects,
		CurrentWeekIdeas:     weekIdeas,
	}, nil
}

// Leaderboard computes one of the three ranked aggregations:
//
//   - posts:    items created per user since the start of the current week
//   - upvotes:  upvotes received per creator over items created since the
//     start of the current month
//   - comments: comments authored per user since the start of the current
//     month (comment-level dates, not item-level)
//
// Rows come back sorted by score descending, top ten, rank assigned 1-based
// in order. Users that no longer exist resolve to a placeholder identity.
func (s *ContributionService) Leaderboard(ctx context.Context, kind string) ([]model.LeaderboardEntry, error) {
	now := s.clock()

	var (
		scores []model.UserScore
		err    error
	)
	switch kind {
	case LeaderboardPosts:
		scores, err = s.items.TopPosters(ctx, BucketKeyForIdea(now))
	case LeaderboardUpvotes:
		scores, err = s.items.TopUpvoted(ctx, BucketKeyForProject(now))
	case LeaderboardComments:
		scores, err = s.items.TopCommenters(ctx, BucketKeyForProject(now))
	default:
		return nil, apperror.ValidationFailed("type",
			fmt.Sprintf("leaderboard type must be one of %s, %s, %s",
				LeaderboardPosts, LeaderboardUpvotes, LeaderboardComments))
	}
	if err != nil {
		s.logger.Error("failed to compute leaderboard",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("computing %s leaderboard: %w", kind, err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(scores))
	for i, sc := range scores {
		entries = append(entries, model.LeaderboardEntry{
			Rank:  i + 1,
			User:  sc,
			Score: sc.Score,
		})
	}

	return entries, nil
}
