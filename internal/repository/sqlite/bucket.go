package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/campusboard/showcase/internal/model"
	"github.com/campusboard/showcase/internal/repository"
)

// BucketStore implements repository.ContributionRepository over the shared
// pool.
type BucketStore struct {
	db *DB
}

var _ repository.ContributionRepository = (*BucketStore)(nil)

// IncrementBucket adds 1 to the bucket, creating it with count 1 if absent.
//
// The upsert is a single statement, so two concurrent submissions by the
// same user in the same period both land — there is no read-modify-write
// window to lose an update in.
func (s *BucketStore)IncrementBucket(ctx context.Context, userID, kind string, bucketStart time.Time) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO contribution_buckets (user_id, kind, bucket_start, count)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT(user_id, kind, bucket_start) DO UPDATE SET count = count + 1`,
		userID, kind, bucketStart.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing %s bucket for user %s: %w", kind, userID, err)
	}
	return nil
}

// DecrementBucket subtracts 1 from the bucket, floored at zero, and removes
// the row when the count reaches zero. A missing bucket is a no-op.
//
// Both statements run in one transaction so no zero-count bucket is ever
// visible to a concurrent reader.
func (s *BucketStore)DecrementBucket(ctx context.Context, userID, kind string, bucketStart time.Time) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning bucket decrement: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE contribution_buckets SET count = count - 1
		 WHERE user_id = ? AND kind = ? AND bucket_start = ? AND count > 0`,
		userID, kind, bucketStart.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: decrementing %s bucket for user %s: %w", kind, userID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM contribution_buckets
		 WHERE user_id = ? AND kind = ? AND bucket_start = ? AND count <= 0`,
		userID, kind, bucketStart.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing empty %s bucket for user %s: %w", kind, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing bucket decrement: %w", err)
	}
	return nil
}

// ListBuckets returns every bucket of the given kind for the user, oldest
// first. Bucket starts come back in the local time zone.
func (s *BucketStore)ListBuckets(ctx context.Context, userID, kind string) ([]model.Bucket, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT kind, bucket_start, count FROM contribution_buckets
		 WHERE user_id = ? AND kind = ?
		 ORDER BY bucket_start ASC`,
		userID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s buckets for user %s: %w", kind, userID, err)
	}
	defer rows.Close()

	buckets := make([]model.Bucket, 0, 8)
	for rows.Next() {
		var b model.Bucket
		var startUnix int64
		if err := rows.Scan(&b.Kind, &startUnix, &b.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning bucket row: %w", err)
		}
		b.BucketStart = time.Unix(startUnix, 0)
		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating buckets: %w", err)
	}

	return buckets, nil
}

// GetBucketCount returns the count for a single bucket, 0 if absent.
func (s *BucketStore)GetBucketCount(ctx context.Context, userID, kind string, bucketStart time.Time) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT count FROM contribution_buckets
		 WHERE user_id = ? AND kind = ? AND bucket_start = ?`,
		userID, kind, bucketStart.Unix(),
	).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("sqlite: getting %s bucket count for user %s: %w", kind, userID, err)
	}
	return count, nil
}
