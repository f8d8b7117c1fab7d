// Package model defines the data structures used throughout the application.
package model

import "time"

// Bucket kinds. Projects bucket by calendar month, ideas by calendar week
// (Sunday-anchored). The same values double as the Item types — every item
// of a given type feeds the bucket of the same kind.
const (
	KindProject = "project"
	KindIdea    = "idea"
)

// User represents a registered account.
//
// Google OAuth is the identity provider, so the stable external identifier
// is Google's subject ID (a string). We still generate our own internal xid
// for consistency with Item and to avoid tying primary keys to a
// third-party's numbering scheme.
type User struct {
	ID           string    `json:"id"`
	GoogleID     string    `json:"-"` // Google's "sub" claim — stable, never changes
	Name         string    `json:"name"`
	Email        string    `json:"email"` // always within the allowed domain
	AvatarURL    string    `json:"profilePicture"`
	StreakPoints int       `json:"streakPoints"` // incremented by the streak rule, never auto-decremented
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Bucket is a per-period contribution counter attached to a user.
//
// Invariants maintained by the store:
//   - at most one bucket per (user, kind, bucketStart)
//   - Count >= 1 for every stored bucket; a bucket decremented to zero is
//     removed, not retained
type Bucket struct {
	Kind        string    `json:"kind"` // KindProject or KindIdea
	BucketStart time.Time `json:"bucketStart"`
	Count       int       `json:"count"`
}

// UserScore is one leaderboard row before ranking is assigned.
// Name and Email fall back to placeholder values when the referenced user
// record no longer exists.
type UserScore struct {
	UserID string `json:"-"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Score  int    `json:"-"`
}

// LeaderboardEntry is one ranked row of GET /api/leaderboard.
type LeaderboardEntry struct {
	Rank  int       `json:"rank"`
	User  UserScore `json:"user"`
	Score int       `json:"score"`
}

// UserStats is the payload of GET /api/user/stats.
//
// CurrentMonthProjects is always a direct count of item rows, not a bucket
// read — buckets are a write-path optimization and the read path re-derives
// ground truth so the two cannot drift apart.
type UserStats struct {
	StreakPoints         int `json:"streakPoints"`
	CurrentMonthProjects int `json:"currentMonthProjects"`
	CurrentWeekIdeas     int `json:"currentWeekIdeas"`
}
