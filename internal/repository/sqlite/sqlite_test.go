package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/campusboard/showcase/internal/model"
)

// testTime is a stable reference instant for bucket keys.
func testTime() time.Time {
	return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local)
}

// newTestDB opens a fresh in-memory database with the schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedUser creates a user through the repository, the same path the OAuth
// callback takes.
func seedUser(t *testing.T, db *DB, googleID, name, email string) *model.User {
	t.Helper()
	u := &model.User{GoogleID: googleID, Name: name, Email: email}
	if err := db.Users().Upsert(context.Background(), u); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return u
}

// seedItem creates an item for the user.
func seedItem(t *testing.T, db *DB, userID, itemType, title string) *model.Item {
	t.Helper()
	item := &model.Item{
		Type:      itemType,
		Title:     title,
		URL:       "https://example.com/" + title,
		Keywords:  []string{"go", "web"},
		CreatedBy: userID,
	}
	if err := db.Items().Create(context.Background(), item); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return item
}
