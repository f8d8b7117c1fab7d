package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/campusboard/showcase/internal/apperror"
	"github.com/campusboard/showcase/internal/model"
	"github.com/campusboard/showcase/internal/repository"
)

// mockStore is the in-memory backing for the repository mocks the service
// tests inject. The mockUsers and mockItems wrappers exist because both
// repository interfaces declare GetByID with different return types.
type mockStore struct {
	users    map[string]*model.User
	buckets  map[string]*model.Bucket // key: userID|kind|unix
	items    []*model.Item            // insertion order
	itemIdx  map[string]*model.Item
	comments map[string][]*model.Comment // itemID → comments
	nextID   int
}

type mockUsers struct{ *mockStore }
type mockItems struct{ *mockStore }

var (
	_ repository.UserRepository         = mockUsers{}
	_ repository.ContributionRepository = (*mockStore)(nil)
	_ repository.ItemRepository         = mockItems{}
)

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[string]*model.User),
		buckets:  make(map[string]*model.Bucket),
		itemIdx:  make(map[string]*model.Item),
		comments: make(map[string][]*model.Comment),
	}
}

func (m *mockStore) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// addUser seeds a user directly, bypassing the OAuth path.
func (m *mockStore) addUser(name, email string) *model.User {
	u := &model.User{
		ID:    m.genID("user"),
		Name:  name,
		Email: email,
	}
	m.users[u.ID] = u
	return u
}

// --- UserRepository ---

func (m *mockStore) Upsert(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GoogleID == user.GoogleID {
			u.Name, u.Email, u.AvatarURL = user.Name, user.Email, user.AvatarURL
			user.ID = u.ID
			user.StreakPoints = u.StreakPoints
			return nil
		}
	}
	user.ID = m.genID("user")
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m mockUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockStore) AddStreakPoint(_ context.Context, userID string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.StreakPoints++
	return nil
}

func (m *mockStore) ResetAllContributions(_ context.Context) error {
	m.buckets = make(map[string]*model.Bucket)
	return nil
}

// --- ContributionRepository ---

func bucketMapKey(userID, kind string, start time.Time) string {
	return fmt.Sprintf("%s|%s|%d", userID, kind, start.Unix())
}

func (m *mockStore) IncrementBucket(_ context.Context, userID, kind string, bucketStart time.Time) error {
	key := bucketMapKey(userID, kind, bucketStart)
	if b, ok := m.buckets[key]; ok {
		b.Count++
		return nil
	}
	m.buckets[key] = &model.Bucket{Kind: kind, BucketStart: bucketStart, Count: 1}
	return nil
}

func (m *mockStore) DecrementBucket(_ context.Context, userID, kind string, bucketStart time.Time) error {
	key := bucketMapKey(userID, kind, bucketStart)
	b, ok := m.buckets[key]
	if !ok {
		return nil
	}
	b.Count--
	if b.Count <= 0 {
		delete(m.buckets, key)
	}
	return nil
}

func (m *mockStore) ListBuckets(_ context.Context, userID, kind string) ([]model.Bucket, error) {
	prefix := userID + "|" + kind + "|"
	result := []model.Bucket{}
	for key, b := range m.buckets {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BucketStart.Before(result[j].BucketStart)
	})
	return result, nil
}

func (m *mockStore) GetBucketCount(_ context.Context, userID, kind string, bucketStart time.Time) (int, error) {
	if b, ok := m.buckets[bucketMapKey(userID, kind, bucketStart)]; ok {
		return b.Count, nil
	}
	return 0, nil
}

// --- ItemRepository ---

func (m *mockStore) Create(_ context.Context, item *model.Item) error {
	item.ID = m.genID("item")
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	stored := *item
	if stored.Upvoters == nil {
		stored.Upvoters = []model.Upvoter{}
	}
	m.items = append(m.items, &stored)
	m.itemIdx[stored.ID] = &stored
	return nil
}

func (m *mockStore) getItem(id string) (*model.Item, error) {
	item, ok := m.itemIdx[id]
	if !ok {
		return nil, apperror.NotFound("item", id)
	}
	return item, nil
}

func (m mockItems) GetByID(_ context.Context, id string) (*model.Item, error) {
	item, err := m.getItem(id)
	if err != nil {
		return nil, err
	}
	copied := *item
	copied.Upvotes = len(item.Upvoters)
	return &copied, nil
}

func (m *mockStore) List(_ context.Context) ([]model.Item, error) {
	result := make([]model.Item, 0, len(m.items))
	for _, it := range m.items {
		copied := *it
		copied.Upvotes = len(it.Upvoters)
		result = append(result, copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Upvotes > result[j].Upvotes
	})
	return result, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	if _, ok := m.itemIdx[id]; !ok {
		return apperror.NotFound("item", id)
	}
	delete(m.itemIdx, id)
	delete(m.comments, id)
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockStore) DeleteAll(_ context.Context) (int, error) {
	count := len(m.items)
	m.items = nil
	m.itemIdx = make(map[string]*model.Item)
	m.comments = make(map[string][]*model.Comment)
	return count, nil
}

func (m *mockStore) AddUpvote(_ context.Context, itemID, userID string, date time.Time) error {
	item, err := m.getItem(itemID)
	if err != nil {
		return err
	}
	for _, up := range item.Upvoters {
		if up.UserID == userID {
			return apperror.Conflict("upvote", itemID)
		}
	}
	name := "Unknown User"
	if u, ok := m.users[userID]; ok {
		name = u.Name
	}
	item.Upvoters = append(item.Upvoters, model.Upvoter{UserID: userID, Name: name, Date: date})
	return nil
}

func (m *mockStore) ListUpvoters(_ context.Context, itemID string) ([]model.Upvoter, error) {
	item, err := m.getItem(itemID)
	if err != nil {
		return nil, err
	}
	return append([]model.Upvoter{}, item.Upvoters...), nil
}

func (m *mockStore) AddComment(_ context.Context, comment *model.Comment) error {
	comment.ID = m.genID("comment")
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	stored := *comment
	m.comments[comment.ItemID] = append(m.comments[comment.ItemID], &stored)
	return nil
}

func (m *mockStore) GetComment(_ context.Context, itemID, commentID string) (*model.Comment, error) {
	for _, c := range m.comments[itemID] {
		if c.ID == commentID {
			result := *c
			return &result, nil
		}
	}
	return nil, apperror.NotFound("comment", commentID)
}

func (m *mockStore) DeleteComment(_ context.Context, itemID, commentID string) error {
	list := m.comments[itemID]
	for i, c := range list {
		if c.ID == commentID {
			m.comments[itemID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("comment", commentID)
}

func (m *mockStore) ListComments(_ context.Context, itemID string) ([]model.Comment, error) {
	result := make([]model.Comment, 0, len(m.comments[itemID]))
	for _, c := range m.comments[itemID] {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockStore) CountCreatedBetween(_ context.Context, userID, itemType string, from, to time.Time) (int, error) {
	count := 0
	for _, it := range m.items {
		if it.CreatedBy == userID && it.Type == itemType &&
			!it.CreatedAt.Before(from) && it.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) scoreboard(scores map[string]int) []model.UserScore {
	result := make([]model.UserScore, 0, len(scores))
	for userID, score := range scores {
		name, email := "Unknown User", "unknown@example.com"
		if u, ok := m.users[userID]; ok {
			name, email = u.Name, u.Email
		}
		result = append(result, model.UserScore{UserID: userID, Name: name, Email: email, Score: score})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	if len(result) > repository.LeaderboardLimit {
		result = result[:repository.LeaderboardLimit]
	}
	return result
}

func (m *mockStore) TopPosters(_ context.Context, since time.Time) ([]model.UserScore, error) {
	scores := make(map[string]int)
	for _, it := range m.items {
		if !it.CreatedAt.Before(since) {
			scores[it.CreatedBy]++
		}
	}
	return m.scoreboard(scores), nil
}

func (m *mockStore) TopUpvoted(_ context.Context, since time.Time) ([]model.UserScore, error) {
	scores := make(map[string]int)
	for _, it := range m.items {
		if !it.CreatedAt.Before(since) {
			scores[it.CreatedBy] += len(it.Upvoters)
		}
	}
	return m.scoreboard(scores), nil
}

func (m *mockStore) TopCommenters(_ context.Context, since time.Time) ([]model.UserScore, error) {
	scores := make(map[string]int)
	for _, list := range m.comments {
		for _, c := range list {
			if !c.CreatedAt.Before(since) {
				scores[c.AuthorID]++
			}
		}
	}
	return m.scoreboard(scores), nil
}

// testLogger discards everything below Error so test output stays clean.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fixedClock pins a service clock for deterministic window math.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
