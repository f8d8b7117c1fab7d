package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campusboard/showcase/internal/apperror"
	"github.com/campusboard/showcase/internal/auth"
	"github.com/campusboard/showcase/internal/model"
)

const adminEmail = "admin@campus.edu"

func newItemService(store *mockStore) *ItemService {
	contributions := newContributionService(store)
	svc := NewItemService(mockItems{store}, mockUsers{store}, contributions, auth.Access{AdminEmail: adminEmail}, testLogger())
	svc.clock = fixedClock(testNow)
	return svc
}

func TestCreate_Project(t *testing.T) {
	store := newMockStore()
	user := store.addUser("Ada", "ada@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, user.ID, model.KindProject, "  Board  ", "https://example.com/board", []string{" go ", "", "web"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if item.ID == "" {
		t.Error("item ID not assigned")
	}
	if item.Title != "Board" {
		t.Errorf("title = %q, want trimmed %q", item.Title, "Board")
	}
	if len(item.Keywords) != 2 || item.Keywords[0] != "go" || item.Keywords[1] != "web" {
		t.Errorf("keywords = %v, want [go web] with blanks dropped and order kept", item.Keywords)
	}
	if item.CreatorName != "Ada" {
		t.Errorf("creator name = %q, want Ada", item.CreatorName)
	}

	// The creator's monthly project bucket was booked.
	count, err := store.GetBucketCount(ctx, user.ID, model.KindProject, BucketKeyForProject(testNow))
	if err != nil {
		t.Fatalf("GetBucketCount: %v", err)
	}
	if count != 1 {
		t.Errorf("project bucket count = %d, want 1", count)
	}
}

func TestCreate_Validation(t *testing.T) {
	store := newMockStore()
	user := store.addUser("Ada", "ada@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		itemType string
		title    string
		url      string
		keywords []string
	}{
		{"unknown type", "event", "t", "https://x.test", []string{"k"}},
		{"empty title", model.KindIdea, "   ", "", []string{"k"}},
		{"title too long", model.KindIdea, strings.Repeat("a", MaxTitleLength+1), "", []string{"k"}},
		{"project without url", model.KindProject, "t", "", []string{"k"}},
		{"url too long", model.KindProject, "t", "https://x.test/" + strings.Repeat("a", MaxURLLength), []string{"k"}},
		{"no keywords", model.KindIdea, "t", "", nil},
		{"only blank keywords", model.KindIdea, "t", "", []string{"  ", ""}},
		{"keyword too long", model.KindIdea, "t", "", []string{strings.Repeat("k", MaxKeywordLength+1)}},
		{"too many keywords", model.KindIdea, "t", "", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, user.ID, tt.itemType, tt.title, tt.url, tt.keywords)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(store.items) != 0 {
		t.Errorf("%d items persisted by rejected creates, want 0", len(store.items))
	}
}

func TestCreate_IdeaURLOptional(t *testing.T) {
	store := newMockStore()
	user := store.addUser("Ada", "ada@campus.edu")
	svc := newItemService(store)

	item, err := svc.Create(context.Background(), user.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.URL != "" {
		t.Errorf("url = %q, want empty", item.URL)
	}
}

func TestUpvote(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	voter := store.addUser("Bob", "bob@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Upvote(ctx, item.ID, voter.ID)
	if err != nil {
		t.Fatalf("Upvote: %v", err)
	}
	if result.Upvotes != 1 {
		t.Errorf("upvotes = %d, want 1", result.Upvotes)
	}
	if len(result.Upvoters) != 1 || result.Upvoters[0].Name != "Bob" {
		t.Errorf("upvoters = %v, want [Bob]", result.Upvoters)
	}
}

func TestUpvote_OwnItemRejected(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Upvote(ctx, item.ID, author.ID)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestUpvote_DuplicateRejected(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	voter := store.addUser("Bob", "bob@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Upvote(ctx, item.ID, voter.ID); err != nil {
		t.Fatalf("first Upvote: %v", err)
	}

	_, err = svc.Upvote(ctx, item.ID, voter.ID)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}

	// The count did not move.
	upvoters, err := store.ListUpvoters(ctx, item.ID)
	if err != nil {
		t.Fatalf("ListUpvoters: %v", err)
	}
	if len(upvoters) != 1 {
		t.Errorf("upvoter count = %d, want 1", len(upvoters))
	}
}

func TestUpvote_MissingItem(t *testing.T) {
	store := newMockStore()
	voter := store.addUser("Bob", "bob@campus.edu")
	svc := newItemService(store)

	_, err := svc.Upvote(context.Background(), "nope", voter.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	other := store.addUser("Bob", "bob@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindProject, "Board", "https://example.com", []string{"go"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, item.ID, other.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("delete by non-owner: err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, item.ID, author.ID); err != nil {
		t.Fatalf("delete by owner: %v", err)
	}

	// The creation month's bucket was reversed.
	count, err := store.GetBucketCount(ctx, author.ID, model.KindProject, BucketKeyForProject(testNow))
	if err != nil {
		t.Fatalf("GetBucketCount: %v", err)
	}
	if count != 0 {
		t.Errorf("project bucket count after delete = %d, want 0", count)
	}
}

func TestDelete_AdminOverride(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	admin := store.addUser("Admin", adminEmail)
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, item.ID, admin.ID); err != nil {
		t.Fatalf("delete by admin: %v", err)
	}
	if len(store.items) != 0 {
		t.Errorf("%d items remain, want 0", len(store.items))
	}
}

func TestDeleteAll(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	admin := store.addUser("Admin", adminEmail)
	svc := newItemService(store)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		if _, err := svc.Create(ctx, author.ID, model.KindIdea, title, "", []string{"k"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	// Non-admin is refused and nothing is touched.
	if _, err := svc.DeleteAll(ctx, author.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("delete-all by non-admin: err = %v, want ErrForbidden", err)
	}
	if len(store.items) != 3 {
		t.Fatalf("%d items after refused delete-all, want 3", len(store.items))
	}
	if len(store.buckets) == 0 {
		t.Fatal("buckets wiped by refused delete-all")
	}

	count, err := svc.DeleteAll(ctx, admin.ID)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if count != 3 {
		t.Errorf("deleted count = %d, want 3", count)
	}
	if len(store.items) != 0 {
		t.Errorf("%d items remain, want 0", len(store.items))
	}
	if len(store.buckets) != 0 {
		t.Errorf("%d buckets remain, want 0", len(store.buckets))
	}
}

func TestComments(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	commenter := store.addUser("Bob", "bob@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	comment, err := svc.AddComment(ctx, item.ID, commenter.ID, "  Nice one  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if comment.Text != "Nice one" {
		t.Errorf("text = %q, want trimmed %q", comment.Text, "Nice one")
	}
	if comment.AuthorName != "Bob" {
		t.Errorf("author name = %q, want Bob", comment.AuthorName)
	}

	comments, err := svc.ListComments(ctx, item.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
}

func TestAddComment_Validation(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.AddComment(ctx, item.ID, author.ID, "   "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank comment: err = %v, want ErrValidation", err)
	}
	long := strings.Repeat("a", MaxCommentLength+1)
	if _, err := svc.AddComment(ctx, item.ID, author.ID, long); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("oversized comment: err = %v, want ErrValidation", err)
	}
	if _, err := svc.AddComment(ctx, "nope", author.ID, "hello"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing item: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	store := newMockStore()
	author := store.addUser("Ada", "ada@campus.edu")
	commenter := store.addUser("Bob", "bob@campus.edu")
	admin := store.addUser("Admin", adminEmail)
	svc := newItemService(store)
	ctx := context.Background()

	item, err := svc.Create(ctx, author.ID, model.KindIdea, "Dark mode", "", []string{"ui"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	comment, err := svc.AddComment(ctx, item.ID, commenter.ID, "Nice one")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	// Neither the item's creator nor the admin may remove someone else's
	// comment.
	if err := svc.DeleteComment(ctx, item.ID, comment.ID, author.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("delete by item creator: err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteComment(ctx, item.ID, comment.ID, admin.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("delete by admin: err = %v, want ErrForbidden", err)
	}

	if err := svc.DeleteComment(ctx, item.ID, comment.ID, commenter.ID); err != nil {
		t.Fatalf("delete by comment author: %v", err)
	}
	comments, err := svc.ListComments(ctx, item.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("%d comments remain, want 0", len(comments))
	}
}

func TestList_OrderedByUpvotes(t *testing.T) {
	store := newMockStore()
	ada := store.addUser("Ada", "ada@campus.edu")
	bob := store.addUser("Bob", "bob@campus.edu")
	cli := store.addUser("Cleo", "cleo@campus.edu")
	svc := newItemService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, ada.ID, model.KindIdea, "first", "", []string{"k"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, ada.ID, model.KindIdea, "second", "", []string{"k"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// second gets two upvotes, first gets one.
	for _, voterID := range []string{bob.ID, cli.ID} {
		if _, err := svc.Upvote(ctx, second.ID, voterID); err != nil {
			t.Fatalf("Upvote: %v", err)
		}
	}
	if _, err := svc.Upvote(ctx, first.ID, bob.ID); err != nil {
		t.Fatalf("Upvote: %v", err)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Title != "second" || items[0].Upvotes != 2 {
		t.Errorf("items[0] = %q with %d upvotes, want second with 2", items[0].Title, items[0].Upvotes)
	}
	if items[1].Title != "first" || items[1].Upvotes != 1 {
		t.Errorf("items[1] = %q with %d upvotes, want first with 1", items[1].Title, items[1].Upvotes)
	}
}
