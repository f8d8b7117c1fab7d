package model

import "time"

// Item is a showcased project or idea.
//
// For type "project" the title is the submitted project title and URL is
// required; for type "idea" the title carries the idea text itself and URL
// is optional. Type, CreatedBy, and CreatedAt are immutable after creation.
//
// Upvotes is derived from the upvote records on every read — the upvoter
// list is the source of truth and there is no separately maintained counter
// to drift out of sync.
type Item struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"` // KindProject or KindIdea
	Title        string    `json:"title"`
	URL          string    `json:"url,omitempty"`
	Keywords     []string  `json:"keywords"` // order preserved as submitted
	Upvotes      int       `json:"upvotes"`
	Upvoters     []Upvoter `json:"upvoters"`
	CommentCount int       `json:"commentCount"`
	CreatedBy    string    `json:"createdBy"`
	CreatorName  string    `json:"creatorName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Upvoter records one user's upvote on an item. A user appears at most once
// per item, and never on their own item.
type Upvoter struct {
	UserID string    `json:"-"`
	Name   string    `json:"name"`
	Date   time.Time `json:"date"`
}

// Comment is a single comment on an item. Only its author may delete it —
// there is deliberately no admin override for comments.
type Comment struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"-"`
	AuthorID   string    `json:"author"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"date"`
}
