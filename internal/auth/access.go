package auth

import (
	"github.com/campusboard/showcase/internal/model"
)

// Access holds the authorization policy: who is the administrator, and who
// may delete what. All methods are pure predicates over already-loaded
// records — no I/O.
type Access struct {
	// AdminEmail is the single configured administrator address. The
	// comparison is case-sensitive exact match. Injected from config rather
	// than hardcoded so deployments can designate their own admin.
	AdminEmail string
}

// IsAdmin reports whether the user is the configured administrator.
func (a Access) IsAdmin(user *model.User) bool {
	return user != nil && a.AdminEmail != "" && user.Email == a.AdminEmail
}

// CanDeleteItem reports whether the user may delete the item:
// the item's creator or the admin.
func (a Access) CanDeleteItem(user *model.User, item *model.Item) bool {
	if user == nil || item == nil {
		return false
	}
	return a.IsAdmin(user) || item.CreatedBy == user.ID
}

// CanDeleteComment reports whether the user may delete the comment.
// Only the comment's author qualifies — the admin override granted for
// items does not extend to comments.
func (a Access) CanDeleteComment(user *model.User, comment *model.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	return comment.AuthorID == user.ID
}
