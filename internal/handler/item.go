package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/campusboard/showcase/internal/auth"
	"github.com/campusboard/showcase/internal/service"
)

// ItemHandler manages the item catalog endpoints: list, create, upvote,
// delete, and comments.
type ItemHandler struct {
	items  *service.ItemService
	logger *slog.Logger
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(items *service.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

// HandleList returns all items, most upvoted first.
//
// HTTP: GET /api/items
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// createItemRequest is the body of POST /api/items.
type createItemRequest struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Keywords []string `json:"keywords"`
}

// HandleCreate submits a new project or idea.
//
// HTTP: POST /api/items
// Body: {"type": "project", "title": "...", "url": "...", "keywords": [...]}
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid item JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid JSON body",
		})
		return
	}

	item, err := h.items.Create(r.Context(), userID, req.Type, req.Title, req.URL, req.Keywords)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// HandleUpvote records an upvote and returns the refreshed counts.
//
// HTTP: POST /api/items/{id}/upvote
func (h *ItemHandler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	result, err := h.items.Upvote(r.Context(), itemID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// upvoterResponse is one row of GET /api/items/{id}/upvoters.
type upvoterResponse struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// HandleListUpvoters returns who upvoted the item, in voting order.
//
// HTTP: GET /api/items/{id}/upvoters
func (h *ItemHandler) HandleListUpvoters(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	upvoters, err := h.items.ListUpvoters(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]upvoterResponse, 0, len(upvoters))
	for _, up := range upvoters {
		resp = append(resp, upvoterResponse{Name: up.Name, Date: up.Date})
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete removes an item (owner or admin only).
//
// HTTP: DELETE /api/items/{id}
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	if err := h.items.Delete(r.Context(), itemID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// HandleDeleteAll wipes every item and all contribution buckets.
//
// HTTP: DELETE /api/items/delete-all (admin only — enforced in the service)
func (h *ItemHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	count, err := h.items.DeleteAll(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deletedCount": count})
}

// commentRequest is the body of POST /api/items/{id}/comments.
type commentRequest struct {
	Text string `json:"text"`
}

// HandleAddComment appends a comment to an item.
//
// HTTP: POST /api/items/{id}/comments
func (h *ItemHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid comment JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid JSON body",
		})
		return
	}

	comment, err := h.items.AddComment(r.Context(), itemID, userID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HandleListComments returns an item's comments, oldest first.
//
// HTTP: GET /api/items/{id}/comments
func (h *ItemHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	comments, err := h.items.ListComments(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// HandleDeleteComment removes a comment (author only).
//
// HTTP: DELETE /api/items/{itemId}/comments/{commentId}
func (h *ItemHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	itemID := r.PathValue("itemId")
	commentID := r.PathValue("commentId")

	if err := h.items.DeleteComment(r.Context(), itemID, commentID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
}
