package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"engagement/internal/httputil"
	"engagement/internal/model"
	"engagement/internal/service"
	"engagement/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /comments
// Creates a comment or reply on a target for the authenticated user.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateCommentRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			httputil.WriteBadRequest(w, "Invalid form data")
			return
		}
		req.TargetType = r.PostFormValue("target_type")
		req.TargetID, _ = strconv.ParseInt(r.PostFormValue("target_id"), 10, 64)
		req.Content = r.PostFormValue("content")
		if raw := r.PostFormValue("parent_id"); raw != "" {
			if parentID, err := strconv.ParseInt(raw, 10, 64); err == nil {
				req.ParentID = &parentID
			}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, req)
	if err != nil {
		h.writeMutationError(w, r, err, "Failed to create comment", userID)
		return
	}

	if httputil.WantsJSON(r) {
		httputil.WriteJSON(w, http.StatusCreated, comment)
		return
	}
	httputil.WriteSeeOther(w, r, httputil.FlashSuccessCookie, "Comment posted")
}

// Update handles PUT /comments/{id}
// Replaces a comment's content (author or admin only).
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := commentIDFromURL(w, r)
	if !ok {
		return
	}

	var req model.UpdateCommentRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			httputil.WriteBadRequest(w, "Invalid form data")
			return
		}
		req.Content = r.PostFormValue("content")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Update(r.Context(), userID, commentID, req)
	if err != nil {
		h.writeMutationError(w, r, err, "Failed to update comment", userID)
		return
	}

	httputil.WriteMutationResult(w, r, http.StatusOK, comment, "Comment updated")
}

// Delete handles DELETE /comments/{id}
// Soft-deletes a comment (author or admin only).
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := commentIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.commentService.Delete(r.Context(), userID, commentID); err != nil {
		h.writeMutationError(w, r, err, "Failed to delete comment", userID)
		return
	}

	httputil.WriteMutationResult(w, r, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	}, "Comment deleted")
}

// List handles GET /comments/list/{type}/{id}
// Returns one page of top-level comments with replies and annotations.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := targetFromURL(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 0)

	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	resp, err := h.commentService.ListTopLevel(r.Context(), viewerID, t, page, perPage)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnknownTargetType):
			httputil.WriteBadRequest(w, "Unknown target type")
		case errors.Is(err, model.ErrTargetNotFound):
			httputil.WriteNotFound(w, "Target not found")
		default:
			log.Printf("[ERROR] List comments handler: target=%s/%d err=%v", t.Type, t.ID, err)
			httputil.WriteInternalError(w, "Failed to get comments")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Replies handles GET /comments/{id}/replies
// Returns all immediate replies to a comment.
func (h *CommentHandler) Replies(w http.ResponseWriter, r *http.Request) {
	commentID, ok := commentIDFromURL(w, r)
	if !ok {
		return
	}

	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	resp, err := h.commentService.ListReplies(r.Context(), viewerID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrUnknownTargetType):
			httputil.WriteBadRequest(w, "Unknown target type")
		case errors.Is(err, model.ErrTargetNotFound):
			httputil.WriteNotFound(w, "Target not found")
		default:
			log.Printf("[ERROR] Replies handler: comment=%d err=%v", commentID, err)
			httputil.WriteInternalError(w, "Failed to get replies")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeMutationError maps comment service errors onto the response mode the
// client asked for.
func (h *CommentHandler) writeMutationError(w http.ResponseWriter, r *http.Request, err error, fallback string, userID int64) {
	switch {
	case errors.Is(err, model.ErrUnknownTargetType):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Unknown target type")
	case errors.Is(err, model.ErrTargetNotFound):
		httputil.WriteMutationError(w, r, http.StatusNotFound, httputil.ErrCodeNotFound, "Target not found")
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteMutationError(w, r, http.StatusNotFound, httputil.ErrCodeNotFound, "Comment not found")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteMutationError(w, r, http.StatusUnauthorized, httputil.ErrCodeUnauthorized, "Authentication required")
	case errors.Is(err, model.ErrContentRequired):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Comment content is required")
	case errors.Is(err, model.ErrContentTooLong):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Comment content too long")
	case errors.Is(err, model.ErrParentTargetMismatch):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Parent comment belongs to a different target")
	case errors.Is(err, model.ErrMaxDepthExceeded):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Maximum reply depth exceeded")
	case errors.Is(err, model.ErrEditWindowExpired):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Edit window has expired")
	case errors.Is(err, model.ErrNotAllowed):
		httputil.WriteMutationError(w, r, http.StatusForbidden, httputil.ErrCodeForbidden, "Not allowed")
	default:
		log.Printf("[ERROR] Comment handler: user=%d err=%v", userID, err)
		httputil.WriteMutationError(w, r, http.StatusInternalServerError, httputil.ErrCodeInternal, fallback)
	}
}

// commentIDFromURL parses the {id} route parameter.
func commentIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return 0, false
	}
	return id, true
}
