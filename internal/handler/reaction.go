package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"engagement/internal/httputil"
	"engagement/internal/model"
	"engagement/internal/service"
	"engagement/internal/transport/http/middleware"
)

type ReactionHandler struct {
	reactionService *service.ReactionService
}

func NewReactionHandler(reactionService *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
	}
}

// React handles POST /reactions
// Sets (or, with toggle, flips) the authenticated user's reaction.
func (h *ReactionHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ReactRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			httputil.WriteBadRequest(w, "Invalid form data")
			return
		}
		req.TargetType = r.PostFormValue("target_type")
		req.TargetID, _ = strconv.ParseInt(r.PostFormValue("target_id"), 10, 64)
		req.Type = r.PostFormValue("type")
		req.Toggle, _ = strconv.ParseBool(r.PostFormValue("toggle"))
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	t := model.Target{Type: req.TargetType, ID: req.TargetID}

	var (
		reaction *model.Reaction
		removed  bool
		err      error
	)
	if req.Toggle {
		reaction, removed, err = h.reactionService.Toggle(r.Context(), userID, t, req.Type)
	} else {
		reaction, err = h.reactionService.React(r.Context(), userID, t, req.Type)
	}
	if err != nil {
		h.writeMutationError(w, r, err, "Failed to save reaction", userID, t)
		return
	}

	summary, err := h.reactionService.Summary(r.Context(), t)
	if err != nil {
		log.Printf("[ERROR] React handler summary: user=%d target=%s/%d err=%v", userID, t.Type, t.ID, err)
		httputil.WriteInternalError(w, "Failed to save reaction")
		return
	}

	result := model.ReactionResult{
		Reaction: reaction,
		Removed:  removed,
		Summary:  summary,
	}
	flash := "Reaction saved"
	if removed {
		flash = "Reaction removed"
	}
	httputil.WriteMutationResult(w, r, http.StatusOK, result, flash)
}

// Unreact handles DELETE /reactions
// Removes the authenticated user's reaction; a no-op when none exists.
func (h *ReactionHandler) Unreact(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UnreactRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			httputil.WriteBadRequest(w, "Invalid form data")
			return
		}
		req.TargetType = r.PostFormValue("target_type")
		req.TargetID, _ = strconv.ParseInt(r.PostFormValue("target_id"), 10, 64)
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	t := model.Target{Type: req.TargetType, ID: req.TargetID}

	removed, err := h.reactionService.Unreact(r.Context(), userID, t)
	if err != nil {
		h.writeMutationError(w, r, err, "Failed to remove reaction", userID, t)
		return
	}

	summary, err := h.reactionService.Summary(r.Context(), t)
	if err != nil {
		log.Printf("[ERROR] Unreact handler summary: user=%d target=%s/%d err=%v", userID, t.Type, t.ID, err)
		httputil.WriteInternalError(w, "Failed to remove reaction")
		return
	}

	result := model.ReactionResult{
		Removed: removed,
		Summary: summary,
	}
	httputil.WriteMutationResult(w, r, http.StatusOK, result, "Reaction removed")
}

// List handles GET /reactions/{type}/{id}
// Returns one page of reactors plus the kind counts, optionally filtered by
// ?type=kind. Viewer identity is optional.
func (h *ReactionHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := targetFromURL(w, r)
	if !ok {
		return
	}

	kind := r.URL.Query().Get("type")
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 0)

	resp, err := h.reactionService.Reactors(r.Context(), t, kind, page, perPage)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnknownTargetType):
			httputil.WriteBadRequest(w, "Unknown target type")
		case errors.Is(err, model.ErrInvalidReactionType):
			httputil.WriteBadRequest(w, "Reaction type not allowed")
		case errors.Is(err, model.ErrTargetNotFound):
			httputil.WriteNotFound(w, "Target not found")
		default:
			log.Printf("[ERROR] List reactions handler: target=%s/%d err=%v", t.Type, t.ID, err)
			httputil.WriteInternalError(w, "Failed to get reactions")
		}
		return
	}

	summary, err := h.reactionService.Summary(r.Context(), t)
	if err != nil {
		log.Printf("[ERROR] List reactions handler summary: target=%s/%d err=%v", t.Type, t.ID, err)
		httputil.WriteInternalError(w, "Failed to get reactions")
		return
	}
	resp.Summary = summary

	if viewerID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		userReaction, err := h.reactionService.UserReaction(r.Context(), viewerID, t)
		if err == nil {
			resp.UserReaction = userReaction
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeMutationError maps reaction service errors onto the response mode the
// client asked for.
func (h *ReactionHandler) writeMutationError(w http.ResponseWriter, r *http.Request, err error, fallback string, userID int64, t model.Target) {
	switch {
	case errors.Is(err, model.ErrAuthRequired):
		httputil.WriteMutationError(w, r, http.StatusUnauthorized, httputil.ErrCodeUnauthorized, "Authentication required")
	case errors.Is(err, model.ErrUnknownTargetType):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Unknown target type")
	case errors.Is(err, model.ErrInvalidReactionType):
		httputil.WriteMutationError(w, r, http.StatusBadRequest, httputil.ErrCodeBadRequest, "Reaction type not allowed")
	case errors.Is(err, model.ErrTargetNotFound):
		httputil.WriteMutationError(w, r, http.StatusNotFound, httputil.ErrCodeNotFound, "Target not found")
	default:
		log.Printf("[ERROR] Reaction handler: user=%d target=%s/%d err=%v", userID, t.Type, t.ID, err)
		httputil.WriteMutationError(w, r, http.StatusInternalServerError, httputil.ErrCodeInternal, fallback)
	}
}

// isForm reports whether the request body is a classic form submission.
func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.Contains(ct, "application/x-www-form-urlencoded") || strings.Contains(ct, "multipart/form-data")
}

// targetFromURL parses the {type}/{id} pair from the route.
func targetFromURL(w http.ResponseWriter, r *http.Request) (model.Target, bool) {
	targetType := chi.URLParam(r, "type")
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid target ID")
		return model.Target{}, false
	}
	return model.Target{Type: targetType, ID: id}, true
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
