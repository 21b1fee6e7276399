package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

// PutHappening handles PUT /happening
// Creates or updates a happening definition. Resubmitting an identical
// definition answers 202 and changes nothing.
func (h *Handler) PutHappening(w http.ResponseWriter, r *http.Request) {
	var req model.HappeningRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.happenings.Upsert(r.Context(), req)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.log.Error("submit happening", zap.String("slug", req.Slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error submitting happening.")
		return
	}

	status := http.StatusOK
	if result.Status == model.Unchanged {
		status = http.StatusAccepted
	}
	writeMessage(w, status, result.Message)
}

// DeleteHappening handles DELETE /happening
// Removes the happening with its spot ranges and registrations.
func (h *Handler) DeleteHappening(w http.ResponseWriter, r *http.Request) {
	var req model.HappeningSlugRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	deleted, err := h.happenings.Delete(r.Context(), req.Slug)
	if err != nil {
		h.log.Error("delete happening", zap.String("slug", req.Slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error deleting happening.")
		return
	}

	kind := strings.ToLower(string(req.Type))
	if !deleted {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s with slug = %s does not exist.", kind, req.Slug))
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("%s with slug = %s deleted.", kind, req.Slug))
}

// GetHappening handles GET /happening/{slug}
// Returns per-range counts and the verification token.
func (h *Handler) GetHappening(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	info, err := h.happenings.Info(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "happening not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get happening")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
