// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

// HappeningService is the happening administration the handlers need.
type HappeningService interface {
	Upsert(ctx context.Context, req model.HappeningRequest) (model.UpsertResult, error)
	Delete(ctx context.Context, slug string) (bool, error)
	Info(ctx context.Context, slug string) (*model.HappeningInfo, error)
}

// RegistrationService is the registration logic the handlers need.
type RegistrationService interface {
	Register(ctx context.Context, reg model.Registration) (model.RegistrationOutcome, error)
	Counts(ctx context.Context, slug string) ([]model.SpotRangeCount, error)
	Delete(ctx context.Context, short model.ShortRegistration) error
	Listing(ctx context.Context, token string) (*model.Happening, []model.Registration, error)
}

// Handler holds all HTTP handlers for the registration API.
type Handler struct {
	happenings    HappeningService
	registrations RegistrationService
	log           *zap.Logger
}

// New constructs a Handler.
func New(happenings HappeningService, registrations RegistrationService, log *zap.Logger) *Handler {
	return &Handler{happenings: happenings, registrations: registrations, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeJSON tolerates unknown fields; the front-end and the CMS send more
// than the API reads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	return json.NewDecoder(r.Body).Decode(dst)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Status handles GET /status
func Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
