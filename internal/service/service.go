// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

// HappeningStore persists happenings and their spot ranges.
type HappeningStore interface {
	Get(ctx context.Context, slug string) (*model.Happening, error)
	GetByToken(ctx context.Context, token string) (*model.Happening, error)
	Upsert(ctx context.Context, h model.Happening) (model.UpsertStatus, error)
	Delete(ctx context.Context, slug string) (bool, error)
}

// RegistrationStore persists registrations and makes the admission decision
// atomically.
type RegistrationStore interface {
	Register(ctx context.Context, reg model.Registration, now time.Time) (model.RegistrationOutcome, error)
	CountByRange(ctx context.Context, slug string) ([]model.SpotRangeCount, error)
	ListBySlug(ctx context.Context, slug string) ([]model.Registration, error)
	Delete(ctx context.Context, slug, email string) (bool, error)
}

// Notifier hands notifications off for delivery. Implementations must not
// block on the delivery itself; a returned error means the hand-off failed.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, h model.Happening, reg model.Registration, waitListSpot int) error
	RegistrationsLink(ctx context.Context, h model.Happening) error
}
