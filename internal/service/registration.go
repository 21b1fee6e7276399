package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

// RegistrationService validates registrations and drives the admission
// decision made by the store.
type RegistrationService struct {
	happenings    HappeningStore
	registrations RegistrationStore
	notifier      Notifier
	log           *zap.Logger
	now           func() time.Time
}

// NewRegistrationService constructs a RegistrationService with its dependencies.
func NewRegistrationService(
	happenings HappeningStore,
	registrations RegistrationStore,
	notifier Notifier,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		happenings:    happenings,
		registrations: registrations,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// Register validates the registration and delegates the concurrency-safe
// admission decision to the store. Validation failures are returned as
// *model.ValidationError; business outcomes are returned as values.
//
// The confirmation is handed to the notifier only after the decision has
// been committed, and a failed hand-off never changes the outcome.
func (s *RegistrationService) Register(ctx context.Context, reg model.Registration) (model.RegistrationOutcome, error) {
	reg.Normalize()
	if err := model.ValidateRegistration(reg); err != nil {
		return model.RegistrationOutcome{}, err
	}

	out, err := s.registrations.Register(ctx, reg, s.now())
	if err != nil {
		s.log.Error("registration failed",
			zap.String("slug", reg.Slug),
			zap.String("email", reg.Email),
			zap.Error(err),
		)
		return model.RegistrationOutcome{}, fmt.Errorf("register: %w", err)
	}

	if out.Admitted() && out.Happening != nil {
		spot := 0
		if out.Status == model.StatusWaitList {
			spot = out.WaitListSpot
		}
		if err := s.notifier.RegistrationConfirmed(context.WithoutCancel(ctx), *out.Happening, reg, spot); err != nil {
			s.log.Warn("confirmation not dispatched",
				zap.String("slug", reg.Slug),
				zap.String("email", reg.Email),
				zap.Error(err),
			)
		}
	}
	return out, nil
}

// Counts returns accepted and waitlisted counts per range for a happening.
func (s *RegistrationService) Counts(ctx context.Context, slug string) ([]model.SpotRangeCount, error) {
	counts, err := s.registrations.CountByRange(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return counts, nil
}

// Delete removes a registration unconditionally. Nobody on the waitlist is
// promoted or notified.
func (s *RegistrationService) Delete(ctx context.Context, short model.ShortRegistration) error {
	email := strings.ToLower(strings.TrimSpace(short.Email))
	deleted, err := s.registrations.Delete(ctx, short.Slug, email)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	s.log.Info("registration deleted",
		zap.String("slug", short.Slug),
		zap.String("email", email),
		zap.Bool("existed", deleted),
	)
	return nil
}

// Listing resolves a verification token to its happening and returns the
// registrations in submit order. Short or unknown tokens yield
// repository.ErrNotFound.
func (s *RegistrationService) Listing(ctx context.Context, token string) (*model.Happening, []model.Registration, error) {
	if len(token) < TokenLength {
		return nil, nil, repository.ErrNotFound
	}
	h, err := s.happenings.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get happening: %w", err)
	}
	regs, err := s.registrations.ListBySlug(ctx, h.Slug)
	if err != nil {
		return nil, nil, fmt.Errorf("list registrations: %w", err)
	}
	return h, regs, nil
}
