package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

// HappeningService orchestrates happening definitions submitted by
// administrators.
type HappeningService struct {
	happenings    HappeningStore
	registrations RegistrationStore
	notifier      Notifier
	newToken      TokenFunc
	validate      *validator.Validate
	log           *zap.Logger
}

// NewHappeningService constructs a HappeningService with its dependencies.
func NewHappeningService(
	happenings HappeningStore,
	registrations RegistrationStore,
	notifier Notifier,
	newToken TokenFunc,
	log *zap.Logger,
) *HappeningService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &HappeningService{
		happenings:    happenings,
		registrations: registrations,
		notifier:      notifier,
		newToken:      newToken,
		validate:      v,
		log:           log,
	}
}

// Upsert validates a definition and reconciles it with the stored state.
// Replaying an identical definition is a no-op.
func (s *HappeningService) Upsert(ctx context.Context, req model.HappeningRequest) (model.UpsertResult, error) {
	if len(req.SpotRanges) == 0 {
		return model.UpsertResult{}, model.NewHappeningError(model.CodeNoSpotRanges,
			fmt.Sprintf("No spot range given for happening with slug %s.", req.Slug))
	}
	if err := s.validate.Struct(req); err != nil {
		return model.UpsertResult{}, model.NewHappeningError(model.CodeInvalidHappening, describe(err))
	}
	if !slug.IsSlug(req.Slug) {
		return model.UpsertResult{}, model.NewHappeningError(model.CodeInvalidHappening,
			fmt.Sprintf("%q is not a valid slug", req.Slug))
	}

	h := req.Happening()
	for _, pair := range model.OverlappingRanges(h.SpotRanges) {
		s.log.Warn("overlapping spot ranges, first match wins",
			zap.String("slug", h.Slug),
			zap.Stringer("first", h.SpotRanges[pair[0]]),
			zap.Stringer("second", h.SpotRanges[pair[1]]),
		)
	}

	token, err := s.newToken(h.Slug)
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("generate token: %w", err)
	}
	h.RegVerifyToken = token

	status, err := s.happenings.Upsert(ctx, h)
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("upsert happening: %w", err)
	}
	s.log.Info("happening submitted", zap.String("slug", h.Slug), zap.Stringer("status", status))

	result := model.UpsertResult{Status: status, Message: upsertMessage(status, h)}
	if status == model.Created {
		if err := s.notifier.RegistrationsLink(context.WithoutCancel(ctx), h); err != nil {
			s.log.Warn("registration link notification not dispatched",
				zap.String("slug", h.Slug),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

func upsertMessage(status model.UpsertStatus, h model.Happening) string {
	group := "null"
	if h.StudentGroupName != nil {
		group = *h.StudentGroupName
	}
	switch status {
	case model.Created:
		return fmt.Sprintf("%s submitted with slug = %s.", strings.ToLower(string(h.Type)), h.Slug)
	case model.Unchanged:
		return fmt.Sprintf("Happening with slug = %s, title = %s, registrationDate = %s, happeningDate = %s, "+
			"spotRanges = %s, organizerEmail = %s, and studentGroupName = %s has already been submitted.",
			h.Slug, h.Title, h.RegistrationDate, h.HappeningDate, model.FormatRanges(h.SpotRanges), h.OrganizerEmail, group)
	default:
		return fmt.Sprintf("Updated %s with slug = %s to title = %s, registrationDate = %s, happeningDate = %s, "+
			"spotRanges = %s, organizerEmail = %s, and studentGroupName = %s",
			h.Type, h.Slug, h.Title, h.RegistrationDate, h.HappeningDate, model.FormatRanges(h.SpotRanges), h.OrganizerEmail, group)
	}
}

// describe turns the first validator failure into a client message.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	e := verrs[0]
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Delete removes a happening and everything attached to it. It reports
// whether the happening existed.
func (s *HappeningService) Delete(ctx context.Context, slug string) (bool, error) {
	deleted, err := s.happenings.Delete(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("delete happening: %w", err)
	}
	return deleted, nil
}

// Info returns the current per-range counts and the verification token.
func (s *HappeningService) Info(ctx context.Context, slug string) (*model.HappeningInfo, error) {
	h, err := s.happenings.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get happening: %w", err)
	}
	counts, err := s.registrations.CountByRange(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return &model.HappeningInfo{SpotRanges: counts, RegVerifyToken: h.RegVerifyToken}, nil
}
