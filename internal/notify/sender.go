package notify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/config"
	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

var displayNames = map[string]string{
	"tilde@echo.uib.no":  "Tilde",
	"bedkom@echo.uib.no": "Bedkom",
	"webkom@echo.uib.no": "Webkom",
	"gnist@echo.uib.no":  "Gnist",
}

// Sender turns domain events into e-mails and hands them to a Dispatcher.
type Sender struct {
	dispatcher       Dispatcher
	defaultFrom      string
	organizerPattern *regexp.Regexp
	siteURL          string
	publicURL        string
	features         config.FeatureConfig
	log              *zap.Logger
}

func NewSender(
	dispatcher Dispatcher,
	mailCfg config.MailConfig,
	serverCfg config.ServerConfig,
	features config.FeatureConfig,
	log *zap.Logger,
) (*Sender, error) {
	pattern, err := regexp.Compile(mailCfg.OrganizerPattern)
	if err != nil {
		return nil, fmt.Errorf("compile mail.organizer_pattern: %w", err)
	}
	return &Sender{
		dispatcher:       dispatcher,
		defaultFrom:      mailCfg.DefaultFrom,
		organizerPattern: pattern,
		siteURL:          strings.TrimRight(serverCfg.SiteURL, "/"),
		publicURL:        strings.TrimRight(serverCfg.PublicURL, "/"),
		features:         features,
		log:              log,
	}, nil
}

// fromAddress uses the organizer as sender only for allow-listed domains.
func (s *Sender) fromAddress(organizer string) string {
	if s.organizerPattern.MatchString(organizer) {
		return organizer
	}
	return s.defaultFrom
}

func hapTypeLiteral(t model.HappeningType) string {
	if t == model.Bedpres {
		return "bedriftspresentasjonen"
	}
	return "arrangementet"
}

// HappeningLink is the public page of a happening.
func (s *Sender) HappeningLink(h model.Happening) string {
	return fmt.Sprintf("%s/%s/%s", s.siteURL, h.Type.PathSegment(), h.Slug)
}

// RegistrationsLinkURL is the capability link to a happening's listing.
func (s *Sender) RegistrationsLinkURL(h model.Happening) string {
	return fmt.Sprintf("%s/registration/%s", s.publicURL, h.RegVerifyToken)
}

func (s *Sender) newEmail(h model.Happening, to string, template Template, data TemplateData) Email {
	from := s.fromAddress(h.OrganizerEmail)
	return Email{
		ID:       uuid.NewString(),
		From:     from,
		FromName: displayNames[from],
		To:       to,
		Template: template,
		Data:     data,
	}
}

// RegistrationConfirmed queues the confirmation for an admitted registrant.
// waitListSpot is 0 for accepted registrations.
func (s *Sender) RegistrationConfirmed(ctx context.Context, h model.Happening, reg model.Registration, waitListSpot int) error {
	if !s.features.SendEmailRegistration {
		return nil
	}

	data := TemplateData{
		Title:          h.Title,
		Link:           s.HappeningLink(h),
		HapTypeLiteral: hapTypeLiteral(h.Type),
		Registration:   NewRegistrant(h, reg),
	}
	template := ConfirmRegistration
	if waitListSpot > 0 {
		spot := waitListSpot
		data.WaitListSpot = &spot
		template = ConfirmWaitList
	}

	return s.dispatcher.Dispatch(ctx, s.newEmail(h, reg.Email, template, data))
}

// RegistrationsLink queues the listing link for the organizer of a newly
// created happening.
func (s *Sender) RegistrationsLink(ctx context.Context, h model.Happening) error {
	if !s.features.SendEmailHappening {
		return nil
	}

	data := TemplateData{
		Title:          h.Title,
		Link:           s.RegistrationsLinkURL(h),
		HapTypeLiteral: hapTypeLiteral(h.Type),
	}
	return s.dispatcher.Dispatch(ctx, s.newEmail(h, h.OrganizerEmail, RegistrationsLink, data))
}
