// Package notify delivers the e-mails sent after registrations and happening
// creation. Messages are handed to a Dispatcher, which delivers them through
// a Mailer outside the request that produced them.
package notify

import (
	"context"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

// Template selects the dynamic template the provider renders.
type Template string

const (
	ConfirmRegistration Template = "CONFIRM_REG"
	ConfirmWaitList     Template = "CONFIRM_WAIT"
	RegistrationsLink   Template = "REGS_LINK"
)

var templateIDs = map[Template]string{
	ConfirmRegistration: "d-1fff3960b2184def9cf8bac082aeac21",
	ConfirmWaitList:     "d-1965cd803e6940c1a6724e3c53b70275",
	RegistrationsLink:   "d-50e33549c29e46b7a6c871e97324ac5f",
}

// TemplateID returns the provider template id, or "" for unknown templates.
func (t Template) TemplateID() string {
	return templateIDs[t]
}

// TemplateData is the dynamic data rendered into a template. It travels
// through task queues, so it holds plain values only.
type TemplateData struct {
	Title          string      `json:"title"`
	Link           string      `json:"link"`
	HapTypeLiteral string      `json:"hapTypeLiteral"`
	WaitListSpot   *int        `json:"waitListSpot,omitempty"`
	Registration   *Registrant `json:"registration,omitempty"`
}

// Registrant is the registration as shown in a confirmation e-mail.
type Registrant struct {
	Email      string       `json:"email"`
	FirstName  string       `json:"firstName"`
	LastName   string       `json:"lastName"`
	Degree     string       `json:"degree"`
	DegreeYear int          `json:"degreeYear"`
	Slug       string       `json:"slug"`
	Type       string       `json:"type"`
	Answers    []AnswerLine `json:"answers"`
}

type AnswerLine struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NewRegistrant copies reg for a template. The type is taken from the
// stored happening since clients may leave it out.
func NewRegistrant(h model.Happening, reg model.Registration) *Registrant {
	answers := make([]AnswerLine, 0, len(reg.Answers))
	for _, a := range reg.Answers {
		answers = append(answers, AnswerLine{Question: a.Question, Answer: a.Answer})
	}
	return &Registrant{
		Email:      reg.Email,
		FirstName:  reg.FirstName,
		LastName:   reg.LastName,
		Degree:     string(reg.Degree),
		DegreeYear: reg.DegreeYear,
		Slug:       h.Slug,
		Type:       string(h.Type),
		Answers:    answers,
	}
}

// Email is one outgoing message. ID is unique per message and lets queues
// drop duplicates.
type Email struct {
	ID       string       `json:"id"`
	From     string       `json:"from"`
	FromName string       `json:"fromName,omitempty"`
	To       string       `json:"to"`
	Template Template     `json:"template"`
	Data     TemplateData `json:"data"`
}

// Mailer performs the actual delivery.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// Dispatcher accepts an e-mail for later delivery and returns immediately.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Email) error
}
