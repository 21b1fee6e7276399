// Package model defines the core domain types for happening registration.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HappeningType only affects wording in responses and e-mails.
type HappeningType string

const (
	Bedpres HappeningType = "BEDPRES"
	Event   HappeningType = "EVENT"
)

func (t HappeningType) Valid() bool {
	return t == Bedpres || t == Event
}

// UnmarshalJSON rejects unknown happening types.
func (t *HappeningType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	ht := HappeningType(strings.ToUpper(s))
	if !ht.Valid() {
		return fmt.Errorf("unknown happening type %q", s)
	}
	*t = ht
	return nil
}

// Noun is the human wording used in messages ("event", "company presentation").
func (t HappeningType) Noun() string {
	if t == Bedpres {
		return "company presentation"
	}
	return "event"
}

// PathSegment is the site section the happening is published under.
func (t HappeningType) PathSegment() string {
	if t == Bedpres {
		return "bedpres"
	}
	return "events"
}

// Happening is an event or company presentation with limited capacity.
type Happening struct {
	Slug             string        `json:"slug"`
	Title            string        `json:"title"`
	Type             HappeningType `json:"type"`
	RegistrationDate time.Time     `json:"registrationDate"`
	HappeningDate    time.Time     `json:"happeningDate"`
	OrganizerEmail   string        `json:"organizerEmail"`
	StudentGroupName *string       `json:"studentGroupName"`
	SpotRanges       []SpotRange   `json:"spotRanges"`

	// RegVerifyToken is never serialized with the happening itself.
	RegVerifyToken string `json:"-"`
}

// HappeningRequest is the payload of PUT /happening.
type HappeningRequest struct {
	Slug             string        `json:"slug" validate:"required"`
	Title            string        `json:"title" validate:"required"`
	RegistrationDate time.Time     `json:"registrationDate" validate:"required"`
	HappeningDate    time.Time     `json:"happeningDate" validate:"required,gtefield=RegistrationDate"`
	SpotRanges       []SpotRange   `json:"spotRanges" validate:"dive"`
	Type             HappeningType `json:"type" validate:"required"`
	OrganizerEmail   string        `json:"organizerEmail" validate:"required"`
	StudentGroupName *string       `json:"studentGroupName"`
}

// Happening converts the request into its normalized stored form: e-mail and
// group lowercased, timestamps truncated to the store's microsecond precision.
func (r HappeningRequest) Happening() Happening {
	h := Happening{
		Slug:             r.Slug,
		Title:            r.Title,
		Type:             r.Type,
		RegistrationDate: r.RegistrationDate.Truncate(time.Microsecond),
		HappeningDate:    r.HappeningDate.Truncate(time.Microsecond),
		OrganizerEmail:   strings.ToLower(strings.TrimSpace(r.OrganizerEmail)),
		SpotRanges:       append([]SpotRange(nil), r.SpotRanges...),
	}
	if r.StudentGroupName != nil {
		g := strings.ToLower(*r.StudentGroupName)
		h.StudentGroupName = &g
	}
	return h
}

// HappeningSlugRequest is the payload of DELETE /happening.
type HappeningSlugRequest struct {
	Slug string        `json:"slug"`
	Type HappeningType `json:"type"`
}

// HappeningInfo is returned to administrators inspecting a happening.
type HappeningInfo struct {
	SpotRanges     []SpotRangeCount `json:"spotRanges"`
	RegVerifyToken string           `json:"regVerifyToken"`
}

// UpsertStatus is the outcome of submitting a happening definition.
type UpsertStatus int

const (
	// Created means the happening did not exist and was inserted.
	Created UpsertStatus = iota
	// Unchanged means the definition equals the stored one; nothing was written.
	Unchanged
	// Updated means mutable fields and the spot range set were replaced.
	Updated
)

func (s UpsertStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// UpsertResult pairs the status with a description for the caller.
type UpsertResult struct {
	Status  UpsertStatus
	Message string
}

// Answer is a free-form response to one of a happening's questions.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Registration is one person's claim on a happening. Identity is
// (Email, Slug); WaitList is fixed when the row is inserted.
type Registration struct {
	Email      string        `json:"email"`
	FirstName  string        `json:"firstName"`
	LastName   string        `json:"lastName"`
	Degree     Degree        `json:"degree"`
	DegreeYear int           `json:"degreeYear"`
	Slug       string        `json:"slug"`
	Terms      bool          `json:"terms"`
	SubmitDate *time.Time    `json:"submitDate,omitempty"`
	WaitList   bool          `json:"waitList"`
	Answers    []Answer      `json:"answers"`
	Type       HappeningType `json:"type"`
}

// Normalize trims and lowercases the e-mail and drops repeated questions,
// keeping the first answer to each.
func (r *Registration) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)

	seen := make(map[string]bool, len(r.Answers))
	answers := r.Answers[:0]
	for _, a := range r.Answers {
		if seen[a.Question] {
			continue
		}
		seen[a.Question] = true
		answers = append(answers, a)
	}
	r.Answers = answers
}

// ShortRegistration identifies a registration for deletion.
type ShortRegistration struct {
	Slug  string        `json:"slug"`
	Email string        `json:"email"`
	Type  HappeningType `json:"type"`
}

// RegistrationStatus is the terminal state of a registration attempt.
type RegistrationStatus string

const (
	StatusAccepted             RegistrationStatus = "ACCEPTED"
	StatusWaitList             RegistrationStatus = "WAIT_LIST"
	StatusTooEarly             RegistrationStatus = "TOO_EARLY"
	StatusAlreadyExists        RegistrationStatus = "ALREADY_EXISTS"
	StatusHappeningDoesntExist RegistrationStatus = "HAPPENING_DOESNT_EXIST"
	StatusNotInRange           RegistrationStatus = "NOT_IN_RANGE"
)

// RegistrationOutcome carries the status plus whatever the caller needs to
// act on it.
type RegistrationOutcome struct {
	Status RegistrationStatus
	// WaitListSpot is the 1-based position, set for StatusWaitList.
	WaitListSpot int
	// OpensAt is set for StatusTooEarly.
	OpensAt time.Time
	// SpotRanges is set for StatusNotInRange.
	SpotRanges []SpotRange
	// Happening is set for StatusAccepted and StatusWaitList.
	Happening *Happening
}

// Admitted is true when a row was written.
func (o RegistrationOutcome) Admitted() bool {
	return o.Status == StatusAccepted || o.Status == StatusWaitList
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
