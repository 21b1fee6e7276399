package model

import "strings"

// Validation codes returned to clients. They double as response codes.
const (
	CodeInvalidEmail           = "INVALID_EMAIL"
	CodeInvalidDegree          = "INVALID_DEGREE"
	CodeInvalidDegreeYear      = "INVALID_DEGREE_YEAR"
	CodeDegreeMismatchBachelor = "DEGREE_MISMATCH_BACHELOR"
	CodeDegreeMismatchMaster   = "DEGREE_MISMATCH_MASTER"
	CodeDegreeMismatchArmninf  = "DEGREE_MISMATCH_ARMNINF"
	CodeDegreeMismatchKogni    = "DEGREE_MISMATCH_KOGNI"
	CodeInvalidTerms           = "INVALID_TERMS"
	CodeInvalidHappening       = "INVALID_HAPPENING"
	CodeNoSpotRanges           = "NO_SPOT_RANGES"
)

// ValidationError is a client error: the input was rejected before any
// state was touched.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(code, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}

// ValidateRegistration runs the field checks in order and returns the first
// failure. Nothing here looks at the happening or its capacity.
func ValidateRegistration(r Registration) error {
	if !strings.Contains(r.Email, "@") {
		return invalid(CodeInvalidEmail, "e-mail address is not valid")
	}
	if r.DegreeYear < 1 || r.DegreeYear > 5 {
		return invalid(CodeInvalidDegreeYear, "degree year must be between 1 and 5")
	}
	if !r.Degree.Valid() {
		return invalid(CodeInvalidDegree, "field of study is missing or unknown")
	}
	if r.Degree.Bachelor() && (r.DegreeYear < 1 || r.DegreeYear > 3) {
		return invalid(CodeDegreeMismatchBachelor, "bachelor degrees require a degree year between 1 and 3")
	}
	if r.Degree.Master() && (r.DegreeYear < 4 || r.DegreeYear > 5) {
		return invalid(CodeDegreeMismatchMaster, "master degrees require a degree year of 4 or 5")
	}
	if r.Degree == ARMNINF && r.DegreeYear != 1 {
		return invalid(CodeDegreeMismatchArmninf, "the preparatory programme requires degree year 1")
	}
	if r.Degree == KOGNI && r.DegreeYear != 3 {
		return invalid(CodeDegreeMismatchKogni, "cognitive science requires degree year 3")
	}
	if !r.Terms {
		return invalid(CodeInvalidTerms, "the terms must be accepted")
	}
	return nil
}

// NewHappeningError builds a validation error for a malformed happening
// definition.
func NewHappeningError(code, msg string) *ValidationError {
	return invalid(code, msg)
}
