package model

import (
	"fmt"
	"strings"
)

// SpotRange is a capacity bucket: up to Spots registrants whose degree year
// lies in [MinDegreeYear, MaxDegreeYear] are accepted.
type SpotRange struct {
	Spots         int `json:"spots" validate:"gte=0"`
	MinDegreeYear int `json:"minDegreeYear"`
	MaxDegreeYear int `json:"maxDegreeYear" validate:"gtefield=MinDegreeYear"`
}

// Contains reports whether degreeYear falls in the inclusive window.
func (r SpotRange) Contains(degreeYear int) bool {
	return r.MinDegreeYear <= degreeYear && degreeYear <= r.MaxDegreeYear
}

func (r SpotRange) String() string {
	return fmt.Sprintf("(spots = %d, minDegreeYear = %d, maxDegreeYear = %d)", r.Spots, r.MinDegreeYear, r.MaxDegreeYear)
}

// SpotRangeCount is a range with its current accepted and waitlisted counts.
type SpotRangeCount struct {
	SpotRange
	RegCount      int `json:"regCount"`
	WaitListCount int `json:"waitListCount"`
}

// MatchRange returns the first range, in stored order, containing degreeYear.
// Ranges may overlap; declaration order decides.
func MatchRange(ranges []SpotRange, degreeYear int) (SpotRange, bool) {
	for _, r := range ranges {
		if r.Contains(degreeYear) {
			return r, true
		}
	}
	return SpotRange{}, false
}

// Admit decides the fate of a new registrant given how many registrations
// (accepted and waitlisted) already claim the range. position is 1-based
// and only meaningful when waitList is true.
func Admit(count int, r SpotRange) (waitList bool, position int) {
	return count >= r.Spots, count - r.Spots + 1
}

// EqualRanges compares two spot range sets element-wise, order included.
func EqualRanges(a, b []SpotRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// OverlappingRanges returns index pairs of ranges whose windows intersect.
func OverlappingRanges(ranges []SpotRange) [][2]int {
	var pairs [][2]int
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i].MinDegreeYear <= ranges[j].MaxDegreeYear &&
				ranges[j].MinDegreeYear <= ranges[i].MaxDegreeYear {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// FormatRanges renders a range set for human-readable messages.
func FormatRanges(ranges []SpotRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SameDefinition reports whether an incoming definition equals the stored
// happening on every compared field. Both sides are expected in normalized
// form (see HappeningRequest.Happening). The verification token and the
// happening type are not compared.
func SameDefinition(stored, incoming Happening) bool {
	return stored.Slug == incoming.Slug &&
		stored.Title == incoming.Title &&
		stored.RegistrationDate.Equal(incoming.RegistrationDate) &&
		stored.HappeningDate.Equal(incoming.HappeningDate) &&
		EqualRanges(stored.SpotRanges, incoming.SpotRanges) &&
		strings.EqualFold(stored.OrganizerEmail, incoming.OrganizerEmail) &&
		equalFoldPtr(stored.StudentGroupName, incoming.StudentGroupName)
}

func equalFoldPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}
