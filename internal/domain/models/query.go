package models

import (
	"errors"
	"strings"
	"time"
)

// DistrictScope is the school selector meaning "all schools combined".
const DistrictScope = "district"

// DateLayout is the calendar date format used across the API and reports.
const DateLayout = "2006-01-02"

// ErrInvalidDateRange indicates the range start falls after its end.
var ErrInvalidDateRange = errors.New("start date must not be after end date")

// DateRange is an inclusive calendar-day range. A zero bound is open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls on a day within the range, inclusive on both ends.
func (r DateRange) Contains(t time.Time) bool {
	day := Day(t)
	if !r.Start.IsZero() && day.Before(Day(r.Start)) {
		return false
	}
	if !r.End.IsZero() && day.After(Day(r.End)) {
		return false
	}
	return true
}

// Validate rejects ranges whose start is after their end.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && Day(r.Start).After(Day(r.End)) {
		return ErrInvalidDateRange
	}
	return nil
}

// Query selects the records a derived metric is computed over.
type Query struct {
	DistrictID string    `json:"districtId"`
	Range      DateRange `json:"range"`
	School     string    `json:"school"`
}

// IsDistrict reports whether the query spans every school of the district.
func (q Query) IsDistrict() bool {
	s := strings.TrimSpace(q.School)
	return s == "" || strings.EqualFold(s, DistrictScope)
}

// DistrictWide returns a copy of the query widened to the whole district.
func (q Query) DistrictWide() Query {
	q.School = DistrictScope
	return q
}

// MealType enumerates the reimbursable meal services.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealSnack     MealType = "snack"
	MealSupper    MealType = "supper"
)

// MealTypes lists every meal type in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealSnack, MealSupper}

// ParseMealType resolves a meal type identifier case-insensitively.
func ParseMealType(value string) (MealType, bool) {
	switch MealType(strings.ToLower(strings.TrimSpace(value))) {
	case MealBreakfast:
		return MealBreakfast, true
	case MealLunch:
		return MealLunch, true
	case MealSnack:
		return MealSnack, true
	case MealSupper:
		return MealSupper, true
	default:
		return "", false
	}
}
