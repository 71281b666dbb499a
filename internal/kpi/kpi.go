// Package kpi derives display-ready nutrition program metrics from daily
// school metric records.
//
// Every function is pure: records are never mutated and no state is kept
// between calls. Functions returning a pointer return nil when the query
// selects no records, so callers can tell "no data" apart from a bundle of
// zeros. Each function applies FilterRecords itself; callers may pass the
// district's unfiltered records.
package kpi

import (
	"math"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
)

// FilterRecords returns the records whose date falls inside the query range
// (inclusive on both ends) and, outside district scope, whose school matches.
func FilterRecords(records []models.DailyMetricRecord, q models.Query) []models.DailyMetricRecord {
	filtered := make([]models.DailyMetricRecord, 0, len(records))
	district := q.IsDistrict()

	for _, record := range records {
		if !q.Range.Contains(record.Date) {
			continue
		}
		if !district && record.SchoolID != q.School {
			continue
		}
		filtered = append(filtered, record)
	}

	return filtered
}

// roundHalfUp rounds to the nearest integer with halves going up.
func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

// roundCents rounds a currency amount to two decimals.
func roundCents(value float64) float64 {
	return math.Round(value*100) / 100
}

// Ratio divides part by whole and yields 0 when whole is 0.
func Ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}

// Percent returns part as a percentage of whole rounded to two decimals, 0 when whole is 0.
func Percent(part, whole float64) float64 {
	return roundCents(Ratio(part, whole) * 100)
}
