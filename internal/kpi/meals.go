package kpi

import (
	"time"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
)

// AttendanceFactor is shown alongside meal counts. It does not enter the arithmetic.
const AttendanceFactor = 0.93

// Meals summarizes one meal type over the query period.
//
// OperatingDays counts the distinct days in range on which any school served
// the meal type. It is computed once over the whole district, so a single
// school reports the district's serving days.
//
// The result is nil only when the scope has no records. A scope with records
// that never served the meal type gets a zero bundle.
func Meals(records []models.DailyMetricRecord, q models.Query, mealType models.MealType) *models.MealBreakdown {
	inRange := FilterRecords(records, q.DistrictWide())
	operatingDays := servingDays(inRange, mealType)

	scoped := inRange
	if !q.IsDistrict() {
		scoped = FilterRecords(inRange, q)
	}
	if len(scoped) == 0 {
		return nil
	}

	breakdown := &models.MealBreakdown{
		MealType:         mealType,
		OperatingDays:    operatingDays,
		AttendanceFactor: AttendanceFactor,
	}
	for _, record := range scoped {
		free, reduced, paid := record.Eligibility(mealType)
		breakdown.Total += record.MealCount(mealType)
		breakdown.Free += free
		breakdown.Reduced += reduced
		breakdown.Paid += paid
	}
	breakdown.AverageDailyParticipation = roundCents(Ratio(float64(breakdown.Total), float64(operatingDays)))

	return breakdown
}

func servingDays(records []models.DailyMetricRecord, mealType models.MealType) int {
	days := make(map[time.Time]struct{})
	for _, record := range records {
		if record.MealCount(mealType) > 0 {
			days[models.Day(record.Date)] = struct{}{}
		}
	}
	return len(days)
}
