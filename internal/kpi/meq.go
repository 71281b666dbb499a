package kpi

import "github.com/dallastaras/nutrikpi/internal/domain/models"

// USDA meal equivalent conversion factors.
const (
	breakfastStudentShare = 0.95
	breakfastAdultShare   = 0.05
	breakfastMEQFactor    = 0.67

	lunchStudentShare = 0.92
	lunchAdultShare   = 0.08
	lunchMEQFactor    = 1.00

	snackMEQFactor  = 0.33
	supperMEQFactor = 1.00

	// FederalLunchRate converts nonprogram revenue into meal equivalents.
	FederalLunchRate = 3.75
)

type mealTotals struct {
	breakfast int
	lunch     int
	snack     int
	supper    int
	alc       float64
}

func sumMeals(records []models.DailyMetricRecord) mealTotals {
	var totals mealTotals
	for _, record := range records {
		totals.breakfast += record.BreakfastCount
		totals.lunch += record.LunchCount
		totals.snack += record.SnackCount
		totals.supper += record.SupperCount
		totals.alc += record.ALCRevenue
	}
	return totals
}

// MealEquivalents converts the period's meal counts into meal equivalents.
// Each leaf is rounded on its own and the total adds up the rounded leaves.
func MealEquivalents(records []models.DailyMetricRecord, q models.Query) *models.MEQBreakdown {
	filtered := FilterRecords(records, q)
	if len(filtered) == 0 {
		return nil
	}

	meq := convertMEQ(sumMeals(filtered))
	return &meq
}

func convertMEQ(t mealTotals) models.MEQBreakdown {
	meq := models.MEQBreakdown{
		StudentBreakfast: roundHalfUp(float64(t.breakfast) * breakfastStudentShare * breakfastMEQFactor),
		AdultBreakfast:   roundHalfUp(float64(t.breakfast) * breakfastAdultShare * breakfastMEQFactor),
		StudentLunch:     roundHalfUp(float64(t.lunch) * lunchStudentShare * lunchMEQFactor),
		AdultLunch:       roundHalfUp(float64(t.lunch) * lunchAdultShare * lunchMEQFactor),
		Snack:            roundHalfUp(float64(t.snack) * snackMEQFactor),
		Supper:           roundHalfUp(float64(t.supper) * supperMEQFactor),
		Nonprogram:       roundHalfUp(t.alc / FederalLunchRate),
	}
	meq.Total = meq.StudentBreakfast + meq.AdultBreakfast +
		meq.StudentLunch + meq.AdultLunch +
		meq.Snack + meq.Supper + meq.Nonprogram

	return meq
}
