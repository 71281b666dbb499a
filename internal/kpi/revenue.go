package kpi

import "github.com/dallastaras/nutrikpi/internal/domain/models"

// Revenue source keys in display order.
const (
	SourceStudentMeals         = "student_meals"
	SourceAdultMeals           = "adult_meals"
	SourceNonprogram           = "nonprogram"
	SourceContract             = "contract"
	SourceFederalReimbursement = "federal_reimbursement"
	SourceUSDACommodities      = "usda_commodities"
	SourceStateReimbursement   = "state_reimbursement"
	SourceInterest             = "interest"
	SourceMiscellaneous        = "miscellaneous"
)

// RevenueRates holds the prices, per-meal rates and fixed stipends used to
// decompose revenue by source.
type RevenueRates struct {
	StudentBreakfastPrice float64
	StudentLunchPrice     float64
	ReducedBreakfastPrice float64
	ReducedLunchPrice     float64
	AdultBreakfastPrice   float64
	AdultLunchPrice       float64
	CommodityPerLunch     float64
	StatePerMeal          float64
	ContractStipend       float64
	InterestStipend       float64
	MiscStipend           float64
}

// DefaultRevenueRates mirrors the rates the dashboard has always used.
var DefaultRevenueRates = RevenueRates{
	StudentBreakfastPrice: 1.75,
	StudentLunchPrice:     3.00,
	ReducedBreakfastPrice: 0.30,
	ReducedLunchPrice:     0.40,
	AdultBreakfastPrice:   2.50,
	AdultLunchPrice:       4.25,
	CommodityPerLunch:     0.4525,
	StatePerMeal:          0.09,
	ContractStipend:       1200.00,
	InterestStipend:       25.00,
	MiscStipend:           150.00,
}

// Revenue decomposes the period's revenue into nine sources and divides each
// by the period's total meal equivalents. Ratios are 0 when there are no MEQs.
func Revenue(records []models.DailyMetricRecord, q models.Query, rates RevenueRates) *models.RevenueBreakdown {
	filtered := FilterRecords(records, q)
	if len(filtered) == 0 {
		return nil
	}

	var studentMeals, adultMeals, nonprogram, federal, commodities, state float64
	for _, r := range filtered {
		studentMeals += float64(r.PaidMealBreakfast)*rates.StudentBreakfastPrice +
			float64(r.PaidMealLunch)*rates.StudentLunchPrice +
			float64(r.ReducedMealBreakfast)*rates.ReducedBreakfastPrice +
			float64(r.ReducedMealLunch)*rates.ReducedLunchPrice
		adultMeals += float64(r.BreakfastCount)*breakfastAdultShare*rates.AdultBreakfastPrice +
			float64(r.LunchCount)*lunchAdultShare*rates.AdultLunchPrice
		nonprogram += r.ALCRevenue
		federal += r.ReimbursementAmount
		commodities += float64(r.LunchCount) * rates.CommodityPerLunch
		state += float64(r.BreakfastCount+r.LunchCount) * rates.StatePerMeal
	}

	totalMEQ := convertMEQ(sumMeals(filtered)).Total

	breakdown := &models.RevenueBreakdown{TotalMEQ: totalMEQ}
	add := func(key, label string, amount float64) {
		amount = roundCents(amount)
		breakdown.Sources = append(breakdown.Sources, models.RevenueSource{
			Key:    key,
			Label:  label,
			Amount: amount,
			PerMEQ: roundCents(Ratio(amount, float64(totalMEQ))),
		})
		breakdown.Total += amount
	}

	add(SourceStudentMeals, "Student Meals", studentMeals)
	add(SourceAdultMeals, "Adult Meals", adultMeals)
	add(SourceNonprogram, "Nonprogram Food", nonprogram)
	add(SourceContract, "Contract Meals", rates.ContractStipend)
	add(SourceFederalReimbursement, "Federal Reimbursement", federal)
	add(SourceUSDACommodities, "USDA Commodities", commodities)
	add(SourceStateReimbursement, "State Reimbursement", state)
	add(SourceInterest, "Interest", rates.InterestStipend)
	add(SourceMiscellaneous, "Miscellaneous", rates.MiscStipend)

	breakdown.Total = roundCents(breakdown.Total)
	breakdown.PerMEQ = roundCents(Ratio(breakdown.Total, float64(totalMEQ)))

	return breakdown
}
