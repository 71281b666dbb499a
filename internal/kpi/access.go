package kpi

import "github.com/dallastaras/nutrikpi/internal/domain/models"

// ProgramAccess averages the reported participation rates and totals
// reimbursement and a la carte revenue over the selected records.
func ProgramAccess(records []models.DailyMetricRecord, q models.Query) *models.ProgramAccessSummary {
	filtered := FilterRecords(records, q)
	if len(filtered) == 0 {
		return nil
	}

	var access, breakfast, lunch float64
	summary := &models.ProgramAccessSummary{Days: len(filtered)}
	for _, record := range filtered {
		access += record.ProgramAccessRate
		breakfast += record.BreakfastParticipationRate
		lunch += record.LunchParticipationRate
		summary.ReimbursementAmount += record.ReimbursementAmount
		summary.ALCRevenue += record.ALCRevenue
	}

	n := float64(len(filtered))
	summary.ProgramAccessRate = roundCents(Ratio(access, n))
	summary.BreakfastParticipationRate = roundCents(Ratio(breakfast, n))
	summary.LunchParticipationRate = roundCents(Ratio(lunch, n))
	summary.ReimbursementAmount = roundCents(summary.ReimbursementAmount)
	summary.ALCRevenue = roundCents(summary.ALCRevenue)

	return summary
}
