package kpi

import "github.com/dallastaras/nutrikpi/internal/domain/models"

// Production and waste are not tracked upstream, so they are estimated from
// served counts with fixed ratios.
const (
	overproductionFactor = 1.10

	rtsShare       = 0.30
	carryOverShare = 0.20
	spoilageShare  = 0.15

	temperatureShare = 0.40
	qualityShare     = 0.30
	expiredShare     = 0.30

	portionCost         = 2.50
	carryOverCostWeight = 0.5

	// HighWasteThreshold is the impact in dollars above which waste is flagged.
	HighWasteThreshold = 1000.0
)

// Waste estimates production and waste for the selected records. Only
// breakfast and lunch are counted as served.
func Waste(records []models.DailyMetricRecord, q models.Query) *models.WasteMetrics {
	filtered := FilterRecords(records, q)
	if len(filtered) == 0 {
		return nil
	}

	var total models.WasteMetrics
	for _, record := range filtered {
		accumulateWaste(&total, estimateWaste(record))
	}

	carryOverValue := float64(total.CarryOver) * portionCost
	impact := models.WasteImpact{
		WastedValue:    float64(total.Waste) * portionCost,
		SpoilageValue:  float64(total.Spoilage.Total) * portionCost,
		CarryOverValue: carryOverValue,
	}
	impact.Total = impact.WastedValue + impact.SpoilageValue + carryOverValue*carryOverCostWeight
	impact.HighWaste = impact.Total > HighWasteThreshold

	total.Impact = impact
	total.ProductionAccuracy = Percent(float64(total.Served), float64(total.Produced))

	return &total
}

func estimateWaste(record models.DailyMetricRecord) models.WasteMetrics {
	served := record.LunchCount + record.BreakfastCount
	produced := roundHalfUp(float64(served) * overproductionFactor)
	leftOver := produced - served

	rts := roundHalfUp(float64(leftOver) * rtsShare)
	carryOver := roundHalfUp(float64(leftOver) * carryOverShare)
	spoiled := roundHalfUp(float64(leftOver) * spoilageShare)

	return models.WasteMetrics{
		Planned:   served,
		Produced:  produced,
		Served:    served,
		Waste:     leftOver - rts - carryOver - spoiled,
		RTS:       rts,
		CarryOver: carryOver,
		LeftOver:  leftOver,
		Spoilage: models.Spoilage{
			Temperature: roundHalfUp(float64(spoiled) * temperatureShare),
			Quality:     roundHalfUp(float64(spoiled) * qualityShare),
			Expired:     roundHalfUp(float64(spoiled) * expiredShare),
			Total:       spoiled,
		},
	}
}

func accumulateWaste(acc *models.WasteMetrics, w models.WasteMetrics) {
	acc.Planned += w.Planned
	acc.Produced += w.Produced
	acc.Served += w.Served
	acc.Waste += w.Waste
	acc.RTS += w.RTS
	acc.CarryOver += w.CarryOver
	acc.LeftOver += w.LeftOver
	acc.Spoilage.Temperature += w.Spoilage.Temperature
	acc.Spoilage.Quality += w.Spoilage.Quality
	acc.Spoilage.Expired += w.Spoilage.Expired
	acc.Spoilage.Total += w.Spoilage.Total
}
