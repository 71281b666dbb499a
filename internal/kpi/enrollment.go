package kpi

import "github.com/dallastaras/nutrikpi/internal/domain/models"

// LatestBySchool returns each school's most recent record among the selected
// records, in order of first appearance. A record replaces the kept one only
// when its date is strictly later.
func LatestBySchool(records []models.DailyMetricRecord, q models.Query) []models.DailyMetricRecord {
	filtered := FilterRecords(records, q)

	index := make(map[string]int)
	latest := make([]models.DailyMetricRecord, 0)
	for _, record := range filtered {
		i, seen := index[record.SchoolID]
		if !seen {
			index[record.SchoolID] = len(latest)
			latest = append(latest, record)
			continue
		}
		if record.Date.After(latest[i].Date) {
			latest[i] = record
		}
	}

	return latest
}

// Latest returns the most recent record for the query's school, or nil.
func Latest(records []models.DailyMetricRecord, q models.Query) *models.DailyMetricRecord {
	var latest *models.DailyMetricRecord
	for _, record := range FilterRecords(records, q) {
		if latest == nil || record.Date.After(latest.Date) {
			r := record
			latest = &r
		}
	}
	return latest
}

// Enrollment reports current enrollment by eligibility. Enrollment is a
// snapshot, so the latest record per school is used rather than a period sum.
// Paid enrollment is always derived from total, free and reduced counts.
func Enrollment(records []models.DailyMetricRecord, q models.Query) *models.EnrollmentBreakdown {
	if !q.IsDistrict() {
		latest := Latest(records, q)
		if latest == nil {
			return nil
		}
		return &models.EnrollmentBreakdown{
			TotalEnrollment: latest.TotalEnrollment,
			FreeCount:       latest.FreeCount,
			ReducedCount:    latest.ReducedCount,
			PaidCount:       latest.PaidCount(),
		}
	}

	schools := LatestBySchool(records, q)
	if len(schools) == 0 {
		return nil
	}

	breakdown := &models.EnrollmentBreakdown{}
	names := make(map[string]struct{})
	for _, record := range schools {
		breakdown.TotalEnrollment += record.TotalEnrollment
		breakdown.FreeCount += record.FreeCount
		breakdown.ReducedCount += record.ReducedCount

		// Schools sharing a display name collapse onto the first one listed.
		name := record.DisplayName()
		if _, dup := names[name]; dup {
			continue
		}
		names[name] = struct{}{}
		breakdown.Schools = append(breakdown.Schools, models.SchoolEnrollment{
			SchoolID:        record.SchoolID,
			SchoolName:      name,
			AsOf:            models.Day(record.Date),
			TotalEnrollment: record.TotalEnrollment,
			FreeCount:       record.FreeCount,
			ReducedCount:    record.ReducedCount,
			PaidCount:       record.TotalEnrollment - (record.FreeCount + record.ReducedCount),
		})
	}
	breakdown.PaidCount = breakdown.TotalEnrollment - (breakdown.FreeCount + breakdown.ReducedCount)

	return breakdown
}
