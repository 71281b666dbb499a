package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
)

func enrollmentRecords(t *testing.T) []models.DailyMetricRecord {
	return []models.DailyMetricRecord{
		{Date: day(t, "2024-09-05"), SchoolID: "A", SchoolName: "Lincoln Elementary", TotalEnrollment: 520, FreeCount: 210, ReducedCount: 40},
		{Date: day(t, "2024-09-01"), SchoolID: "A", SchoolName: "Lincoln Elementary", TotalEnrollment: 500, FreeCount: 200, ReducedCount: 50},
		{Date: day(t, "2024-09-02"), SchoolID: "B", SchoolName: "Roosevelt Middle", TotalEnrollment: 300, FreeCount: 100, ReducedCount: 250},
		{Date: day(t, "2024-10-02"), SchoolID: "B", SchoolName: "Roosevelt Middle", TotalEnrollment: 9999},
	}
}

func TestEnrollment_SingleSchoolUsesLatestRecord(t *testing.T) {
	got := Enrollment(enrollmentRecords(t), schoolQuery(t, "A", "2024-09-01", "2024-09-30"))
	require.NotNil(t, got)

	assert.Equal(t, models.EnrollmentBreakdown{
		TotalEnrollment: 520,
		FreeCount:       210,
		ReducedCount:    40,
		PaidCount:       270,
	}, *got)
}

func TestEnrollment_DistrictSumsLatestPerSchool(t *testing.T) {
	got := Enrollment(enrollmentRecords(t), districtQuery(t, "2024-09-01", "2024-09-30"))
	require.NotNil(t, got)

	assert.Equal(t, 820, got.TotalEnrollment)
	assert.Equal(t, 310, got.FreeCount)
	assert.Equal(t, 290, got.ReducedCount)
	assert.Equal(t, 220, got.PaidCount)

	require.Len(t, got.Schools, 2)
	assert.Equal(t, "A", got.Schools[0].SchoolID)
	assert.Equal(t, 270, got.Schools[0].PaidCount)
	assert.Equal(t, day(t, "2024-09-05"), got.Schools[0].AsOf)

	// inconsistent upstream counts yield a negative paid count, unclamped
	assert.Equal(t, "Roosevelt Middle", got.Schools[1].SchoolName)
	assert.Equal(t, -50, got.Schools[1].PaidCount)
}

func TestEnrollment_DuplicateNamesKeepFirstSchool(t *testing.T) {
	records := append(enrollmentRecords(t),
		models.DailyMetricRecord{Date: day(t, "2024-09-03"), SchoolID: "C", SchoolName: "Lincoln Elementary", TotalEnrollment: 100, FreeCount: 10, ReducedCount: 10},
	)

	got := Enrollment(records, districtQuery(t, "2024-09-01", "2024-09-30"))
	require.NotNil(t, got)

	require.Len(t, got.Schools, 2)
	assert.Equal(t, "A", got.Schools[0].SchoolID)
	assert.Equal(t, "B", got.Schools[1].SchoolID)
	// the dropped school still counts toward the district total
	assert.Equal(t, 920, got.TotalEnrollment)
}

func TestEnrollment_UnknownSchoolName(t *testing.T) {
	records := []models.DailyMetricRecord{
		{Date: day(t, "2024-09-03"), SchoolID: "X", TotalEnrollment: 10},
	}

	got := Enrollment(records, districtQuery(t, "2024-09-01", "2024-09-30"))
	require.NotNil(t, got)
	require.Len(t, got.Schools, 1)
	assert.Equal(t, models.UnknownSchoolName, got.Schools[0].SchoolName)
}

func TestEnrollment_SameDateKeepsFirstSeen(t *testing.T) {
	records := []models.DailyMetricRecord{
		{Date: day(t, "2024-09-03"), SchoolID: "A", TotalEnrollment: 100},
		{Date: day(t, "2024-09-03"), SchoolID: "A", TotalEnrollment: 200},
	}

	district := Enrollment(records, districtQuery(t, "2024-09-01", "2024-09-30"))
	require.NotNil(t, district)
	assert.Equal(t, 100, district.TotalEnrollment)

	single := Enrollment(records, schoolQuery(t, "A", "2024-09-01", "2024-09-30"))
	require.NotNil(t, single)
	assert.Equal(t, 100, single.TotalEnrollment)
}

func TestEnrollment_PaidIsAlwaysDerived(t *testing.T) {
	for _, q := range []models.Query{
		districtQuery(t, "2024-09-01", "2024-09-30"),
		schoolQuery(t, "A", "2024-09-01", "2024-09-30"),
		schoolQuery(t, "B", "2024-09-01", "2024-09-30"),
	} {
		got := Enrollment(enrollmentRecords(t), q)
		require.NotNil(t, got)
		assert.Equal(t, got.TotalEnrollment-(got.FreeCount+got.ReducedCount), got.PaidCount)
		for _, school := range got.Schools {
			assert.Equal(t, school.TotalEnrollment-(school.FreeCount+school.ReducedCount), school.PaidCount)
		}
	}
}

func TestEnrollment_NoData(t *testing.T) {
	assert.Nil(t, Enrollment(nil, districtQuery(t, "2024-09-01", "2024-09-30")))
	assert.Nil(t, Enrollment(enrollmentRecords(t), schoolQuery(t, "Z", "2024-09-01", "2024-09-30")))
}
