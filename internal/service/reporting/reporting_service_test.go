package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
	"github.com/dallastaras/nutrikpi/internal/repository/cache"
)

type fakeSource struct {
	records []models.DailyMetricRecord
	err     error
	calls   int
}

func (f *fakeSource) FindDailyMetrics(_ context.Context, districtID string, _ models.DateRange) ([]models.DailyMetricRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.DailyMetricRecord
	for _, r := range f.records {
		if r.DistrictID == districtID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSnapshots struct {
	saved  []models.KPISnapshot
	latest *models.KPISnapshot
}

func (f *fakeSnapshots) SaveSnapshot(_ context.Context, snapshot models.KPISnapshot) error {
	f.saved = append(f.saved, snapshot)
	return nil
}

func (f *fakeSnapshots) LatestSnapshot(_ context.Context, _ string) (*models.KPISnapshot, error) {
	return f.latest, nil
}

type memoryCache struct {
	values map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	data, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = data
	return nil
}

func (m *memoryCache) InvalidateDistrict(_ context.Context, districtID string) error {
	for key := range m.values {
		if strings.Contains(key, ":"+districtID+":") {
			delete(m.values, key)
		}
	}
	return nil
}

func day(d int) time.Time {
	return time.Date(2024, 9, d, 0, 0, 0, 0, time.UTC)
}

func fixtures() []models.DailyMetricRecord {
	return []models.DailyMetricRecord{
		{
			Date: day(2), DistrictID: "d1", SchoolID: "A", SchoolName: "Lincoln Elementary",
			LunchCount: 100, BreakfastCount: 50,
			TotalEnrollment: 500, FreeCount: 300, ReducedCount: 100,
			ProgramAccessRate: 60, BreakfastParticipationRate: 40, LunchParticipationRate: 80,
			MPLH: 16, ReimbursementAmount: 100, ALCRevenue: 10, EODTasksCompleted: true,
		},
		{
			Date: day(3), DistrictID: "d1", SchoolID: "B", SchoolName: "Washington Middle",
			LunchCount: 80, TotalEnrollment: 320,
		},
		{
			Date: day(3), DistrictID: "other", SchoolID: "Z", LunchCount: 999,
		},
	}
}

func newTestService(source *fakeSource, snapshots *fakeSnapshots, mem *memoryCache) *Service {
	var c cache.Cache
	if mem != nil {
		c = mem
	}
	svc := NewService(source, snapshots, c, nil)
	svc.pick = func(int) int { return 0 }
	svc.now = func() time.Time { return time.Date(2024, 9, 6, 20, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "snap-1" }
	return svc
}

func weekQuery(school string) models.Query {
	return models.Query{
		DistrictID: "d1",
		Range:      models.DateRange{Start: day(2), End: day(6)},
		School:     school,
	}
}

func TestDetail(t *testing.T) {
	svc := newTestService(&fakeSource{records: fixtures()}, &fakeSnapshots{}, nil)
	ctx := context.Background()

	t.Run("meal kind", func(t *testing.T) {
		result, err := svc.Detail(ctx, models.KPILunch, weekQuery(models.DistrictScope))
		require.NoError(t, err)
		meals, ok := result.(*models.MealBreakdown)
		require.True(t, ok)
		assert.Equal(t, models.MealLunch, meals.MealType)
		assert.Equal(t, 180, meals.Total)
		assert.Equal(t, 2, meals.OperatingDays)
	})

	t.Run("enrollment", func(t *testing.T) {
		result, err := svc.Detail(ctx, models.KPIEnrollment, weekQuery(""))
		require.NoError(t, err)
		assert.Equal(t, 820, result.(*models.EnrollmentBreakdown).TotalEnrollment)
	})

	t.Run("performance grades every school", func(t *testing.T) {
		result, err := svc.Detail(ctx, models.KPIPerformance, weekQuery(models.DistrictScope))
		require.NoError(t, err)
		grades := result.([]models.PerformanceGrade)
		require.Len(t, grades, 2)
		assert.Equal(t, "A+", grades[0].Grade)
		assert.Equal(t, 100, grades[0].Score)
		assert.Equal(t, "F", grades[1].Grade)
	})

	t.Run("unknown school has no data", func(t *testing.T) {
		_, err := svc.Detail(ctx, models.KPIMEQ, weekQuery("missing"))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.Detail(ctx, models.ParseKPIKind("Student Wellness"), weekQuery(""))
		assert.ErrorIs(t, err, ErrUnknownKPIKind)
	})

	t.Run("reversed range", func(t *testing.T) {
		q := weekQuery("")
		q.Range = models.DateRange{Start: day(6), End: day(2)}
		_, err := svc.Detail(ctx, models.KPIWaste, q)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("missing district", func(t *testing.T) {
		q := weekQuery("")
		q.DistrictID = " "
		_, err := svc.Detail(ctx, models.KPIWaste, q)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestDetailSourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := newTestService(&fakeSource{err: boom}, &fakeSnapshots{}, nil)

	_, err := svc.Detail(context.Background(), models.KPIRevenue, weekQuery(""))
	assert.ErrorIs(t, err, boom)
}

func TestDashboardUsesCache(t *testing.T) {
	source := &fakeSource{records: fixtures()}
	c := &memoryCache{}
	svc := newTestService(source, &fakeSnapshots{}, c)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, weekQuery(models.DistrictScope))
	require.NoError(t, err)
	require.NotNil(t, first.Meals[models.MealLunch])
	assert.Equal(t, 180, first.Meals[models.MealLunch].Total)
	assert.NotNil(t, first.MEQ)
	assert.NotNil(t, first.Revenue)
	assert.NotNil(t, first.Waste)
	assert.Equal(t, 820, first.Enrollment.TotalEnrollment)
	assert.Equal(t, 2, first.ProgramAccess.Days)

	second, err := svc.Dashboard(ctx, weekQuery(models.DistrictScope))
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first.MEQ, second.MEQ)
	assert.Equal(t, first.Meals[models.MealLunch], second.Meals[models.MealLunch])

	require.NoError(t, c.InvalidateDistrict(ctx, "d1"))
	_, err = svc.Dashboard(ctx, weekQuery(models.DistrictScope))
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestDashboardNoData(t *testing.T) {
	svc := newTestService(&fakeSource{records: fixtures()}, &fakeSnapshots{}, nil)

	q := weekQuery(models.DistrictScope)
	q.Range = models.DateRange{Start: day(20), End: day(27)}
	_, err := svc.Dashboard(context.Background(), q)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGrade(t *testing.T) {
	svc := newTestService(&fakeSource{records: fixtures()}, &fakeSnapshots{}, nil)
	ctx := context.Background()

	_, err := svc.Grade(ctx, weekQuery(models.DistrictScope))
	assert.ErrorIs(t, err, ErrSchoolRequired)

	grade, err := svc.Grade(ctx, weekQuery("A"))
	require.NoError(t, err)
	assert.Equal(t, "Lincoln Elementary", grade.SchoolName)
	assert.Equal(t, "A+", grade.Grade)

	_, err = svc.Grade(ctx, weekQuery("missing"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGenerateWeeklyReport(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := newTestService(&fakeSource{records: fixtures()}, snapshots, nil)

	friday := time.Date(2024, 9, 6, 20, 0, 0, 0, time.UTC)
	snapshot, err := svc.GenerateWeeklyReport(context.Background(), "d1", friday)
	require.NoError(t, err)

	require.Len(t, snapshots.saved, 1)
	assert.Equal(t, *snapshot, snapshots.saved[0])

	assert.Equal(t, "snap-1", snapshot.ID)
	assert.Equal(t, day(2), snapshot.PeriodStart)
	assert.Equal(t, day(6), snapshot.PeriodEnd)
	assert.Equal(t, 180, snapshot.MealsServed[models.MealLunch])
	assert.Equal(t, 50, snapshot.MealsServed[models.MealBreakfast])
	assert.Equal(t, 820, snapshot.Enrollment)
	assert.Len(t, snapshot.Grades, 2)

	assert.Contains(t, snapshot.Digest, "Weekly nutrition report d1 (2024-09-02 to 2024-09-06)")
	assert.Contains(t, snapshot.Digest, "Meals served: breakfast 50, lunch 180, snack 0, supper 0")
	assert.Contains(t, snapshot.Digest, "Enrollment: 820")
	assert.Contains(t, snapshot.Digest, "- Lincoln Elementary: A+ (100)")
}

func TestGenerateWeeklyReportWithoutData(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := newTestService(&fakeSource{}, snapshots, nil)

	_, err := svc.GenerateWeeklyReport(context.Background(), "d1", time.Now())
	assert.ErrorIs(t, err, ErrNoData)
	assert.Empty(t, snapshots.saved)
}

func TestLatestReport(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := newTestService(&fakeSource{}, snapshots, nil)
	ctx := context.Background()

	_, err := svc.LatestReport(ctx, "d1")
	assert.ErrorIs(t, err, ErrNoData)

	snapshots.latest = &models.KPISnapshot{ID: "snap-0", DistrictID: "d1"}
	got, err := svc.LatestReport(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "snap-0", got.ID)

	_, err = svc.LatestReport(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1962.25", money(1962.25))
	assert.Equal(t, "$0.00", money(0))
	assert.Equal(t, "$21.30", money(21.3))
}

func TestMondayStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC), day(2)},
		{"friday", time.Date(2024, 9, 6, 20, 0, 0, 0, time.UTC), day(2)},
		{"sunday", time.Date(2024, 9, 8, 23, 59, 0, 0, time.UTC), day(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mondayStart(tt.in))
		})
	}
}
