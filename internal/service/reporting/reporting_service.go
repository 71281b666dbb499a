package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
	"github.com/dallastaras/nutrikpi/internal/kpi"
	"github.com/dallastaras/nutrikpi/internal/repository/cache"
)

var (
	// ErrUnknownKPIKind is returned for a KPI identifier outside the known set.
	ErrUnknownKPIKind = errors.New("unknown kpi kind")
	// ErrInvalidQuery is returned when a query cannot be evaluated.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSchoolRequired is returned when an operation needs a single school.
	ErrSchoolRequired = errors.New("a single school must be selected")
	// ErrNoData is returned when the query selects no records.
	ErrNoData = errors.New("no data available for the selected period")
)

// MetricSource loads daily metric records for a district.
type MetricSource interface {
	FindDailyMetrics(ctx context.Context, districtID string, dateRange models.DateRange) ([]models.DailyMetricRecord, error)
}

// SnapshotStore persists weekly digests.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot models.KPISnapshot) error
	LatestSnapshot(ctx context.Context, districtID string) (*models.KPISnapshot, error)
}

// Service computes KPI bundles and weekly digests.
type Service struct {
	source    MetricSource
	snapshots SnapshotStore
	cache     cache.Cache
	rates     kpi.RevenueRates
	pick      kpi.Picker
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires a new reporting service instance. cacheStore may be nil.
func NewService(source MetricSource, snapshots SnapshotStore, cacheStore cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:    source,
		snapshots: snapshots,
		cache:     cacheStore,
		rates:     kpi.DefaultRevenueRates,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Detail computes the bundle behind a single KPI card for the query scope.
func (s *Service) Detail(ctx context.Context, kind models.KPIKind, q models.Query) (any, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	records, err := s.loadRecords(ctx, q)
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.KPILunch, models.KPIBreakfast, models.KPISnack, models.KPISupper:
		mealType, _ := kind.MealType()
		return present(kpi.Meals(records, q, mealType))
	case models.KPIMEQ:
		return present(kpi.MealEquivalents(records, q))
	case models.KPIRevenue:
		return present(kpi.Revenue(records, q, s.rates))
	case models.KPIWaste:
		return present(kpi.Waste(records, q))
	case models.KPIEnrollment:
		return present(kpi.Enrollment(records, q))
	case models.KPIProgramAccess:
		return present(kpi.ProgramAccess(records, q))
	case models.KPIPerformance:
		grades := s.grades(records, q)
		if len(grades) == 0 {
			return nil, ErrNoData
		}
		return grades, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKPIKind, kind)
	}
}

// Dashboard computes every bundle for the query scope. Results are cached
// when a cache is configured.
func (s *Service) Dashboard(ctx context.Context, q models.Query) (*models.Dashboard, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	key := cache.Key(q.DistrictID, "dashboard", scopeKey(q), dayKey(q.Range.Start), dayKey(q.Range.End))
	if s.cache != nil {
		var cached models.Dashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	records, err := s.loadRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(kpi.FilterRecords(records, q)) == 0 {
		return nil, ErrNoData
	}

	dashboard := &models.Dashboard{
		Query:         q,
		Meals:         make(map[models.MealType]*models.MealBreakdown, len(models.MealTypes)),
		MEQ:           kpi.MealEquivalents(records, q),
		Revenue:       kpi.Revenue(records, q, s.rates),
		Waste:         kpi.Waste(records, q),
		Enrollment:    kpi.Enrollment(records, q),
		ProgramAccess: kpi.ProgramAccess(records, q),
	}
	for _, mealType := range models.MealTypes {
		dashboard.Meals[mealType] = kpi.Meals(records, q, mealType)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dashboard); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return dashboard, nil
}

// Grade grades the selected school from its latest record in range.
func (s *Service) Grade(ctx context.Context, q models.Query) (*models.PerformanceGrade, error) {
	if q.IsDistrict() {
		return nil, ErrSchoolRequired
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	records, err := s.loadRecords(ctx, q)
	if err != nil {
		return nil, err
	}

	latest := kpi.Latest(records, q)
	if latest == nil {
		return nil, ErrNoData
	}

	grade := kpi.Grade(*latest, s.pick)
	return &grade, nil
}

// LatestReport returns the most recent weekly digest for the district.
func (s *Service) LatestReport(ctx context.Context, districtID string) (*models.KPISnapshot, error) {
	if strings.TrimSpace(districtID) == "" {
		return nil, fmt.Errorf("%w: district is required", ErrInvalidQuery)
	}

	snapshot, err := s.snapshots.LatestSnapshot(ctx, districtID)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, ErrNoData
	}
	return snapshot, nil
}

// GenerateWeeklyReport summarizes the district from Monday of the current
// week through now, stores the snapshot and returns it.
func (s *Service) GenerateWeeklyReport(ctx context.Context, districtID string, now time.Time) (*models.KPISnapshot, error) {
	start := mondayStart(now)
	q := models.Query{
		DistrictID: districtID,
		Range:      models.DateRange{Start: start, End: now},
		School:     models.DistrictScope,
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	records, err := s.loadRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(kpi.FilterRecords(records, q)) == 0 {
		return nil, ErrNoData
	}

	snapshot := models.KPISnapshot{
		ID:          s.newID(),
		DistrictID:  districtID,
		PeriodStart: models.Day(start),
		PeriodEnd:   models.Day(now),
		MealsServed: make(map[models.MealType]int, len(models.MealTypes)),
		Grades:      s.grades(records, q),
		CreatedAt:   s.now().UTC(),
	}
	for _, mealType := range models.MealTypes {
		if meals := kpi.Meals(records, q, mealType); meals != nil {
			snapshot.MealsServed[mealType] = meals.Total
		}
	}
	if meq := kpi.MealEquivalents(records, q); meq != nil {
		snapshot.TotalMEQ = meq.Total
	}
	if revenue := kpi.Revenue(records, q, s.rates); revenue != nil {
		snapshot.Revenue = revenue.Total
	}
	if waste := kpi.Waste(records, q); waste != nil {
		snapshot.WasteImpact = waste.Impact.Total
		snapshot.HighWaste = waste.Impact.HighWaste
	}
	if enrollment := kpi.Enrollment(records, q); enrollment != nil {
		snapshot.Enrollment = enrollment.TotalEnrollment
	}
	snapshot.Digest = formatDigest(snapshot)

	if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save weekly snapshot: %w", err)
	}

	s.logger.Info("weekly report generated",
		zap.String("district_id", districtID),
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("schools", len(snapshot.Grades)))

	return &snapshot, nil
}

func (s *Service) loadRecords(ctx context.Context, q models.Query) ([]models.DailyMetricRecord, error) {
	records, err := s.source.FindDailyMetrics(ctx, q.DistrictID, q.Range)
	if err != nil {
		return nil, fmt.Errorf("load daily metrics: %w", err)
	}
	return records, nil
}

func (s *Service) grades(records []models.DailyMetricRecord, q models.Query) []models.PerformanceGrade {
	latest := kpi.LatestBySchool(records, q)
	grades := make([]models.PerformanceGrade, 0, len(latest))
	for _, record := range latest {
		grades = append(grades, kpi.Grade(record, s.pick))
	}
	return grades
}

func present[T any](bundle *T) (any, error) {
	if bundle == nil {
		return nil, ErrNoData
	}
	return bundle, nil
}

func validateQuery(q models.Query) error {
	if strings.TrimSpace(q.DistrictID) == "" {
		return fmt.Errorf("%w: district is required", ErrInvalidQuery)
	}
	if err := q.Range.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

func scopeKey(q models.Query) string {
	if q.IsDistrict() {
		return models.DistrictScope
	}
	return q.School
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format(models.DateLayout)
}

func formatDigest(snapshot models.KPISnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly nutrition report %s (%s to %s)\n",
		snapshot.DistrictID,
		snapshot.PeriodStart.Format(models.DateLayout),
		snapshot.PeriodEnd.Format(models.DateLayout))

	meals := make([]string, 0, len(models.MealTypes))
	for _, mealType := range models.MealTypes {
		meals = append(meals, fmt.Sprintf("%s %d", mealType, snapshot.MealsServed[mealType]))
	}
	fmt.Fprintf(&b, "Meals served: %s\n", strings.Join(meals, ", "))
	fmt.Fprintf(&b, "Meal equivalents: %d\n", snapshot.TotalMEQ)
	fmt.Fprintf(&b, "Revenue: %s\n", money(snapshot.Revenue))

	wasteLine := fmt.Sprintf("Waste impact: %s", money(snapshot.WasteImpact))
	if snapshot.HighWaste {
		wasteLine += " (high waste)"
	}
	b.WriteString(wasteLine + "\n")
	fmt.Fprintf(&b, "Enrollment: %d", snapshot.Enrollment)

	if len(snapshot.Grades) > 0 {
		b.WriteString("\nGrades:")
		for _, grade := range snapshot.Grades {
			fmt.Fprintf(&b, "\n- %s: %s (%d)", grade.SchoolName, grade.Grade, grade.Score)
		}
	}

	return b.String()
}

func money(amount float64) string {
	return "$" + decimal.NewFromFloat(amount).StringFixed(2)
}

func mondayStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	daysSinceMonday := (weekday + 6) % 7
	start := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
