package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
	repo "github.com/dallastaras/nutrikpi/internal/repository/sheets"
)

const importLogRange = "ImportLog!A:E"

// ErrMissingColumn indicates the sheet header lacks a required column.
var ErrMissingColumn = errors.New("metrics sheet is missing a required column")

// MetricStore persists imported records.
type MetricStore interface {
	UpsertDailyMetrics(ctx context.Context, records []models.DailyMetricRecord) (int64, error)
}

// CacheInvalidator drops cached bundles after new records land.
type CacheInvalidator interface {
	InvalidateDistrict(ctx context.Context, districtID string) error
}

// Result summarizes one import run.
type Result struct {
	Rows     int   `json:"rows"`
	Imported int   `json:"imported"`
	Skipped  int   `json:"skipped"`
	Upserted int64 `json:"upserted"`
}

// Service imports daily metric rows from a spreadsheet into the metric store.
type Service struct {
	sheets       repo.Repository
	store        MetricStore
	cache        CacheInvalidator
	districtID   string
	metricsRange string
	logger       *zap.Logger
	now          func() time.Time
}

// NewService wires a new import service. cache may be nil.
func NewService(sheets repo.Repository, store MetricStore, cache CacheInvalidator, districtID, metricsRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sheets:       sheets,
		store:        store,
		cache:        cache,
		districtID:   districtID,
		metricsRange: metricsRange,
		logger:       logger,
		now:          time.Now,
	}
}

// Import reads the metrics range, upserts every parseable row and appends an
// audit row to the import log sheet.
func (s *Service) Import(ctx context.Context) (Result, error) {
	table, err := s.sheets.ReadTable(ctx, s.metricsRange)
	if err != nil {
		return Result{}, fmt.Errorf("load metrics range: %w", err)
	}

	records, skipped, err := ParseRows(table, s.districtID, s.logger)
	if err != nil {
		return Result{}, err
	}

	result := Result{Rows: len(table.Rows), Imported: len(records), Skipped: skipped}

	upserted, err := s.store.UpsertDailyMetrics(ctx, records)
	if err != nil {
		return result, fmt.Errorf("store imported metrics: %w", err)
	}
	result.Upserted = upserted

	if s.cache != nil && upserted > 0 {
		if err := s.cache.InvalidateDistrict(ctx, s.districtID); err != nil {
			s.logger.Warn("failed to invalidate metric cache", zap.Error(err))
		}
	}

	audit := []interface{}{s.now().UTC().Format(time.RFC3339), s.districtID, result.Imported, result.Skipped, result.Upserted}
	if err := s.sheets.WriteRow(ctx, importLogRange, audit); err != nil {
		s.logger.Warn("failed to append import log row", zap.Error(err))
	}

	s.logger.Info("metrics imported",
		zap.Int("rows", result.Rows),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int64("upserted", result.Upserted))

	return result, nil
}

type fieldSetter func(r *models.DailyMetricRecord, value interface{})

func intField(set func(r *models.DailyMetricRecord, v int)) fieldSetter {
	return func(r *models.DailyMetricRecord, value interface{}) {
		if v, err := parseFloat(value); err == nil {
			set(r, int(math.Round(v)))
		}
	}
}

func floatField(set func(r *models.DailyMetricRecord, v float64)) fieldSetter {
	return func(r *models.DailyMetricRecord, value interface{}) {
		if v, err := parseFloat(value); err == nil {
			set(r, v)
		}
	}
}

// Setters keyed by normalized header name.
var columns = map[string]fieldSetter{
	"schoolname": func(r *models.DailyMetricRecord, v interface{}) { r.SchoolName = strings.TrimSpace(fmt.Sprint(v)) },

	"breakfastcount": intField(func(r *models.DailyMetricRecord, v int) { r.BreakfastCount = v }),
	"lunchcount":     intField(func(r *models.DailyMetricRecord, v int) { r.LunchCount = v }),
	"snackcount":     intField(func(r *models.DailyMetricRecord, v int) { r.SnackCount = v }),
	"suppercount":    intField(func(r *models.DailyMetricRecord, v int) { r.SupperCount = v }),

	"freemealbreakfast":    intField(func(r *models.DailyMetricRecord, v int) { r.FreeMealBreakfast = v }),
	"reducedmealbreakfast": intField(func(r *models.DailyMetricRecord, v int) { r.ReducedMealBreakfast = v }),
	"paidmealbreakfast":    intField(func(r *models.DailyMetricRecord, v int) { r.PaidMealBreakfast = v }),
	"freemeallunch":        intField(func(r *models.DailyMetricRecord, v int) { r.FreeMealLunch = v }),
	"reducedmeallunch":     intField(func(r *models.DailyMetricRecord, v int) { r.ReducedMealLunch = v }),
	"paidmeallunch":        intField(func(r *models.DailyMetricRecord, v int) { r.PaidMealLunch = v }),
	"freemealsnack":        intField(func(r *models.DailyMetricRecord, v int) { r.FreeMealSnack = v }),
	"reducedmealsnack":     intField(func(r *models.DailyMetricRecord, v int) { r.ReducedMealSnack = v }),
	"paidmealsnack":        intField(func(r *models.DailyMetricRecord, v int) { r.PaidMealSnack = v }),
	"freemealsupper":       intField(func(r *models.DailyMetricRecord, v int) { r.FreeMealSupper = v }),
	"reducedmealsupper":    intField(func(r *models.DailyMetricRecord, v int) { r.ReducedMealSupper = v }),
	"paidmealsupper":       intField(func(r *models.DailyMetricRecord, v int) { r.PaidMealSupper = v }),

	"totalenrollment": intField(func(r *models.DailyMetricRecord, v int) { r.TotalEnrollment = v }),
	"freecount":       intField(func(r *models.DailyMetricRecord, v int) { r.FreeCount = v }),
	"reducedcount":    intField(func(r *models.DailyMetricRecord, v int) { r.ReducedCount = v }),

	"alcrevenue":                 floatField(func(r *models.DailyMetricRecord, v float64) { r.ALCRevenue = v }),
	"reimbursementamount":        floatField(func(r *models.DailyMetricRecord, v float64) { r.ReimbursementAmount = v }),
	"mplh":                       floatField(func(r *models.DailyMetricRecord, v float64) { r.MPLH = v }),
	"programaccessrate":          floatField(func(r *models.DailyMetricRecord, v float64) { r.ProgramAccessRate = v }),
	"breakfastparticipationrate": floatField(func(r *models.DailyMetricRecord, v float64) { r.BreakfastParticipationRate = v }),
	"lunchparticipationrate":     floatField(func(r *models.DailyMetricRecord, v float64) { r.LunchParticipationRate = v }),

	"eodtaskscompleted": func(r *models.DailyMetricRecord, v interface{}) { r.EODTasksCompleted = parseBool(v) },
}

type boundColumn struct {
	index int
	set   fieldSetter
}

// ParseRows converts sheet rows into records. Rows with an unreadable date or
// no school id are skipped; unreadable numbers are left at zero. When a header
// name repeats, the leftmost column is used.
func ParseRows(table repo.Table, districtID string, logger *zap.Logger) ([]models.DailyMetricRecord, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(table.Header) == 0 {
		return nil, 0, nil
	}

	index := table.Columns()
	dateCol, ok := index["date"]
	if !ok {
		return nil, 0, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	schoolCol, ok := index["schoolid"]
	if !ok {
		return nil, 0, fmt.Errorf("%w: schoolId", ErrMissingColumn)
	}

	bound := make([]boundColumn, 0, len(columns))
	for name, col := range index {
		if set, ok := columns[name]; ok {
			bound = append(bound, boundColumn{index: col, set: set})
		}
	}

	records := make([]models.DailyMetricRecord, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		if len(row) <= dateCol || len(row) <= schoolCol {
			skipped++
			continue
		}

		date, err := parseDate(row[dateCol])
		if err != nil {
			logger.Debug("skip metrics row with invalid date", zap.Any("value", row[dateCol]), zap.Error(err))
			skipped++
			continue
		}

		schoolID := strings.TrimSpace(fmt.Sprint(row[schoolCol]))
		if schoolID == "" {
			logger.Debug("skip metrics row without school id", zap.Time("date", date))
			skipped++
			continue
		}

		record := models.DailyMetricRecord{Date: date, DistrictID: districtID, SchoolID: schoolID}
		for _, col := range bound {
			if col.index < len(row) {
				col.set(&record, row[col.index])
			}
		}
		records = append(records, record)
	}

	return records, skipped, nil
}

var dateLayouts = []string{models.DateLayout, "1/2/2006", "01/02/2006"}

func parseDate(value interface{}) (time.Time, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// Drop any time of day: "9/3/2024 0:00:00", "2024-09-03T00:00:00Z".
	if i := strings.IndexAny(str, " T"); i > 0 {
		str = str[:i]
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, str); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", str)
}

func parseFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	str := strings.TrimSpace(fmt.Sprint(value))
	str = strings.NewReplacer("$", "", ",", "", "%", "").Replace(str)
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}

func parseBool(value interface{}) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(fmt.Sprint(value))) {
	case "true", "yes", "y", "1", "x":
		return true
	default:
		return false
	}
}
