package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
	"github.com/dallastaras/nutrikpi/internal/service/importer"
	"github.com/dallastaras/nutrikpi/internal/service/reporting"
)

// NoDataMessage accompanies a null payload when the period has no records.
const NoDataMessage = "No data available for the selected period"

// ReportingService is the subset of the reporting service the API exposes.
type ReportingService interface {
	Detail(ctx context.Context, kind models.KPIKind, q models.Query) (any, error)
	Dashboard(ctx context.Context, q models.Query) (*models.Dashboard, error)
	Grade(ctx context.Context, q models.Query) (*models.PerformanceGrade, error)
	LatestReport(ctx context.Context, districtID string) (*models.KPISnapshot, error)
}

// ImportService triggers a metrics import.
type ImportService interface {
	Import(ctx context.Context) (importer.Result, error)
}

// KPIHandler serves dashboard and KPI detail requests.
type KPIHandler struct {
	reports ReportingService
	imports ImportService
	logger  *zap.Logger
}

// NewKPIHandler constructs the HTTP handler adapter. imports may be nil when
// no spreadsheet is configured.
func NewKPIHandler(reports ReportingService, imports ImportService, logger *zap.Logger) *KPIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KPIHandler{reports: reports, imports: imports, logger: logger}
}

// Dashboard returns every KPI bundle for the selected scope.
func (h *KPIHandler) Dashboard(c *gin.Context) {
	q, err := parseQuery(c, c.Query("school"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	dashboard, err := h.reports.Dashboard(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

// KPIDetail returns the bundle behind a single KPI card.
func (h *KPIHandler) KPIDetail(c *gin.Context) {
	kind := models.ParseKPIKind(c.Param("kind"))
	if kind == models.KPIUnknown {
		h.respondError(c, fmt.Errorf("%w: %q", reporting.ErrUnknownKPIKind, c.Param("kind")))
		return
	}

	q, err := parseQuery(c, c.Query("school"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	detail, err := h.reports.Detail(c.Request.Context(), kind, q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"kind": kind, "data": detail})
}

// SchoolGrade returns the performance grade of one school.
func (h *KPIHandler) SchoolGrade(c *gin.Context) {
	q, err := parseQuery(c, c.Param("school"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	grade, err := h.reports.Grade(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": grade})
}

// LatestReport returns the most recent weekly digest.
func (h *KPIHandler) LatestReport(c *gin.Context) {
	snapshot, err := h.reports.LatestReport(c.Request.Context(), c.Param("district"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// Import runs the spreadsheet import on demand.
func (h *KPIHandler) Import(c *gin.Context) {
	if h.imports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics import is not configured"})
		return
	}

	result, err := h.imports.Import(c.Request.Context())
	if err != nil {
		h.logger.Error("failed importing metrics", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to import metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *KPIHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reporting.ErrNoData):
		c.JSON(http.StatusOK, gin.H{"data": nil, "message": NoDataMessage})
	case errors.Is(err, reporting.ErrInvalidQuery), errors.Is(err, reporting.ErrSchoolRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, reporting.ErrUnknownKPIKind):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed serving kpi request", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseQuery(c *gin.Context, school string) (models.Query, error) {
	q := models.Query{
		DistrictID: c.Param("district"),
		School:     strings.TrimSpace(school),
	}
	if q.School == "" {
		q.School = models.DistrictScope
	}

	var err error
	if q.Range.Start, err = parseDay(c.Query("start")); err != nil {
		return q, fmt.Errorf("%w: start: %v", reporting.ErrInvalidQuery, err)
	}
	if q.Range.End, err = parseDay(c.Query("end")); err != nil {
		return q, fmt.Errorf("%w: end: %v", reporting.ErrInvalidQuery, err)
	}
	if err := q.Range.Validate(); err != nil {
		return q, fmt.Errorf("%w: %v", reporting.ErrInvalidQuery, err)
	}

	return q, nil
}

func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(models.DateLayout, value)
}
