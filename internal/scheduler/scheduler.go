package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dallastaras/nutrikpi/internal/config"
	"github.com/dallastaras/nutrikpi/internal/domain/models"
	"github.com/dallastaras/nutrikpi/internal/service/importer"
	"github.com/dallastaras/nutrikpi/internal/service/reporting"
	"github.com/dallastaras/nutrikpi/pkg/clients/notify"
)

const jobTimeout = 2 * time.Minute

// WeeklyReporter builds the weekly district digest.
type WeeklyReporter interface {
	GenerateWeeklyReport(ctx context.Context, districtID string, now time.Time) (*models.KPISnapshot, error)
}

// Importer pulls new daily metrics into the store.
type Importer interface {
	Import(ctx context.Context) (importer.Result, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter WeeklyReporter
	importer Importer
	notifier notify.Client
	cfg      config.ReportingConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. imp may be nil when no
// spreadsheet is configured.
func NewScheduler(cfg config.ReportingConfig, reporter WeeklyReporter, imp Importer, notifier notify.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		reporter: reporter,
		importer: imp,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().In(location) },
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report: %w", err)
	}

	if s.importer != nil {
		if _, err := s.cron.AddFunc(s.cfg.ImportSchedule, s.runImport); err != nil {
			return fmt.Errorf("schedule metrics import: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	snapshot, err := s.reporter.GenerateWeeklyReport(ctx, s.cfg.DistrictID, s.now())
	if errors.Is(err, reporting.ErrNoData) {
		s.logger.Info("no metrics recorded this week, skipping report")
		return
	}
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}

	msg := notify.Message{
		Title:      fmt.Sprintf("Weekly nutrition report %s", snapshot.PeriodStart.Format(models.DateLayout)),
		Text:       snapshot.Digest,
		DistrictID: snapshot.DistrictID,
		HighWaste:  snapshot.HighWaste,
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
	} else {
		s.logger.Info("weekly report sent successfully", zap.String("snapshot_id", snapshot.ID))
	}
}

func (s *Scheduler) runImport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.importer.Import(ctx); err != nil {
		s.logger.Error("scheduled metrics import failed", zap.Error(err))
	}
}
