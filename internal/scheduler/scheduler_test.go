package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallastaras/nutrikpi/internal/config"
	"github.com/dallastaras/nutrikpi/internal/domain/models"
	"github.com/dallastaras/nutrikpi/internal/service/importer"
	"github.com/dallastaras/nutrikpi/internal/service/reporting"
	"github.com/dallastaras/nutrikpi/pkg/clients/notify"
)

type fakeReporter struct {
	snapshot *models.KPISnapshot
	err      error
	district string
	now      time.Time
}

func (f *fakeReporter) GenerateWeeklyReport(_ context.Context, districtID string, now time.Time) (*models.KPISnapshot, error) {
	f.district = districtID
	f.now = now
	return f.snapshot, f.err
}

type fakeImporter struct {
	calls int
}

func (f *fakeImporter) Import(context.Context) (importer.Result, error) {
	f.calls++
	return importer.Result{}, nil
}

type fakeNotifier struct {
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func testConfig() config.ReportingConfig {
	return config.ReportingConfig{
		DistrictID:     "d1",
		CronSchedule:   "0 20 * * 5",
		ImportSchedule: "30 2 * * *",
		Timezone:       "UTC",
	}
}

func TestSendWeeklyReport(t *testing.T) {
	reporter := &fakeReporter{snapshot: &models.KPISnapshot{
		ID:          "snap-1",
		DistrictID:  "d1",
		PeriodStart: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
		Digest:      "digest body",
		HighWaste:   true,
	}}
	notifier := &fakeNotifier{}

	s, err := NewScheduler(testConfig(), reporter, nil, notifier, nil)
	require.NoError(t, err)
	friday := time.Date(2024, 9, 6, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return friday }

	s.sendWeeklyReport()

	assert.Equal(t, "d1", reporter.district)
	assert.Equal(t, friday, reporter.now)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.Message{
		Title:      "Weekly nutrition report 2024-09-02",
		Text:       "digest body",
		DistrictID: "d1",
		HighWaste:  true,
	}, notifier.sent[0])
}

func TestSendWeeklyReportSkipsFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no data", reporting.ErrNoData},
		{"generation error", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			s, err := NewScheduler(testConfig(), &fakeReporter{err: tt.err}, nil, notifier, nil)
			require.NoError(t, err)

			s.sendWeeklyReport()
			assert.Empty(t, notifier.sent)
		})
	}
}

func TestStart(t *testing.T) {
	imp := &fakeImporter{}
	s, err := NewScheduler(testConfig(), &fakeReporter{}, imp, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()

	s.runImport()
	assert.Equal(t, 1, imp.calls)
}

func TestStartWithoutImporter(t *testing.T) {
	s, err := NewScheduler(testConfig(), &fakeReporter{}, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestInvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.CronSchedule = "every friday"

	s, err := NewScheduler(cfg, &fakeReporter{}, nil, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())

	cfg = testConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err = NewScheduler(cfg, &fakeReporter{}, nil, nil, nil)
	assert.Error(t, err)
}
