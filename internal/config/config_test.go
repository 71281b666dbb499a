package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("DISTRICT_ID", "district-7")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "nutrikpi", cfg.MongoDB.DBName)
	assert.Equal(t, "0 20 * * 5", cfg.Reporting.CronSchedule)
	assert.Equal(t, "30 2 * * *", cfg.Reporting.ImportSchedule)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.Notify.Enabled())
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load("does-not-exist.env")
	assert.NoError(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "redis db", key: "REDIS_DB", val: "one"},
		{name: "cache ttl", key: "CACHE_TTL", val: "soon"},
		{name: "timezone", key: "TIMEZONE", val: "Mars/Olympus"},
		{name: "half configured sheets", key: "GOOGLE_SHEET_DATABASE_ID", val: "sheet-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			MongoDB:   MongoDBConfig{URI: "mongodb://localhost", DBName: "nutrikpi"},
			Redis:     RedisConfig{TTL: time.Minute},
			Reporting: ReportingConfig{DistrictID: "d1", CronSchedule: "0 20 * * 5", Timezone: "UTC"},
		}
	}

	require.NoError(t, valid().Validate())

	var nilCfg *Config
	assert.EqualError(t, nilCfg.Validate(), "config is nil")

	cfg := valid()
	cfg.MongoDB.URI = ""
	assert.EqualError(t, cfg.Validate(), "MONGODB_URI must be provided")

	cfg = valid()
	cfg.Reporting.DistrictID = ""
	assert.EqualError(t, cfg.Validate(), "DISTRICT_ID must be provided")

	cfg = valid()
	cfg.Sheets = SheetsConfig{CredentialsPath: "creds.json", SpreadsheetID: "abc"}
	assert.EqualError(t, cfg.Validate(), "SHEETS_METRICS_RANGE must not be empty")
}
