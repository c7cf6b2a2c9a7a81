package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ETL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./output", cfg.OutDir)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, "US/Eastern", cfg.TargetZone)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Empty(t, cfg.Months)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.yaml")
	body := `
data_dir: /srv/data
format: json
months: ["202502"]
run_interval: 30m
database:
  enabled: true
  driver: sqlite
  path: /srv/etl.db
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("ETL_FORMAT", "parquet")
	t.Setenv("ETL_MONTHS", " 202503, 202502 ,,202503")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, "parquet", cfg.Format)
	assert.Equal(t, []string{"202503", "202502"}, cfg.Months)
	assert.Equal(t, 30*time.Minute, cfg.RunInterval)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "/srv/etl.db", cfg.Database.Path)
	assert.Equal(t, "./output", cfg.OutDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultPipelineConfig
	cfg.Format = "xlsx"
	err := cfg.Validate()
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))

	cfg = DefaultPipelineConfig
	cfg.Months = []string{"2025-02"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultPipelineConfig
	cfg.Months = []string{"202513"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultPipelineConfig
	cfg.TargetZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = DefaultPipelineConfig
	cfg.Database.Enabled = true
	cfg.Database.Driver = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultPipelineConfig
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultPipelineConfig.Validate())
}

func TestParseMonths(t *testing.T) {
	assert.Equal(t, []string{"202502", "202503"}, ParseMonths("202502, 202503"))
	assert.Empty(t, ParseMonths(""))
	assert.Empty(t, ParseMonths(" , "))
}

func TestLocations(t *testing.T) {
	src, dst, err := DefaultPipelineConfig.Locations()
	require.NoError(t, err)
	assert.Equal(t, "UTC", src.String())
	assert.Equal(t, "US/Eastern", dst.String())
}

func TestConnectSQLite(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := utils.FromZap(zap.New(core), false)

	db, err := ConnectDatabase(DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "etl.db")}, logger)
	require.NoError(t, err)
	defer CloseDatabase(db, logger)

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)

	// сообщение о подключении идет через логгер конвейера
	entries := logs.FilterMessage("Успешное подключение к базе данных (sqlite)").All()
	assert.Len(t, entries, 1)

	_, err = ConnectDatabase(DatabaseConfig{Driver: "oracle"}, logger)
	assert.Error(t, err)
}
