package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/LilVoxy/support_etl/ETL/config"
	"github.com/LilVoxy/support_etl/ETL/extractors"
	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func seedData(t *testing.T, dataDir string) {
	t.Helper()
	initial := filepath.Join(dataDir, extractors.InitialDir)
	writeFile(t, filepath.Join(initial, "agents.csv"), "agent_id,name\nA1,Ann\nA2,Bob\n")
	writeFile(t, filepath.Join(initial, "contact_centers.csv"), "contact_center_id,contact_center_name\nC1,Boston MA\n")
	writeFile(t, filepath.Join(initial, "service_categories.csv"), "category_id,department\nS1,Billing\n")
	writeFile(t, filepath.Join(initial, "interactions.csv"),
		"interaction_id,agent_id,contact_center_id,category_id,channel,call_duration_minutes,interaction_end\n"+
			"I1,A1,C1,S1,Phone,5,2025-02-03 15:00:00\n"+
			"I2,A2,C1,S1,phone,7,2025-02-10 15:00:00\n")

	delta := filepath.Join(dataDir, extractors.DeltaDir)
	writeFile(t, filepath.Join(delta, "agents_202502.csv"), "agent_id,name,action\nA2,,delete\n")
	writeFile(t, filepath.Join(delta, "contact_centers_202503.csv"), "contact_center_id,contact_center_name,action\nC9,Austin TX,add\n")
}

func testConfig(t *testing.T, withDB bool) config.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultPipelineConfig
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.OutDir = filepath.Join(dir, "output")
	cfg.ReportDir = filepath.Join(dir, "report")
	cfg.Database.Enabled = withDB
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(dir, "runs.db")
	seedData(t, cfg.DataDir)
	return cfg
}

func newRunner(t *testing.T, cfg config.PipelineConfig) *ETLRunner {
	t.Helper()
	r, err := NewETLRunner(cfg, utils.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

// recorder собирает события запусков
type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 16)}
}

func (rec *recorder) listen(e Event) {
	rec.mu.Lock()
	rec.events = append(rec.events, e)
	rec.mu.Unlock()
	rec.ch <- e
}

func (rec *recorder) types() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]string, 0, len(rec.events))
	for _, e := range rec.events {
		out = append(out, e.Type)
	}
	return out
}

func TestExecuteETLWritesTablesAndReport(t *testing.T) {
	cfg := testConfig(t, true)
	r := newRunner(t, cfg)
	rec := newRecorder()
	r.Subscribe(rec.listen)

	res, err := r.ExecuteETL(nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.BatchesApplied)
	assert.Equal(t, 1, res.Stats.AgentsProcessed)
	assert.Equal(t, 2, res.Stats.ContactCentersProcessed)
	assert.Equal(t, 2, res.Stats.InteractionsProcessed)

	for _, name := range []string{"agents_final.csv", "contact_centers_final.csv", "service_categories_final.csv", "interactions_final.csv"} {
		_, err := os.Stat(filepath.Join(cfg.OutDir, name))
		assert.NoError(t, err, name)
	}

	report, err := r.Report()
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, "2025-02", row.Get(models.ReportColumnMonth).Value)
	assert.Equal(t, "2", row.Get(models.ReportColumnTotalCalls).Value)
	assert.Equal(t, "12", row.Get(models.ReportColumnTotalDuration).Value)

	assert.Equal(t, []string{EventRunStarted, EventRunSucceeded}, rec.types())

	runs, err := r.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, 1, runs[0].ReportRows)
}

func TestExecuteETLMonthFilter(t *testing.T) {
	cfg := testConfig(t, false)
	r := newRunner(t, cfg)

	res, err := r.ExecuteETL([]string{"202503"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.BatchesApplied)
	assert.Equal(t, 2, res.Stats.AgentsProcessed)
}

func TestExecuteETLFailureIsLogged(t *testing.T) {
	cfg := testConfig(t, true)
	writeFile(t, filepath.Join(cfg.DataDir, extractors.DeltaDir, "agents_202504.csv"), "agent_id,action\nA1,purge\n")
	r := newRunner(t, cfg)
	rec := newRecorder()
	r.Subscribe(rec.listen)

	_, err := r.ExecuteETL(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// при ошибке итоговые файлы не пишутся
	_, statErr := os.Stat(filepath.Join(cfg.OutDir, "agents_final.csv"))
	assert.True(t, os.IsNotExist(statErr))

	assert.Equal(t, []string{EventRunStarted, EventRunFailed}, rec.types())

	state, err := r.StateMonitor()
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalFailedRuns)
	require.NotNil(t, state.LastFailedRun)
	assert.Contains(t, state.LastFailedRun.ErrorMessage, "purge")
}

func TestExecuteReportUsesSavedTables(t *testing.T) {
	cfg := testConfig(t, false)
	r := newRunner(t, cfg)

	_, err := r.ExecutePipeline(nil)
	require.NoError(t, err)
	_, err = r.Report()
	assert.Error(t, err, "pipeline alone must not write the report")

	res, err := r.ExecuteReport()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Len())

	answers, err := r.Answers()
	require.NoError(t, err)
	require.NotNil(t, answers.LongestAverageCall)
	assert.Equal(t, "Boston MA", answers.LongestAverageCall.ContactCenter)
	assert.InDelta(t, 6.0, answers.LongestAverageCall.AvgCallDuration, 1e-9)
}

func TestRunLogDisabledWithoutDatabase(t *testing.T) {
	r := newRunner(t, testConfig(t, false))

	_, err := r.RecentRuns(5)
	assert.ErrorIs(t, err, ErrRunLogDisabled)
	_, err = r.StateMonitor()
	assert.ErrorIs(t, err, ErrRunLogDisabled)
}

func TestTryExecuteETLRejectsConcurrentRun(t *testing.T) {
	r := newRunner(t, testConfig(t, false))

	r.mu.Lock()
	_, err := r.TryExecuteETL(nil)
	r.mu.Unlock()
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = r.TryExecuteETL(nil)
	assert.NoError(t, err)
}

func TestNewETLRunnerRejectsBadFormat(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Format = "xlsx"

	_, err := NewETLRunner(cfg, utils.NewNopLogger())
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
}

func TestWatchDeltasTriggersRun(t *testing.T) {
	cfg := testConfig(t, false)
	r := newRunner(t, cfg)
	rec := newRecorder()
	r.Subscribe(rec.listen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.WatchDeltas(ctx, 50*time.Millisecond) }()

	// даем наблюдателю подписаться на каталог
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(cfg.DataDir, extractors.DeltaDir, "agents_202505.csv"), "agent_id,name,action\nA7,Gus,add\n")

	deadline := time.After(10 * time.Second)
	for finished := false; !finished; {
		select {
		case e := <-rec.ch:
			if e.Type == EventRunSucceeded {
				assert.Equal(t, 3, e.Stats.BatchesApplied)
				finished = true
			}
		case <-deadline:
			t.Fatal("watcher did not trigger a run")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestStartETLRunsInBackground(t *testing.T) {
	r := newRunner(t, testConfig(t, false))
	rec := newRecorder()
	r.Subscribe(rec.listen)

	require.NoError(t, r.StartETL(nil))

	deadline := time.After(10 * time.Second)
	for finished := false; !finished; {
		select {
		case e := <-rec.ch:
			finished = e.Type == EventRunSucceeded
		case <-deadline:
			t.Fatal("background run did not finish")
		}
	}

	// блокировка снимается после завершения фонового запуска
	assert.Eventually(t, func() bool {
		_, err := r.TryExecuteETL(nil)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStartETLRejectsConcurrentRun(t *testing.T) {
	r := newRunner(t, testConfig(t, false))

	r.mu.Lock()
	err := r.StartETL(nil)
	r.mu.Unlock()
	assert.ErrorIs(t, err, ErrRunInProgress)
}
