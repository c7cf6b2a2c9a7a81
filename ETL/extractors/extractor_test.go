package extractors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

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

func seedBaselines(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, InitialDir, "agents.csv"), "agent_id,name\nA1,Ann\n")
	writeFile(t, filepath.Join(dir, InitialDir, "contact_centers.csv"), "contact_center_id,contact_center_name\nC1,North\n")
	writeFile(t, filepath.Join(dir, InitialDir, "service_categories.csv"), "category_id,department\nS1,Billing\n")
	writeFile(t, filepath.Join(dir, InitialDir, "interactions.csv"), "interaction_id,agent_id,contact_center_id,category_id\nI1,A1,C1,S1\n")
}

func TestParseMonthCode(t *testing.T) {
	cases := map[string]struct {
		code string
		ok   bool
	}{
		"agents_202401.csv":                          {"202401", true},
		"/data/delta/service_categories_202312.json": {"202312", true},
		"agents_202413.csv":                          {"", false},
		"agents_2024.csv":                            {"", false},
		"agents_latest.csv":                          {"", false},
		"agents.csv":                                 {"", false},
	}
	for path, want := range cases {
		code, ok := ParseMonthCode(path)
		assert.Equal(t, want.ok, ok, path)
		assert.Equal(t, want.code, code, path)
	}
}

func TestDiscoverDeltasOrdersByMonthCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202403.csv"), "agent_id,action\n")
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202401.json"), "[]")
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202402.csv"), "agent_id,action\n")
	writeFile(t, filepath.Join(dir, DeltaDir, "interactions_202401.csv"), "interaction_id,action\n")
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_notes.txt"), "ignored")

	e := NewExtractor(dir, utils.NewNopLogger())
	refs, err := e.DiscoverDeltas(models.AgentsTable, nil)
	require.NoError(t, err)

	codes := make([]string, 0, len(refs))
	for _, r := range refs {
		codes = append(codes, r.MonthCode)
	}
	assert.Equal(t, []string{"202401", "202402", "202403"}, codes)
}

func TestDiscoverDeltasMonthFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202401.csv"), "agent_id,action\n")
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202402.csv"), "agent_id,action\n")
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_final.csv"), "agent_id,action\n")

	e := NewExtractor(dir, utils.NewNopLogger())
	refs, err := e.DiscoverDeltas(models.AgentsTable, []string{"202402", "202405"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "202402", refs[0].MonthCode)
}

func TestDiscoverDeltasRejectsBadNameWithoutFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202401.csv"), "agent_id,action\n")
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_final.csv"), "agent_id,action\n")

	e := NewExtractor(dir, utils.NewNopLogger())
	_, err := e.DiscoverDeltas(models.AgentsTable, nil)
	require.Error(t, err)

	var bne *models.BatchNameError
	require.True(t, errors.As(err, &bne))
	assert.Equal(t, "agents_final.csv", filepath.Base(bne.Path))
}

func TestDiscoverDeltasWithoutDeltaDir(t *testing.T) {
	e := NewExtractor(t.TempDir(), utils.NewNopLogger())
	refs, err := e.DiscoverDeltas(models.AgentsTable, nil)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestExtractLoadsBaselinesAndBatches(t *testing.T) {
	dir := t.TempDir()
	seedBaselines(t, dir)
	writeFile(t, filepath.Join(dir, DeltaDir, "agents_202401.csv"), "agent_id,name,action\nA2,Bob,add\n")

	e := NewExtractor(dir, utils.NewNopLogger())
	data, err := e.Extract(nil)
	require.NoError(t, err)

	assert.Len(t, data.Baselines, 4)
	assert.Equal(t, 1, data.Baselines[models.AgentsTable.Name].Len())
	require.Len(t, data.Deltas[models.AgentsTable.Name], 1)
	batch := data.Deltas[models.AgentsTable.Name][0]
	assert.Equal(t, "202401", batch.MonthCode)
	assert.Equal(t, "Bob", batch.Data.Rows[0].Get("name").Value)
	assert.Equal(t, 1, data.BatchCount())
}

func TestExtractRequiresIdentityColumn(t *testing.T) {
	dir := t.TempDir()
	seedBaselines(t, dir)
	writeFile(t, filepath.Join(dir, InitialDir, "agents.csv"), "name\nAnn\n")

	e := NewExtractor(dir, utils.NewNopLogger())
	_, err := e.Extract(nil)
	require.Error(t, err)

	var se *models.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "agent_id", se.Column)
}

func TestExtractMissingBaseline(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, InitialDir, "agents.csv"), "agent_id\nA1\n")

	e := NewExtractor(dir, utils.NewNopLogger())
	_, err := e.Extract(nil)
	assert.Error(t, err)
}
