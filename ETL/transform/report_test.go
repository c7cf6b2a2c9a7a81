package transform

import (
	"errors"
	"strconv"
	"testing"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var interactionColumns = []string{"interaction_id", "contact_center_id", "category_id", "channel", "call_duration_minutes", "interaction_end"}

func reportDimensions() (*models.Table, *models.Table) {
	centers := table("contact_centers", []string{"contact_center_id", "contact_center_name"},
		[]string{"C1", "Boston MA"},
		[]string{"C2", "Denver CO"},
	)
	categories := table("service_categories", []string{"category_id", "department"},
		[]string{"S1", "Billing"},
		[]string{"S2", "Tech"},
	)
	return centers, categories
}

func findGroup(t *testing.T, report *models.Table, month, center, department string) models.Row {
	t.Helper()
	for _, row := range report.Rows {
		if row.Get("month").String() == month &&
			row.Get("contact_center_name").String() == center &&
			row.Get("department").String() == department {
			return row
		}
	}
	t.Fatalf("group (%q, %q, %q) not found", month, center, department)
	return nil
}

func TestBuildReportCountsCallsCaseInsensitive(t *testing.T) {
	centers, categories := reportDimensions()
	facts := table("interactions", interactionColumns,
		[]string{"I1", "C1", "S1", "Phone", "5", "2025-02-03 09:15:00-05:00"},
		[]string{"I2", "C1", "S1", "phone", "7", "2025-02-20 10:00:00-05:00"},
		[]string{"I3", "C1", "S1", "chat", "", "2025-02-21 10:00:00-05:00"},
	)

	report, err := BuildReport(centers, categories, facts)
	require.NoError(t, err)
	assert.Equal(t, models.ReportColumns, report.Columns)

	row := findGroup(t, report, "2025-02", "Boston MA", "Billing")
	assert.Equal(t, "3", row.Get("total_interactions").Value)
	assert.Equal(t, "2", row.Get("total_calls").Value)
	assert.Equal(t, "12", row.Get("total_call_duration").Value)
}

func TestBuildReportKeepsUnresolvedRowsInNullGroup(t *testing.T) {
	centers, categories := reportDimensions()
	facts := table("interactions", interactionColumns,
		[]string{"I1", "C1", "S1", "phone", "5", "2025-01-10 09:00:00-05:00"},
		[]string{"I2", "C9", "S2", "email", "0", "2025-01-11 09:00:00-05:00"},
		[]string{"I3", "C2", "S2", "phone", "2.5", ""},
	)
	facts.Rows[1]["contact_center_id"] = models.MissingReference()

	report, err := BuildReport(centers, categories, facts)
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)

	unknown := findGroup(t, report, "2025-01", "", "Tech")
	assert.True(t, unknown.Get("contact_center_name").IsNull())
	assert.Equal(t, "1", unknown.Get("total_interactions").Value)

	noMonth := findGroup(t, report, "", "Denver CO", "Tech")
	assert.True(t, noMonth.Get("month").IsNull())
	assert.Equal(t, "2.5", noMonth.Get("total_call_duration").Value)

	// null-группы идут после заполненных
	assert.Equal(t, "Boston MA", report.Rows[0].Get("contact_center_name").Value)
	assert.True(t, report.Rows[2].Get("month").IsNull())
}

func TestBuildReportTotalMatchesFactRows(t *testing.T) {
	centers, categories := reportDimensions()
	facts := table("interactions", interactionColumns,
		[]string{"I1", "C1", "S1", "phone", "5", "2025-01-10"},
		[]string{"I2", "C2", "S1", "phone", "abc", "2025-02-10"},
		[]string{"I3", "C2", "S2", "chat", "1", "2025-03-10"},
		[]string{"I4", "", "", "", "", ""},
		[]string{"I5", "C1", "S9", "PHONE", "4", "2025-03-31"},
	)

	report, err := BuildReport(centers, categories, facts)
	require.NoError(t, err)

	total := 0
	for _, row := range report.Rows {
		n, err := strconv.Atoi(row.Get("total_interactions").Value)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, facts.Len(), total)
}

func TestBuildReportRequiresInteractionEnd(t *testing.T) {
	centers, categories := reportDimensions()
	facts := table("interactions", []string{"interaction_id", "channel"}, []string{"I1", "phone"})

	_, err := BuildReport(centers, categories, facts)
	var se *models.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "interaction_end", se.Column)
}

func TestBuildReportFirstDimensionRowWins(t *testing.T) {
	centers := table("contact_centers", []string{"contact_center_id", "contact_center_name"},
		[]string{"C1", "First"},
		[]string{"C1", "Second"},
	)
	_, categories := reportDimensions()
	facts := table("interactions", interactionColumns, []string{"I1", "C1", "S1", "phone", "1", "2025-01-01"})

	report, err := BuildReport(centers, categories, facts)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "First", report.Rows[0].Get("contact_center_name").Value)
}
