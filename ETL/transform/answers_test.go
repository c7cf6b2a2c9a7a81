package transform

import (
	"errors"
	"testing"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.Table {
	return table(models.ReportTableName, models.ReportColumns,
		[]string{"2025-01", "Boston MA", "Billing", "10", "4", "40"},
		[]string{"2025-01", "Denver CO", "Billing", "5", "5", "25"},
		[]string{"2025-02", "Boston MA", "Tech", "20", "2", "30"},
		[]string{"2025-02", "", "Tech", "7", "1", "100"},
		[]string{"2025-03", "Austin TX", "Tech", "3", "0", "0"},
		[]string{"", "Denver CO", "Tech", "1", "0", "0"},
	)
}

func TestAnswerQuestions(t *testing.T) {
	answers, err := AnswerQuestions(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, []CenterTotal{
		{ContactCenter: "Austin TX", TotalInteractions: 3},
		{ContactCenter: "Boston MA", TotalInteractions: 30},
		{ContactCenter: "Denver CO", TotalInteractions: 6},
	}, answers.InteractionsByCenter)

	require.NotNil(t, answers.BusiestMonth)
	assert.Equal(t, MonthTotal{Month: "2025-02", TotalInteractions: 27}, *answers.BusiestMonth)

	require.NotNil(t, answers.LongestAverageCall)
	assert.Equal(t, "Boston MA", answers.LongestAverageCall.ContactCenter)
	assert.Equal(t, 6, answers.LongestAverageCall.TotalCalls)
	assert.InDelta(t, 70.0/6.0, answers.LongestAverageCall.AvgCallDuration, 1e-9)
}

func TestAnswerQuestionsEmptyReport(t *testing.T) {
	answers, err := AnswerQuestions(models.NewTable(models.ReportTableName, models.ReportColumns...))
	require.NoError(t, err)
	assert.Empty(t, answers.InteractionsByCenter)
	assert.Nil(t, answers.BusiestMonth)
	assert.Nil(t, answers.LongestAverageCall)
}

func TestAnswerQuestionsRejectsForeignTable(t *testing.T) {
	_, err := AnswerQuestions(table("agents", []string{"agent_id"}))
	assert.True(t, errors.Is(err, models.ErrSchema))
}

func TestAnswerQuestionsBadNumber(t *testing.T) {
	report := table(models.ReportTableName, models.ReportColumns,
		[]string{"2025-01", "Boston MA", "Billing", "many", "1", "1"},
	)
	_, err := AnswerQuestions(report)
	assert.Error(t, err)
}
