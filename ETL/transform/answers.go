package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// CenterTotal число взаимодействий контакт-центра
type CenterTotal struct {
	ContactCenter     string `json:"contact_center_name"`
	TotalInteractions int    `json:"total_interactions"`
}

// MonthTotal число взаимодействий за месяц
type MonthTotal struct {
	Month             string `json:"month"`
	TotalInteractions int    `json:"total_interactions"`
}

// CenterAverage средняя длительность звонка контакт-центра
type CenterAverage struct {
	ContactCenter     string  `json:"contact_center_name"`
	TotalCallDuration float64 `json:"total_call_duration"`
	TotalCalls        int     `json:"total_calls"`
	AvgCallDuration   float64 `json:"avg_call_duration"`
}

// Answers ответы на бизнес-вопросы по отчету
type Answers struct {
	// Q1: взаимодействия по контакт-центрам
	InteractionsByCenter []CenterTotal `json:"interactions_by_center"`
	// Q2: месяц с наибольшим числом взаимодействий
	BusiestMonth *MonthTotal `json:"busiest_month"`
	// Q3: контакт-центр с самой долгой средней длительностью звонка
	LongestAverageCall *CenterAverage `json:"longest_average_call"`
}

// AnswerQuestions вычисляет ответы, используя только столбцы отчета.
// Группы с пустым контакт-центром или месяцем не учитываются.
func AnswerQuestions(report *models.Table) (*Answers, error) {
	for _, col := range []string{
		models.ReportColumnMonth,
		models.ReportColumnContactCenter,
		models.ReportColumnTotalInteraction,
		models.ReportColumnTotalCalls,
		models.ReportColumnTotalDuration,
	} {
		if !report.HasColumn(col) {
			return nil, &models.SchemaError{Table: report.Name, Column: col}
		}
	}

	byCenter := make(map[string]*CenterAverage)
	centerTotals := make(map[string]int)
	monthTotals := make(map[string]int)

	for i, row := range report.Rows {
		interactions, err := reportInt(row.Get(models.ReportColumnTotalInteraction))
		if err != nil {
			return nil, fmt.Errorf("строка отчета %d: %w", i+1, err)
		}
		calls, err := reportInt(row.Get(models.ReportColumnTotalCalls))
		if err != nil {
			return nil, fmt.Errorf("строка отчета %d: %w", i+1, err)
		}
		duration := parseDuration(row.Get(models.ReportColumnTotalDuration))

		if month := row.Get(models.ReportColumnMonth); !month.IsNull() {
			monthTotals[month.Value] += interactions
		}

		center := row.Get(models.ReportColumnContactCenter)
		if center.IsNull() {
			continue
		}
		centerTotals[center.Value] += interactions
		avg, ok := byCenter[center.Value]
		if !ok {
			avg = &CenterAverage{ContactCenter: center.Value}
			byCenter[center.Value] = avg
		}
		avg.TotalCalls += calls
		avg.TotalCallDuration += duration
	}

	answers := &Answers{InteractionsByCenter: make([]CenterTotal, 0, len(centerTotals))}
	for name, total := range centerTotals {
		answers.InteractionsByCenter = append(answers.InteractionsByCenter, CenterTotal{ContactCenter: name, TotalInteractions: total})
	}
	sort.Slice(answers.InteractionsByCenter, func(i, j int) bool {
		return answers.InteractionsByCenter[i].ContactCenter < answers.InteractionsByCenter[j].ContactCenter
	})

	for _, month := range sortedKeys(monthTotals) {
		total := monthTotals[month]
		if answers.BusiestMonth == nil || total > answers.BusiestMonth.TotalInteractions {
			answers.BusiestMonth = &MonthTotal{Month: month, TotalInteractions: total}
		}
	}

	names := make([]string, 0, len(byCenter))
	for name := range byCenter {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		avg := byCenter[name]
		if avg.TotalCalls == 0 {
			continue
		}
		avg.AvgCallDuration = avg.TotalCallDuration / float64(avg.TotalCalls)
		if answers.LongestAverageCall == nil || avg.AvgCallDuration > answers.LongestAverageCall.AvgCallDuration {
			answers.LongestAverageCall = avg
		}
	}

	return answers, nil
}

func reportInt(c models.Cell) (int, error) {
	if c.Marker != models.MarkerValue {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("ожидается число, получено %q", c.Value)
	}
	return int(v), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
