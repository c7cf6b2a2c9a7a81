package transform

import (
	"sort"
	"strconv"
	"strings"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// callChannel значение channel, которое считается телефонным звонком
const callChannel = "phone"

// reportGroup накопитель одной группы отчета
type reportGroup struct {
	month      models.Cell
	center     models.Cell
	department models.Cell

	interactions int
	calls        int
	duration     float64
}

// BuildReport соединяет взаимодействия с названиями контакт-центров и отделами
// и агрегирует их по (month, contact_center_name, department).
// Строки без совпадения в измерении попадают в группу с пустым ключом.
func BuildReport(contactCenters, serviceCategories, interactions *models.Table) (*models.Table, error) {
	if !interactions.HasColumn(models.ColumnInteractionEnd) {
		return nil, &models.SchemaError{Table: interactions.Name, Column: models.ColumnInteractionEnd}
	}

	centerNames := lookupColumn(contactCenters, models.ContactCentersTable.IdentityColumn, models.ColumnContactCenterName)
	departments := lookupColumn(serviceCategories, models.ServiceCategoriesTable.IdentityColumn, models.ColumnDepartment)

	groups := make(map[string]*reportGroup)
	for _, row := range interactions.Rows {
		month := monthBucket(row.Get(models.ColumnInteractionEnd))
		center := joinCell(centerNames, row.Get(models.ContactCentersTable.IdentityColumn))
		department := joinCell(departments, row.Get(models.ServiceCategoriesTable.IdentityColumn))

		key := groupKey(month) + "\x1f" + groupKey(center) + "\x1f" + groupKey(department)
		g, ok := groups[key]
		if !ok {
			g = &reportGroup{month: month, center: center, department: department}
			groups[key] = g
		}

		g.interactions++
		if isCall(row.Get(models.ColumnChannel)) {
			g.calls++
		}
		g.duration += parseDuration(row.Get(models.ColumnCallDuration))
	}

	ordered := make([]*reportGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if c := compareNullsLast(a.month, b.month); c != 0 {
			return c < 0
		}
		if c := compareNullsLast(a.center, b.center); c != 0 {
			return c < 0
		}
		return compareNullsLast(a.department, b.department) < 0
	})

	report := models.NewTable(models.ReportTableName, models.ReportColumns...)
	for _, g := range ordered {
		report.Append(models.Row{
			models.ReportColumnMonth:            g.month,
			models.ReportColumnContactCenter:    g.center,
			models.ReportColumnDepartment:       g.department,
			models.ReportColumnTotalInteraction: models.Value(strconv.Itoa(g.interactions)),
			models.ReportColumnTotalCalls:       models.Value(strconv.Itoa(g.calls)),
			models.ReportColumnTotalDuration:    models.Value(FormatNumber(g.duration)),
		})
	}

	return report, nil
}

// monthBucket первые 7 символов interaction_end (YYYY-MM); null остается null
func monthBucket(end models.Cell) models.Cell {
	if end.IsNull() {
		return models.Null()
	}
	value := end.Value
	if len(value) > 7 {
		value = value[:7]
	}
	return models.Cell{Value: value, Marker: end.Marker}
}

func isCall(channel models.Cell) bool {
	return !channel.IsNull() && strings.ToLower(channel.Value) == callChannel
}

// parseDuration нечисловая или пустая длительность считается нулевой
func parseDuration(c models.Cell) float64 {
	if c.Marker != models.MarkerValue {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0
	}
	return v
}

// lookupColumn индекс id -> значение столбца; при повторе идентификатора берется первая строка
func lookupColumn(table *models.Table, idColumn, valueColumn string) map[string]models.Cell {
	index := make(map[string]models.Cell)
	if table == nil {
		return index
	}
	for _, row := range table.Rows {
		id := row.Get(idColumn)
		if id.Marker != models.MarkerValue {
			continue
		}
		if _, seen := index[id.Value]; seen {
			continue
		}
		index[id.Value] = row.Get(valueColumn)
	}
	return index
}

// joinCell левое соединение по внешнему ключу; заглушка и неизвестный ключ дают null
func joinCell(index map[string]models.Cell, fk models.Cell) models.Cell {
	if fk.Marker != models.MarkerValue {
		return models.Null()
	}
	if v, ok := index[fk.Value]; ok {
		return v
	}
	return models.Null()
}

func groupKey(c models.Cell) string {
	if c.IsNull() {
		return "\x00"
	}
	return "v" + c.Value
}

func compareNullsLast(a, b models.Cell) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	default:
		return strings.Compare(a.Value, b.Value)
	}
}

// FormatNumber печатает число без лишних нулей (12, 12.5)
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
