package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// TimestampLayout формат преобразованных временных меток.
// Доли секунды печатаются только если они есть.
const TimestampLayout = "2006-01-02 15:04:05.999999999-07:00"

// Форматы со смещением зоны
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-0700",
}

// Форматы без зоны; значения трактуются как время исходной зоны
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NormalizeResult итог преобразования временных меток таблицы
type NormalizeResult struct {
	Table     *models.Table
	Converted []string
	Warnings  []*models.ConversionWarning
}

// NormalizeTimestamps переводит значения указанных столбцов из зоны source в зону target.
// Отсутствующий столбец пропускается. Если хотя бы одно значение столбца не разбирается,
// столбец остается без изменений и возвращается предупреждение; остальные столбцы
// преобразуются как обычно.
func NormalizeTimestamps(table *models.Table, columns []string, source, target *time.Location) *NormalizeResult {
	result := &NormalizeResult{Table: table.Clone()}

	for _, col := range columns {
		if !result.Table.HasColumn(col) {
			continue
		}

		converted, warning := convertColumn(result.Table, col, source, target)
		if warning != nil {
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		for i, row := range result.Table.Rows {
			if v, ok := converted[i]; ok {
				row[col] = models.Value(v)
			}
		}
		result.Converted = append(result.Converted, col)
	}

	return result
}

// convertColumn возвращает новые значения по индексам строк; null и заглушки не трогаются
func convertColumn(table *models.Table, col string, source, target *time.Location) (map[int]string, *models.ConversionWarning) {
	converted := make(map[int]string, len(table.Rows))
	for i, row := range table.Rows {
		cell := row.Get(col)
		if cell.Marker != models.MarkerValue {
			continue
		}
		ts, err := ParseTimestamp(cell.Value, source)
		if err != nil {
			return nil, &models.ConversionWarning{Table: table.Name, Column: col, Value: cell.Value, Err: err}
		}
		converted[i] = ts.In(target).Format(TimestampLayout)
	}
	return converted, nil
}

// ParseTimestamp разбирает временную метку; значение без смещения считается временем зоны loc
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("неизвестный формат временной метки %q", raw)
}
