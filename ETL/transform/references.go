package transform

import (
	"github.com/LilVoxy/support_etl/ETL/models"
)

// ReferenceReport количество замененных внешних ключей по столбцам
type ReferenceReport map[string]int

// Total возвращает общее число замен
func (r ReferenceReport) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// ResolveReferences заменяет внешние ключи таблицы фактов, которых нет в итоговых
// измерениях, на заглушку MissingReference. Вызывается после применения всех дельт.
// Отсутствующий в таблице фактов столбец внешнего ключа пропускается.
func ResolveReferences(interactions *models.Table, dimensions map[string]*models.Table, keys []models.ForeignKey) (*models.Table, ReferenceReport) {
	out := interactions.Clone()
	report := make(ReferenceReport, len(keys))

	for _, fk := range keys {
		if !out.HasColumn(fk.Column) {
			continue
		}

		valid := map[string]struct{}{}
		if dim, ok := dimensions[fk.Dimension.Name]; ok && dim != nil {
			valid = dim.IdentitySet(fk.Dimension.IdentityColumn)
		}

		replaced := 0
		for _, row := range out.Rows {
			cell := row.Get(fk.Column)
			if cell.Marker == models.MarkerValue {
				if _, found := valid[cell.Value]; found {
					continue
				}
			}
			if cell.Marker == models.MarkerMissingReference {
				continue
			}
			row[fk.Column] = models.MissingReference()
			replaced++
		}
		report[fk.Column] = replaced
	}

	return out, report
}
