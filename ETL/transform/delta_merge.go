package transform

import (
	"sort"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// partitionedDelta строки пакета, разложенные по действиям
type partitionedDelta struct {
	deletes map[string]struct{}
	updates []models.Row
	adds    []models.Row
}

// ApplyDelta применяет один пакет дельты к таблице и возвращает новую таблицу.
// Порядок фиксирован: delete, затем update, затем add. Исходная таблица не изменяется.
func ApplyDelta(baseline, delta *models.Table, identityColumn string) (*models.Table, error) {
	parts, err := partitionDelta(delta, identityColumn)
	if err != nil {
		return nil, err
	}

	out := baseline.Clone()
	out.DropColumn(models.ColumnAction)

	if len(parts.deletes) > 0 {
		out.Rows = keepRows(out.Rows, identityColumn, parts.deletes)
	}

	columns := deltaColumns(delta)
	replaceOrInsert(out, parts.updates, identityColumn, columns)
	replaceOrInsert(out, parts.adds, identityColumn, columns)

	return out, nil
}

// ApplyBatches сворачивает упорядоченные пакеты поверх исходной таблицы.
// Пакеты сортируются по коду месяца перед применением.
func ApplyBatches(baseline *models.Table, batches []models.DeltaBatch, identityColumn string) (*models.Table, error) {
	ordered := make([]models.DeltaBatch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].MonthCode != ordered[j].MonthCode {
			return ordered[i].MonthCode < ordered[j].MonthCode
		}
		return ordered[i].Path < ordered[j].Path
	})

	acc := baseline
	for _, batch := range ordered {
		next, err := ApplyDelta(acc, batch.Data, identityColumn)
		if err != nil {
			return nil, err
		}
		acc = next
	}

	if acc == baseline {
		acc = baseline.Clone()
		acc.DropColumn(models.ColumnAction)
	}
	return acc, nil
}

// replaceOrInsert удаляет строки с совпадающим идентификатором и добавляет новые строки.
// Поля, не заданные во входящих строках, заполняются заглушкой.
func replaceOrInsert(table *models.Table, incoming []models.Row, identityColumn string, columns []string) {
	if len(incoming) == 0 {
		return
	}

	ids := make(map[string]struct{}, len(incoming))
	for _, row := range incoming {
		ids[identityKey(row.Get(identityColumn))] = struct{}{}
	}

	table.Rows = keepRows(table.Rows, identityColumn, ids)
	table.AddColumns(columns...)
	for _, row := range incoming {
		table.Append(row.Clone())
	}
	table.FillMissing(models.MissingField())
}

// partitionDelta проверяет схему пакета и раскладывает строки по действиям.
// Строка с пустым идентификатором не может быть сопоставлена и отклоняет весь пакет.
// Для одного идентификатора в add и update остается последняя строка в порядке файла.
func partitionDelta(delta *models.Table, identityColumn string) (*partitionedDelta, error) {
	if !delta.HasColumn(models.ColumnAction) {
		return nil, &models.SchemaError{Table: delta.Name, Column: models.ColumnAction}
	}
	if !delta.HasColumn(identityColumn) {
		return nil, &models.SchemaError{Table: delta.Name, Column: identityColumn}
	}

	actions := make([]models.Action, len(delta.Rows))
	invalid := make(map[string]struct{})
	var nullRows []int
	for i, row := range delta.Rows {
		if row.Get(identityColumn).IsNull() {
			nullRows = append(nullRows, i+1)
		}
		action, ok := models.ParseAction(row.Get(models.ColumnAction).String())
		if !ok {
			invalid[string(action)] = struct{}{}
			continue
		}
		actions[i] = action
	}
	if len(invalid) > 0 || len(nullRows) > 0 {
		values := make([]string, 0, len(invalid))
		for v := range invalid {
			values = append(values, v)
		}
		sort.Strings(values)
		return nil, &models.ValidationError{Table: delta.Name, Invalid: values, NullIdentityRows: nullRows}
	}

	// последнее вхождение идентификатора среди add/update
	last := make(map[string]int)
	for i, row := range delta.Rows {
		if actions[i] == models.ActionDelete {
			continue
		}
		last[identityKey(row.Get(identityColumn))] = i
	}

	parts := &partitionedDelta{deletes: make(map[string]struct{})}
	for i, row := range delta.Rows {
		key := identityKey(row.Get(identityColumn))
		switch actions[i] {
		case models.ActionDelete:
			parts.deletes[key] = struct{}{}
		case models.ActionUpdate, models.ActionAdd:
			if last[key] != i {
				continue
			}
			clean := row.Clone()
			delete(clean, models.ColumnAction)
			if actions[i] == models.ActionUpdate {
				parts.updates = append(parts.updates, clean)
			} else {
				parts.adds = append(parts.adds, clean)
			}
		}
	}

	return parts, nil
}

// keepRows оставляет строки, идентификатор которых не входит в drop
func keepRows(rows []models.Row, identityColumn string, drop map[string]struct{}) []models.Row {
	kept := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if _, found := drop[identityKey(row.Get(identityColumn))]; found {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// deltaColumns столбцы пакета без action
func deltaColumns(delta *models.Table) []string {
	cols := make([]string, 0, len(delta.Columns))
	for _, c := range delta.Columns {
		if c != models.ColumnAction {
			cols = append(cols, c)
		}
	}
	return cols
}

// identityKey различает null и строку "Unknown" при сравнении идентификаторов
func identityKey(c models.Cell) string {
	if c.IsNull() {
		return "\x00null"
	}
	return c.Value
}
