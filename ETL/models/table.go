package models

import (
	"sort"
)

// SentinelValue строковое представление отсутствующих данных в итоговых таблицах
const SentinelValue = "Unknown"

// Marker описывает происхождение значения ячейки
type Marker uint8

const (
	// MarkerValue обычное значение, прочитанное из источника
	MarkerValue Marker = iota
	// MarkerNull значение отсутствует (пустая ячейка, null)
	MarkerNull
	// MarkerMissingField поле не было задано во входящей строке дельты
	MarkerMissingField
	// MarkerMissingReference внешний ключ не найден в актуальном измерении
	MarkerMissingReference
)

func (m Marker) String() string {
	switch m {
	case MarkerValue:
		return "value"
	case MarkerNull:
		return "null"
	case MarkerMissingField:
		return "missing_field"
	case MarkerMissingReference:
		return "missing_reference"
	default:
		return "unknown_marker"
	}
}

// Cell представляет значение одной ячейки таблицы
type Cell struct {
	Value  string
	Marker Marker
}

// Value создает ячейку с обычным значением
func Value(s string) Cell {
	return Cell{Value: s, Marker: MarkerValue}
}

// Null создает пустую ячейку
func Null() Cell {
	return Cell{Marker: MarkerNull}
}

// MissingField создает ячейку-заглушку для незаданного поля
func MissingField() Cell {
	return Cell{Value: SentinelValue, Marker: MarkerMissingField}
}

// MissingReference создает ячейку-заглушку для неразрешенного внешнего ключа
func MissingReference() Cell {
	return Cell{Value: SentinelValue, Marker: MarkerMissingReference}
}

// IsNull сообщает, что значение отсутствует и не заменено заглушкой
func (c Cell) IsNull() bool {
	return c.Marker == MarkerNull
}

// IsSentinel сообщает, что ячейка содержит заглушку "Unknown"
func (c Cell) IsSentinel() bool {
	return c.Marker == MarkerMissingField || c.Marker == MarkerMissingReference
}

// String возвращает текстовое представление ячейки; null превращается в пустую строку
func (c Cell) String() string {
	if c.Marker == MarkerNull {
		return ""
	}
	return c.Value
}

// Row строка таблицы; отсутствующий ключ эквивалентен null
type Row map[string]Cell

// Get возвращает значение столбца или Null, если столбца в строке нет
func (r Row) Get(column string) Cell {
	if c, ok := r[column]; ok {
		return c
	}
	return Null()
}

// Clone возвращает независимую копию строки
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table именованная таблица с упорядоченным набором столбцов
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable создает пустую таблицу с заданными столбцами
func NewTable(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len возвращает количество строк
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn проверяет наличие столбца
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// AddColumns добавляет в конец столбцы, которых еще нет в таблице
func (t *Table) AddColumns(columns ...string) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			t.Columns = append(t.Columns, c)
		}
	}
}

// DropColumn удаляет столбец из схемы и из всех строк
func (t *Table) DropColumn(column string) {
	cols := t.Columns[:0:0]
	for _, c := range t.Columns {
		if c != column {
			cols = append(cols, c)
		}
	}
	t.Columns = cols
	for _, r := range t.Rows {
		delete(r, column)
	}
}

// Append добавляет строку как есть
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Clone возвращает глубокую копию таблицы
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Columns...)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// FillMissing заменяет все null-ячейки по всем столбцам на заданную заглушку
func (t *Table) FillMissing(fill Cell) {
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			if r.Get(c).IsNull() {
				r[c] = fill
			}
		}
	}
}

// IdentitySet возвращает множество реальных значений столбца (без null и заглушек)
func (t *Table) IdentitySet(column string) map[string]struct{} {
	set := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		c := r.Get(column)
		if c.Marker != MarkerValue {
			continue
		}
		set[c.Value] = struct{}{}
	}
	return set
}

// ColumnValues возвращает отсортированный список различных строковых значений столбца
func (t *Table) ColumnValues(column string) []string {
	seen := make(map[string]struct{})
	for _, r := range t.Rows {
		seen[r.Get(column).String()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
