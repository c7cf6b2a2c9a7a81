package models

import (
	"time"
)

// TransformedData содержит итоговые таблицы после слияния дельт, разрешения ссылок
// и преобразования временных меток
type TransformedData struct {
	// Измерения
	Agents            *Table
	ContactCenters    *Table
	ServiceCategories *Table

	// Факты
	Interactions *Table

	// Предупреждения о неудачном преобразовании временных меток
	Warnings []*ConversionWarning

	// Метаданные
	Metadata ETLMetadata
}

// Tables возвращает итоговые таблицы в порядке сохранения
func (d *TransformedData) Tables() []*Table {
	return []*Table{d.Agents, d.ContactCenters, d.ServiceCategories, d.Interactions}
}

// ETLMetadata содержит метаданные о запуске
type ETLMetadata struct {
	RunID             string
	LastRunTimestamp  time.Time
	BatchesApplied    map[string][]string // таблица -> коды YYYYMM примененных пакетов
	ReferencesFixed   map[string]int      // столбец внешнего ключа -> число замененных значений
	ColumnsNormalized []string
}

// TotalBatches возвращает общее число примененных пакетов
func (m ETLMetadata) TotalBatches() int {
	total := 0
	for _, codes := range m.BatchesApplied {
		total += len(codes)
	}
	return total
}
