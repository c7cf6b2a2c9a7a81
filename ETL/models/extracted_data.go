package models

import (
	"time"
)

// ExtractedData содержит исходные снимки таблиц и упорядоченные пакеты дельт
type ExtractedData struct {
	// Baselines исходные таблицы из initial/, ключ - имя таблицы
	Baselines map[string]*Table

	// Deltas пакеты дельт для каждой таблицы в порядке применения
	Deltas map[string][]DeltaBatch

	LastRunTS time.Time
}

// BatchCount возвращает общее число пакетов дельт
func (d *ExtractedData) BatchCount() int {
	total := 0
	for _, batches := range d.Deltas {
		total += len(batches)
	}
	return total
}
