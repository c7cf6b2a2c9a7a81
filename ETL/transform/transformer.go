package transform

import (
	"fmt"
	"time"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

// Transformer координирует слияние дельт, разрешение ссылок и преобразование временных меток
type Transformer struct {
	sourceZone *time.Location
	targetZone *time.Location
	logger     *utils.ETLLogger
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(sourceZone, targetZone *time.Location, logger *utils.ETLLogger) *Transformer {
	return &Transformer{
		sourceZone: sourceZone,
		targetZone: targetZone,
		logger:     logger,
	}
}

// Transform выполняет полный процесс преобразования: сначала все дельты для всех таблиц,
// затем разрешение внешних ключей по итоговым измерениям, затем временные метки.
func (t *Transformer) Transform(extractedData *models.ExtractedData) (*models.TransformedData, error) {
	startTime := time.Now()
	t.logger.LogPhaseStart("Transform")

	metadata := models.ETLMetadata{
		LastRunTimestamp: time.Now(),
		BatchesApplied:   make(map[string][]string),
	}

	// 1. Применение дельт
	merged := make(map[string]*models.Table, len(extractedData.Baselines))
	for _, spec := range models.TableSpecs() {
		baseline, ok := extractedData.Baselines[spec.Name]
		if !ok {
			return nil, fmt.Errorf("нет исходной таблицы %s", spec.Name)
		}

		batches := extractedData.Deltas[spec.Name]
		t.logger.Info("Применение дельт к таблице %s: %d пакетов", spec.Name, len(batches))
		table, err := ApplyBatches(baseline, batches, spec.IdentityColumn)
		if err != nil {
			t.logger.Error("Ошибка при применении дельт к таблице %s: %v", spec.Name, err)
			return nil, fmt.Errorf("ошибка применения дельт к таблице %s: %w", spec.Name, err)
		}
		merged[spec.Name] = table

		codes := make([]string, 0, len(batches))
		for _, b := range batches {
			codes = append(codes, b.MonthCode)
		}
		metadata.BatchesApplied[spec.Name] = codes
		t.logger.Debug("Таблица %s после слияния: %d строк", spec.Name, table.Len())
	}

	// 2. Разрешение внешних ключей по итоговым измерениям
	interactions, fixed := ResolveReferences(merged[models.InteractionsTable.Name], merged, models.InteractionForeignKeys)
	metadata.ReferencesFixed = fixed
	if fixed.Total() > 0 {
		t.logger.Info("Заменено неразрешенных внешних ключей: %d", fixed.Total())
	}

	// 3. Временные метки
	normalized := NormalizeTimestamps(interactions, models.TimestampColumns, t.sourceZone, t.targetZone)
	for _, w := range normalized.Warnings {
		t.logger.Warn("Столбец %s.%s оставлен без изменений: %v", w.Table, w.Column, w.Err)
	}
	metadata.ColumnsNormalized = normalized.Converted

	transformedData := &models.TransformedData{
		Agents:            merged[models.AgentsTable.Name],
		ContactCenters:    merged[models.ContactCentersTable.Name],
		ServiceCategories: merged[models.ServiceCategoriesTable.Name],
		Interactions:      normalized.Table,
		Warnings:          normalized.Warnings,
		Metadata:          metadata,
	}

	t.logger.LogPhaseComplete("Transform", startTime)
	return transformedData, nil
}

// BuildReport формирует отчет по итоговым таблицам
func (t *Transformer) BuildReport(data *models.TransformedData) (*models.Table, error) {
	startTime := time.Now()
	t.logger.LogPhaseStart("Report")

	report, err := BuildReport(data.ContactCenters, data.ServiceCategories, data.Interactions)
	if err != nil {
		t.logger.Error("Ошибка при формировании отчета: %v", err)
		return nil, fmt.Errorf("ошибка формирования отчета: %w", err)
	}

	t.logger.Info("Строк в отчете: %d", report.Len())
	t.logger.LogPhaseComplete("Report", startTime)
	return report, nil
}
