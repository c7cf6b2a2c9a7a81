package load

import (
	"fmt"
	"time"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

// LoadManager отвечает за управление процессом сохранения результатов
type LoadManager struct {
	logger  *utils.ETLLogger
	loaders []Loader
}

// NewLoadManager создает новый экземпляр LoadManager.
// Загрузчики вызываются в переданном порядке.
func NewLoadManager(logger *utils.ETLLogger, loaders ...Loader) *LoadManager {
	return &LoadManager{
		logger:  logger,
		loaders: loaders,
	}
}

// Load выполняет фазу сохранения итоговых таблиц.
// Принимает обработанные данные из фазы Transform.
func (m *LoadManager) Load(transformedData *models.TransformedData) error {
	startTime := time.Now()
	m.logger.LogPhaseStart("Load")

	tables := transformedData.Tables()
	for _, loader := range m.loaders {
		if err := loader.LoadFinalTables(tables); err != nil {
			m.logger.Error("Ошибка при сохранении итоговых таблиц: %v", err)
			return fmt.Errorf("ошибка при сохранении итоговых таблиц: %w", err)
		}
	}

	m.logger.LogPhaseComplete("Load", startTime)
	return nil
}

// LoadReport сохраняет отчет всеми загрузчиками
func (m *LoadManager) LoadReport(report *models.Table) error {
	for _, loader := range m.loaders {
		if err := loader.LoadReport(report); err != nil {
			m.logger.Error("Ошибка при сохранении отчета: %v", err)
			return fmt.Errorf("ошибка при сохранении отчета: %w", err)
		}
	}
	return nil
}
