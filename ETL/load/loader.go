package load

import (
	"github.com/LilVoxy/support_etl/ETL/models"
)

// Loader интерфейс для сохранения итоговых таблиц и отчета
type Loader interface {
	// LoadFinalTables сохраняет итоговые таблицы после слияния дельт
	LoadFinalTables(tables []*models.Table) error

	// LoadReport сохраняет отчет, полностью заменяя предыдущий
	LoadReport(report *models.Table) error
}

// FinalTableName имя итоговой таблицы (<table>_final)
func FinalTableName(table string) string {
	return table + "_final"
}
