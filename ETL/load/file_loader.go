package load

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LilVoxy/support_etl/ETL/formats"
	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

// FileLoader сохраняет таблицы в файлы выбранного формата
type FileLoader struct {
	outDir    string
	reportDir string
	format    formats.Format
	logger    *utils.ETLLogger
}

// NewFileLoader создает новый экземпляр FileLoader
func NewFileLoader(outDir, reportDir string, format formats.Format, logger *utils.ETLLogger) *FileLoader {
	return &FileLoader{
		outDir:    outDir,
		reportDir: reportDir,
		format:    format,
		logger:    logger,
	}
}

// FinalTablePath путь к файлу <table>_final.<format>
func (l *FileLoader) FinalTablePath(table string) string {
	return filepath.Join(l.outDir, FinalTableName(table)+l.format.Extension())
}

// ReportPath путь к файлу support_report.<format>
func (l *FileLoader) ReportPath() string {
	return filepath.Join(l.reportDir, models.ReportTableName+l.format.Extension())
}

// LoadFinalTables записывает каждую таблицу в <out_dir>/<table>_final.<format>
func (l *FileLoader) LoadFinalTables(tables []*models.Table) error {
	startTime := time.Now()
	if err := os.MkdirAll(l.outDir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога %s: %w", l.outDir, err)
	}

	for _, table := range tables {
		path := l.FinalTablePath(table.Name)
		if err := formats.Write(table, path, l.format); err != nil {
			return err
		}
		l.logger.Debug("Таблица %s сохранена в %s (%d строк)", table.Name, path, table.Len())
	}

	l.logger.Info("Сохранено итоговых таблиц: %d. Длительность: %v", len(tables), time.Since(startTime))
	return nil
}

// LoadReport записывает отчет в <report_dir>/support_report.<format>
func (l *FileLoader) LoadReport(report *models.Table) error {
	if err := os.MkdirAll(l.reportDir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога %s: %w", l.reportDir, err)
	}

	path := l.ReportPath()
	if err := formats.Write(report, path, l.format); err != nil {
		return err
	}
	l.logger.Info("Отчет сохранен в %s (%d строк)", path, report.Len())
	return nil
}

// ReadFinalTables читает ранее сохраненные итоговые таблицы
func (l *FileLoader) ReadFinalTables() (*models.TransformedData, error) {
	read := func(spec models.TableSpec) (*models.Table, error) {
		return formats.Read(l.FinalTablePath(spec.Name), spec.Name)
	}

	data := &models.TransformedData{}
	var err error
	if data.Agents, err = read(models.AgentsTable); err != nil {
		return nil, err
	}
	if data.ContactCenters, err = read(models.ContactCentersTable); err != nil {
		return nil, err
	}
	if data.ServiceCategories, err = read(models.ServiceCategoriesTable); err != nil {
		return nil, err
	}
	if data.Interactions, err = read(models.InteractionsTable); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadReport читает ранее сохраненный отчет
func (l *FileLoader) ReadReport() (*models.Table, error) {
	return formats.Read(l.ReportPath(), models.ReportTableName)
}
