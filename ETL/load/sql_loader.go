package load

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

// SQLLoader сохраняет итоговые таблицы и отчет в базу данных (MySQL или SQLite)
type SQLLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewSQLLoader создает новый экземпляр SQLLoader
func NewSQLLoader(db *sql.DB, logger *utils.ETLLogger) *SQLLoader {
	return &SQLLoader{
		db:     db,
		logger: logger,
	}
}

// LoadFinalTables пересоздает таблицы <table>_final; все столбцы текстовые
func (l *SQLLoader) LoadFinalTables(tables []*models.Table) error {
	for _, table := range tables {
		name := FinalTableName(table.Name)
		if err := l.recreateTextTable(name, table.Columns); err != nil {
			return err
		}

		args := make([][]interface{}, 0, len(table.Rows))
		for _, row := range table.Rows {
			values := make([]interface{}, len(table.Columns))
			for i, col := range table.Columns {
				values[i] = nullableText(row.Get(col))
			}
			args = append(args, values)
		}
		if err := l.insertRows(name, table.Columns, args, false); err != nil {
			return err
		}
	}
	return nil
}

// LoadReport полностью заменяет содержимое таблицы support_report в одной транзакции
func (l *SQLLoader) LoadReport(report *models.Table) error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS support_report (
			month VARCHAR(16) NULL,
			contact_center_name VARCHAR(255) NULL,
			department VARCHAR(255) NULL,
			total_interactions INTEGER NOT NULL,
			total_calls INTEGER NOT NULL,
			total_call_duration DOUBLE NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы support_report: %w", err)
	}

	args := make([][]interface{}, 0, len(report.Rows))
	for i, row := range report.Rows {
		values, err := reportValues(row)
		if err != nil {
			return fmt.Errorf("некорректное числовое значение в строке отчета %d: %w", i+1, err)
		}
		args = append(args, values)
	}

	if err := l.insertRows(models.ReportTableName, models.ReportColumns, args, true); err != nil {
		return err
	}
	return nil
}

func (l *SQLLoader) recreateTextTable(name string, columns []string) error {
	if _, err := l.db.Exec("DROP TABLE IF EXISTS " + quoteIdent(name)); err != nil {
		return fmt.Errorf("ошибка при удалении таблицы %s: %w", name, err)
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col) + " TEXT NULL"
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := l.db.Exec(ddl); err != nil {
		return fmt.Errorf("ошибка при создании таблицы %s: %w", name, err)
	}
	return nil
}

// insertRows вставляет строки в одной транзакции; при любой ошибке транзакция откатывается
func (l *SQLLoader) insertRows(name string, columns []string, rows [][]interface{}, truncate bool) error {
	startTime := time.Now()

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	// Начинаем транзакцию
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	if truncate {
		if _, err := tx.Exec("DELETE FROM " + quoteIdent(name)); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка при очистке таблицы %s: %w", name, err)
		}
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при подготовке запроса: %w", err)
	}
	defer stmt.Close()

	processed := 0
	for _, values := range rows {
		if _, err := stmt.Exec(values...); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка при вставке строки в %s: %w", name, err)
		}
		processed++

		if processed%1000 == 0 {
			l.logger.Debug("Загружено %d из %d строк в %s...", processed, len(rows), name)
		}
	}

	// Фиксируем транзакцию
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	l.logger.Info("Загрузка таблицы %s завершена. Загружено записей: %d. Длительность: %v", name, processed, time.Since(startTime))
	return nil
}

func reportValues(row models.Row) ([]interface{}, error) {
	interactions, err := strconv.Atoi(row.Get(models.ReportColumnTotalInteraction).String())
	if err != nil {
		return nil, err
	}
	calls, err := strconv.Atoi(row.Get(models.ReportColumnTotalCalls).String())
	if err != nil {
		return nil, err
	}
	duration, err := strconv.ParseFloat(row.Get(models.ReportColumnTotalDuration).String(), 64)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		nullableText(row.Get(models.ReportColumnMonth)),
		nullableText(row.Get(models.ReportColumnContactCenter)),
		nullableText(row.Get(models.ReportColumnDepartment)),
		interactions,
		calls,
		duration,
	}, nil
}

func nullableText(c models.Cell) sql.NullString {
	if c.IsNull() {
		return sql.NullString{}
	}
	return sql.NullString{String: c.Value, Valid: true}
}

// quoteIdent экранирует имя таблицы или столбца обратными кавычками (MySQL и SQLite)
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
