package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout фиксированной ширины, чтобы строки сортировались как время
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const selectRunColumns = `
	id, start_time, end_time, status, months, batches_applied,
	agents_processed, contact_centers_processed, service_categories_processed,
	interactions_processed, report_rows, warnings, error_message, execution_time_seconds
`

// SQLETLLogRepository реализация ETLLogRepository поверх database/sql.
// Запросы совместимы с MySQL и SQLite.
type SQLETLLogRepository struct {
	db *sql.DB
}

// NewSQLETLLogRepository создает новый экземпляр SQLETLLogRepository
func NewSQLETLLogRepository(db *sql.DB) *SQLETLLogRepository {
	return &SQLETLLogRepository{
		db: db,
	}
}

// CreateETLLogTable создает таблицу для журнала запусков, если она не существует
func (r *SQLETLLogRepository) CreateETLLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		start_time VARCHAR(40) NOT NULL,
		end_time VARCHAR(40) NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'in_progress',
		months VARCHAR(255) NOT NULL DEFAULT '',
		batches_applied INTEGER DEFAULT 0,
		agents_processed INTEGER DEFAULT 0,
		contact_centers_processed INTEGER DEFAULT 0,
		service_categories_processed INTEGER DEFAULT 0,
		interactions_processed INTEGER DEFAULT 0,
		report_rows INTEGER DEFAULT 0,
		warnings INTEGER DEFAULT 0,
		error_message TEXT NULL,
		execution_time_seconds DOUBLE NULL
	)
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка при создании таблицы etl_run_log: %w", err)
	}

	return nil
}

// CreateLogEntry создает новую запись о запуске
func (r *SQLETLLogRepository) CreateLogEntry(id string, startTime time.Time, months string) error {
	query := `
	INSERT INTO etl_run_log (id, start_time, status, months)
	VALUES (?, ?, 'in_progress', ?)
	`

	if _, err := r.db.Exec(query, id, formatTime(startTime), months); err != nil {
		return fmt.Errorf("ошибка при создании записи о запуске: %w", err)
	}

	return nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении
func (r *SQLETLLogRepository) UpdateLogEntrySuccess(id string, endTime time.Time, stats RunStats) error {
	executionTime, err := r.executionTime(id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		batches_applied = ?,
		agents_processed = ?,
		contact_centers_processed = ?,
		service_categories_processed = ?,
		interactions_processed = ?,
		report_rows = ?,
		warnings = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(
		query,
		formatTime(endTime),
		stats.BatchesApplied,
		stats.AgentsProcessed,
		stats.ContactCentersProcessed,
		stats.ServiceCategoriesProcessed,
		stats.InteractionsProcessed,
		stats.ReportRows,
		stats.Warnings,
		executionTime,
		id,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении
func (r *SQLETLLogRepository) UpdateLogEntryFailure(id string, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionTime(id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	if _, err := r.db.Exec(query, formatTime(endTime), errorMessage, executionTime, id); err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске: %w", err)
	}

	return nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске
func (r *SQLETLLogRepository) GetLastSuccessfulRun() (*ETLRunLog, error) {
	return r.lastRunWithStatus(RunStatusSuccess)
}

// GetRecentRuns возвращает последние запуски, начиная с самого свежего
func (r *SQLETLLogRepository) GetRecentRuns(limit int) ([]ETLRunLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`SELECT `+selectRunColumns+` FROM etl_run_log ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка запусков: %w", err)
	}
	defer rows.Close()

	var logs []ETLRunLog
	for rows.Next() {
		log, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о запуске: %w", err)
		}
		logs = append(logs, *log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по записям о запусках: %w", err)
	}

	return logs, nil
}

// GetETLStateMonitor получает информацию о текущем состоянии конвейера
func (r *SQLETLLogRepository) GetETLStateMonitor() (*ETLStateMonitor, error) {
	lastSuccessful, err := r.lastRunWithStatus(RunStatusSuccess)
	if err != nil {
		return nil, err
	}

	lastFailed, err := r.lastRunWithStatus(RunStatusFailed)
	if err != nil {
		return nil, err
	}

	currentRun, err := r.lastRunWithStatus(RunStatusInProgress)
	if err != nil {
		return nil, err
	}

	var totalSuccess, totalFailed, totalBatches sql.NullInt64
	var avgExecutionTime sql.NullFloat64
	err = r.db.QueryRow(`
		SELECT
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			AVG(CASE WHEN status = 'success' THEN execution_time_seconds ELSE NULL END),
			SUM(CASE WHEN status = 'success' THEN batches_applied ELSE 0 END)
		FROM etl_run_log
	`).Scan(&totalSuccess, &totalFailed, &avgExecutionTime, &totalBatches)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статистики запусков: %w", err)
	}

	return &ETLStateMonitor{
		LastSuccessfulRun:       lastSuccessful,
		LastFailedRun:           lastFailed,
		CurrentRun:              currentRun,
		TotalSuccessfulRuns:     int(totalSuccess.Int64),
		TotalFailedRuns:         int(totalFailed.Int64),
		AvgExecutionTimeSeconds: avgExecutionTime.Float64,
		TotalBatchesApplied:     int(totalBatches.Int64),
	}, nil
}

func (r *SQLETLLogRepository) lastRunWithStatus(status string) (*ETLRunLog, error) {
	row := r.db.QueryRow(`SELECT `+selectRunColumns+` FROM etl_run_log WHERE status = ? ORDER BY start_time DESC LIMIT 1`, status)
	log, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении последнего запуска со статусом %s: %w", status, err)
	}
	return log, nil
}

// executionTime рассчитывает длительность запуска в секундах
func (r *SQLETLLogRepository) executionTime(id string, endTime time.Time) (float64, error) {
	var raw string
	if err := r.db.QueryRow("SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&raw); err != nil {
		return 0, fmt.Errorf("ошибка при получении времени начала запуска %s: %w", id, err)
	}
	startTime, err := time.Parse(timeLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("некорректное время начала запуска %s: %w", id, err)
	}
	return endTime.Sub(startTime).Seconds(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*ETLRunLog, error) {
	var (
		log          ETLRunLog
		startTime    string
		endTime      sql.NullString
		errorMessage sql.NullString
		execTime     sql.NullFloat64
	)
	err := s.Scan(
		&log.ID, &startTime, &endTime, &log.Status, &log.Months, &log.BatchesApplied,
		&log.AgentsProcessed, &log.ContactCentersProcessed, &log.ServiceCategoriesProcessed,
		&log.InteractionsProcessed, &log.ReportRows, &log.Warnings, &errorMessage, &execTime,
	)
	if err != nil {
		return nil, err
	}

	if log.StartTime, err = time.Parse(timeLayout, startTime); err != nil {
		return nil, fmt.Errorf("некорректное время начала: %w", err)
	}
	if endTime.Valid && endTime.String != "" {
		if log.EndTime, err = time.Parse(timeLayout, endTime.String); err != nil {
			return nil, fmt.Errorf("некорректное время завершения: %w", err)
		}
	}
	log.ErrorMessage = errorMessage.String
	log.ExecutionTimeSeconds = execTime.Float64
	return &log, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
