package models

import (
	"time"
)

// Статусы запуска конвейера
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog представляет запись о запуске конвейера
type ETLRunLog struct {
	ID                         string    `json:"id"`
	StartTime                  time.Time `json:"start_time"`
	EndTime                    time.Time `json:"end_time"`
	Status                     string    `json:"status"` // "success", "failed", "in_progress"
	Months                     string    `json:"months,omitempty"`
	BatchesApplied             int       `json:"batches_applied"`
	AgentsProcessed            int       `json:"agents_processed"`
	ContactCentersProcessed    int       `json:"contact_centers_processed"`
	ServiceCategoriesProcessed int       `json:"service_categories_processed"`
	InteractionsProcessed      int       `json:"interactions_processed"`
	ReportRows                 int       `json:"report_rows"`
	Warnings                   int       `json:"warnings"`
	ErrorMessage               string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds       float64   `json:"execution_time_seconds"`
}

// RunStats итоговые счетчики успешного запуска
type RunStats struct {
	BatchesApplied             int `json:"batches_applied"`
	AgentsProcessed            int `json:"agents_processed"`
	ContactCentersProcessed    int `json:"contact_centers_processed"`
	ServiceCategoriesProcessed int `json:"service_categories_processed"`
	InteractionsProcessed      int `json:"interactions_processed"`
	ReportRows                 int `json:"report_rows"`
	Warnings                   int `json:"warnings"`
}

// ETLLogRepository представляет репозиторий для работы с журналом запусков
type ETLLogRepository interface {
	// CreateETLLogTable создает таблицу журнала, если она не существует
	CreateETLLogTable() error

	// CreateLogEntry создает новую запись о запуске
	CreateLogEntry(id string, startTime time.Time, months string) error

	// UpdateLogEntrySuccess обновляет запись при успешном завершении
	UpdateLogEntrySuccess(id string, endTime time.Time, stats RunStats) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении
	UpdateLogEntryFailure(id string, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске
	GetLastSuccessfulRun() (*ETLRunLog, error)

	// GetRecentRuns возвращает последние запуски, начиная с самого свежего
	GetRecentRuns(limit int) ([]ETLRunLog, error)

	// GetETLStateMonitor возвращает сводку по состоянию конвейера
	GetETLStateMonitor() (*ETLStateMonitor, error)
}

// ETLStateMonitor предоставляет информацию о текущем состоянии конвейера
type ETLStateMonitor struct {
	LastSuccessfulRun       *ETLRunLog `json:"last_successful_run"`
	LastFailedRun           *ETLRunLog `json:"last_failed_run,omitempty"`
	CurrentRun              *ETLRunLog `json:"current_run,omitempty"`
	TotalSuccessfulRuns     int        `json:"total_successful_runs"`
	TotalFailedRuns         int        `json:"total_failed_runs"`
	AvgExecutionTimeSeconds float64    `json:"avg_execution_time_seconds"`
	TotalBatchesApplied     int        `json:"total_batches_applied"`
}
