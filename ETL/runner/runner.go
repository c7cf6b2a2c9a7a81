// Package runner связывает фазы конвейера в запуск: извлечение, преобразование,
// сохранение, построение отчета. Ведет журнал запусков и рассылает события.
package runner

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LilVoxy/support_etl/ETL/config"
	"github.com/LilVoxy/support_etl/ETL/extractors"
	"github.com/LilVoxy/support_etl/ETL/formats"
	"github.com/LilVoxy/support_etl/ETL/load"
	"github.com/LilVoxy/support_etl/ETL/metrics"
	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/transform"
	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/google/uuid"
)

// Виды запусков
const (
	KindPipeline = "pipeline"
	KindReport   = "report"
	KindFull     = "full"
)

var (
	// ErrRunInProgress другой запуск еще не завершен
	ErrRunInProgress = errors.New("запуск конвейера уже выполняется")

	// ErrRunLogDisabled журнал запусков недоступен без базы данных
	ErrRunLogDisabled = errors.New("журнал запусков отключен: база данных не настроена")
)

// RunResult результат запуска
type RunResult struct {
	RunID    string
	Kind     string
	Data     *models.TransformedData
	Report   *models.Table
	Stats    models.RunStats
	Duration time.Duration
}

// ETLRunner управляет запусками конвейера
type ETLRunner struct {
	config      config.PipelineConfig
	db          *sql.DB
	logger      *utils.ETLLogger
	extractor   *extractors.Extractor
	transformer *transform.Transformer
	files       *load.FileLoader
	loadManager *load.LoadManager
	etlLogRepo  models.ETLLogRepository

	// mu не дает двум запускам выполняться одновременно
	mu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewETLRunner создает новый экземпляр ETLRunner
func NewETLRunner(cfg config.PipelineConfig, logger *utils.ETLLogger) (*ETLRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	format, err := formats.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	sourceZone, targetZone, err := cfg.Locations()
	if err != nil {
		return nil, err
	}

	files := load.NewFileLoader(cfg.OutDir, cfg.ReportDir, format, logger)
	loaders := []load.Loader{files}

	r := &ETLRunner{
		config:      cfg,
		logger:      logger,
		extractor:   extractors.NewExtractor(cfg.DataDir, logger),
		transformer: transform.NewTransformer(sourceZone, targetZone, logger),
		files:       files,
	}

	if cfg.Database.Enabled {
		db, err := config.ConnectDatabase(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
		}

		etlLogRepo := models.NewSQLETLLogRepository(db)
		if err := etlLogRepo.CreateETLLogTable(); err != nil {
			config.CloseDatabase(db, logger)
			return nil, fmt.Errorf("ошибка при создании таблицы журнала: %w", err)
		}

		r.db = db
		r.etlLogRepo = etlLogRepo
		loaders = append(loaders, load.NewSQLLoader(db, logger))
	}

	r.loadManager = load.NewLoadManager(logger, loaders...)
	return r, nil
}

// Close закрывает соединение с базой данных
func (r *ETLRunner) Close() {
	r.logger.Info("Завершение работы ETL Runner")
	if r.db != nil {
		config.CloseDatabase(r.db, r.logger)
	}
}

// Config возвращает конфигурацию запуска
func (r *ETLRunner) Config() config.PipelineConfig {
	return r.config
}

// ExecuteETL выполняет конвейер и строит отчет по его результату
func (r *ETLRunner) ExecuteETL(months []string) (*RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execute(KindFull, months, r.fullRun(months))
}

// TryExecuteETL как ExecuteETL, но сразу возвращает ErrRunInProgress, если запуск уже идет
func (r *ETLRunner) TryExecuteETL(months []string) (*RunResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()
	return r.execute(KindFull, months, r.fullRun(months))
}

// StartETL запускает полный конвейер в фоне. Результат приходит событиями.
func (r *ETLRunner) StartETL(months []string) error {
	if !r.mu.TryLock() {
		return ErrRunInProgress
	}
	go func() {
		defer r.mu.Unlock()
		// ошибка уже записана в журнал и разослана событием run_failed
		_, _ = r.execute(KindFull, months, r.fullRun(months))
	}()
	return nil
}

// ExecutePipeline применяет дельты и сохраняет итоговые таблицы без построения отчета
func (r *ETLRunner) ExecutePipeline(months []string) (*RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execute(KindPipeline, months, func(res *RunResult) error {
		return r.pipeline(res, months)
	})
}

// ExecuteReport строит отчет по ранее сохраненным итоговым таблицам
func (r *ETLRunner) ExecuteReport() (*RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execute(KindReport, nil, func(res *RunResult) error {
		data, err := r.files.ReadFinalTables()
		if err != nil {
			return fmt.Errorf("ошибка чтения итоговых таблиц: %w", err)
		}
		res.Data = data
		return r.report(res)
	})
}

// Report возвращает последний сохраненный отчет
func (r *ETLRunner) Report() (*models.Table, error) {
	return r.files.ReadReport()
}

// Answers вычисляет ответы на бизнес-вопросы по сохраненному отчету
func (r *ETLRunner) Answers() (*transform.Answers, error) {
	report, err := r.files.ReadReport()
	if err != nil {
		return nil, err
	}
	return transform.AnswerQuestions(report)
}

// RecentRuns возвращает последние записи журнала запусков
func (r *ETLRunner) RecentRuns(limit int) ([]models.ETLRunLog, error) {
	if r.etlLogRepo == nil {
		return nil, ErrRunLogDisabled
	}
	return r.etlLogRepo.GetRecentRuns(limit)
}

// StateMonitor возвращает сводку по состоянию конвейера
func (r *ETLRunner) StateMonitor() (*models.ETLStateMonitor, error) {
	if r.etlLogRepo == nil {
		return nil, ErrRunLogDisabled
	}
	return r.etlLogRepo.GetETLStateMonitor()
}

// execute оборачивает запуск журналом, метриками и событиями. Вызывается под r.mu.
func (r *ETLRunner) execute(kind string, months []string, fn func(*RunResult) error) (*RunResult, error) {
	startTime := time.Now()
	res := &RunResult{RunID: uuid.NewString(), Kind: kind}
	log := r.logger.With("run_id", res.RunID, "kind", kind)
	log.Info("Запуск конвейера (%s)", kind)

	if r.etlLogRepo != nil {
		if err := r.etlLogRepo.CreateLogEntry(res.RunID, startTime, strings.Join(months, ",")); err != nil {
			log.Error("Ошибка при создании записи в журнале: %v", err)
			return nil, fmt.Errorf("ошибка при создании записи в журнале: %w", err)
		}
	}
	r.emit(Event{Type: EventRunStarted, RunID: res.RunID, Kind: kind, Time: startTime, Months: months})

	err := fn(res)
	endTime := time.Now()
	res.Duration = endTime.Sub(startTime)
	metrics.RunDuration.WithLabelValues(kind).Observe(res.Duration.Seconds())

	if err != nil {
		log.Error("Запуск завершился ошибкой: %v", err)
		metrics.RunsTotal.WithLabelValues(kind, models.RunStatusFailed).Inc()
		if r.etlLogRepo != nil {
			if logErr := r.etlLogRepo.UpdateLogEntryFailure(res.RunID, endTime, err.Error()); logErr != nil {
				log.Error("Ошибка при обновлении записи в журнале: %v", logErr)
			}
		}
		r.emit(Event{Type: EventRunFailed, RunID: res.RunID, Kind: kind, Time: endTime, Error: err.Error()})
		return nil, err
	}

	res.Stats = collectStats(res)
	metrics.RunsTotal.WithLabelValues(kind, models.RunStatusSuccess).Inc()
	if r.etlLogRepo != nil {
		if logErr := r.etlLogRepo.UpdateLogEntrySuccess(res.RunID, endTime, res.Stats); logErr != nil {
			log.Error("Ошибка при обновлении записи в журнале: %v", logErr)
		}
	}

	stats := res.Stats
	r.emit(Event{Type: EventRunSucceeded, RunID: res.RunID, Kind: kind, Time: endTime, Stats: &stats})
	log.Info("Запуск успешно завершен. Длительность: %v", res.Duration)
	return res, nil
}

// pipeline извлечение, преобразование и сохранение итоговых таблиц.
// Файлы пишутся только после успешного преобразования всех таблиц.
func (r *ETLRunner) pipeline(res *RunResult, months []string) error {
	extractedData, err := r.extractor.Extract(months)
	if err != nil {
		return fmt.Errorf("ошибка в фазе Extract: %w", err)
	}

	transformedData, err := r.transformer.Transform(extractedData)
	if err != nil {
		return fmt.Errorf("ошибка в фазе Transform: %w", err)
	}
	transformedData.Metadata.RunID = res.RunID

	if err := r.loadManager.Load(transformedData); err != nil {
		return fmt.Errorf("ошибка в фазе Load: %w", err)
	}

	for table, codes := range transformedData.Metadata.BatchesApplied {
		metrics.BatchesApplied.WithLabelValues(table).Add(float64(len(codes)))
	}
	for column, n := range transformedData.Metadata.ReferencesFixed {
		metrics.ReferencesFixed.WithLabelValues(column).Add(float64(n))
	}
	for _, w := range transformedData.Warnings {
		metrics.ConversionWarnings.WithLabelValues(w.Column).Inc()
	}
	for _, table := range transformedData.Tables() {
		metrics.FinalRows.WithLabelValues(table.Name).Set(float64(table.Len()))
	}

	res.Data = transformedData
	return nil
}

// report строит и сохраняет отчет по res.Data
func (r *ETLRunner) report(res *RunResult) error {
	report, err := r.transformer.BuildReport(res.Data)
	if err != nil {
		return fmt.Errorf("ошибка в фазе Report: %w", err)
	}
	if err := r.loadManager.LoadReport(report); err != nil {
		return fmt.Errorf("ошибка в фазе Report: %w", err)
	}
	metrics.ReportRows.Set(float64(report.Len()))
	res.Report = report
	return nil
}

func (r *ETLRunner) fullRun(months []string) func(*RunResult) error {
	return func(res *RunResult) error {
		if err := r.pipeline(res, months); err != nil {
			return err
		}
		return r.report(res)
	}
}

func collectStats(res *RunResult) models.RunStats {
	var stats models.RunStats
	if data := res.Data; data != nil {
		stats.BatchesApplied = data.Metadata.TotalBatches()
		stats.AgentsProcessed = data.Agents.Len()
		stats.ContactCentersProcessed = data.ContactCenters.Len()
		stats.ServiceCategoriesProcessed = data.ServiceCategories.Len()
		stats.InteractionsProcessed = data.Interactions.Len()
		stats.Warnings = len(data.Warnings)
	}
	stats.ReportRows = res.Report.Len()
	return stats
}
