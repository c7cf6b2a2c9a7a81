// Package metrics содержит метрики Prometheus конвейера
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal запуски конвейера по виду (pipeline, report) и результату
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "support_etl_runs_total",
		Help: "Total pipeline runs by kind and status",
	}, []string{"kind", "status"})

	// RunDuration длительность запуска
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "support_etl_run_duration_seconds",
		Help:    "Pipeline run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	}, []string{"kind"})

	// BatchesApplied примененные пакеты дельт по таблицам
	BatchesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "support_etl_delta_batches_applied_total",
		Help: "Delta batches applied by table",
	}, []string{"table"})

	// FinalRows строки итоговых таблиц после последнего успешного запуска
	FinalRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "support_etl_final_rows",
		Help: "Row count of each final table after the last successful run",
	}, []string{"table"})

	// ReferencesFixed внешние ключи, замененные заглушкой
	ReferencesFixed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "support_etl_references_fixed_total",
		Help: "Foreign keys rewritten to the missing-reference sentinel",
	}, []string{"column"})

	// ConversionWarnings столбцы временных меток, оставленные без преобразования
	ConversionWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "support_etl_conversion_warnings_total",
		Help: "Timestamp columns left unconverted",
	}, []string{"column"})

	// ReportRows строки отчета после последнего построения
	ReportRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "support_etl_report_rows",
		Help: "Row count of the last built report",
	})
)
