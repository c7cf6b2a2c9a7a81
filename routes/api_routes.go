// Package routes HTTP API сервера отчетов
package routes

import (
	"net/http"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/transform"
	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ETLService операции конвейера, доступные через API
type ETLService interface {
	Report() (*models.Table, error)
	Answers() (*transform.Answers, error)
	RecentRuns(limit int) ([]models.ETLRunLog, error)
	StateMonitor() (*models.ETLStateMonitor, error)
	StartETL(months []string) error
}

// SetupRoutes настраивает все маршруты API и WebSocket
func SetupRoutes(router *mux.Router, service ETLService, events http.HandlerFunc, logger *utils.ETLLogger) {
	// Применяем CORS middleware
	router.Use(CORSMiddleware)

	// WebSocket с событиями запусков
	router.HandleFunc("/ws/runs", events)

	// API отчета
	router.HandleFunc("/api/report", GetReportHandler(service, logger)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/answers", GetAnswersHandler(service, logger)).Methods("GET", "OPTIONS")

	// API запусков
	router.HandleFunc("/api/runs", GetRunsHandler(service, logger)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/runs", StartRunHandler(service, logger)).Methods("POST")
	router.HandleFunc("/api/runs/state", GetRunStateHandler(service, logger)).Methods("GET", "OPTIONS")

	// Метрики Prometheus
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
