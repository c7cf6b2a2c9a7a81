package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/LilVoxy/support_etl/ETL/config"
	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/runner"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// RunsResponse структура ответа API для журнала запусков
type RunsResponse struct {
	Runs []models.ETLRunLog `json:"runs"`
}

// StartRunResponse ответ на запуск конвейера
type StartRunResponse struct {
	Status string   `json:"status"`
	Months []string `json:"months,omitempty"`
}

// GetRunsHandler возвращает последние запуски: /api/runs?limit=N
func GetRunsHandler(service ETLService, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxRunsLimit {
				http.Error(w, "Неверный параметр limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		runs, err := service.RecentRuns(limit)
		if err != nil {
			writeRunLogError(w, logger, err)
			return
		}
		if runs == nil {
			runs = []models.ETLRunLog{}
		}
		writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
	}
}

// GetRunStateHandler возвращает сводку по состоянию конвейера
func GetRunStateHandler(service ETLService, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := service.StateMonitor()
		if err != nil {
			writeRunLogError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// StartRunHandler запускает конвейер в фоне: POST /api/runs?months=202502,202503
func StartRunHandler(service ETLService, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months := config.ParseMonths(r.URL.Query().Get("months"))
		if err := config.ValidateMonths(months); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := service.StartETL(months); err != nil {
			if errors.Is(err, runner.ErrRunInProgress) {
				http.Error(w, "Запуск конвейера уже выполняется", http.StatusConflict)
				return
			}
			logger.Error("Ошибка при запуске конвейера: %v", err)
			http.Error(w, "Ошибка при запуске конвейера", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusAccepted, StartRunResponse{Status: "accepted", Months: months})
	}
}

func writeRunLogError(w http.ResponseWriter, logger *utils.ETLLogger, err error) {
	if errors.Is(err, runner.ErrRunLogDisabled) {
		http.Error(w, "Журнал запусков отключен", http.StatusServiceUnavailable)
		return
	}
	logger.Error("Ошибка при чтении журнала запусков: %v", err)
	http.Error(w, "Ошибка при чтении журнала запусков", http.StatusInternalServerError)
}
