package routes

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/LilVoxy/support_etl/ETL/models"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

// ReportResponse структура ответа API для отчета
type ReportResponse struct {
	Columns []string             `json:"columns"`
	Rows    []map[string]*string `json:"rows"`
}

// GetReportHandler возвращает последний сохраненный отчет
func GetReportHandler(service ETLService, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := service.Report()
		if err != nil {
			writeReadError(w, logger, "отчет", err)
			return
		}
		writeJSON(w, http.StatusOK, tableResponse(report))
	}
}

// GetAnswersHandler возвращает ответы на бизнес-вопросы по сохраненному отчету
func GetAnswersHandler(service ETLService, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, err := service.Answers()
		if err != nil {
			writeReadError(w, logger, "ответы", err)
			return
		}
		writeJSON(w, http.StatusOK, answers)
	}
}

// writeReadError 404, пока отчет еще не построен
func writeReadError(w http.ResponseWriter, logger *utils.ETLLogger, what string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "Отчет еще не построен", http.StatusNotFound)
		return
	}
	logger.Error("Ошибка при чтении (%s): %v", what, err)
	http.Error(w, "Ошибка при чтении отчета", http.StatusInternalServerError)
}

// tableResponse null-ячейки кодируются как JSON null
func tableResponse(t *models.Table) ReportResponse {
	resp := ReportResponse{
		Columns: t.Columns,
		Rows:    make([]map[string]*string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		out := make(map[string]*string, len(t.Columns))
		for _, col := range t.Columns {
			cell := row.Get(col)
			if cell.IsNull() {
				out[col] = nil
				continue
			}
			value := cell.String()
			out[col] = &value
		}
		resp.Rows = append(resp.Rows, out)
	}
	return resp
}
