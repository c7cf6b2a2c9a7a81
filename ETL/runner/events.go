package runner

import (
	"time"

	"github.com/LilVoxy/support_etl/ETL/models"
)

// Типы событий запуска
const (
	EventRunStarted   = "run_started"
	EventRunSucceeded = "run_succeeded"
	EventRunFailed    = "run_failed"
)

// Event событие жизненного цикла запуска
type Event struct {
	Type   string           `json:"type"`
	RunID  string           `json:"run_id"`
	Kind   string           `json:"kind"`
	Time   time.Time        `json:"time"`
	Months []string         `json:"months,omitempty"`
	Stats  *models.RunStats `json:"stats,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Listener получает события запусков. Вызывается синхронно, не должен блокироваться.
type Listener func(Event)

// Subscribe добавляет получателя событий
func (r *ETLRunner) Subscribe(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *ETLRunner) emit(e Event) {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	for _, l := range r.listeners {
		l(e)
	}
}
