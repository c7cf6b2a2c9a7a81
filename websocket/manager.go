package websocket

import (
	"context"
	"encoding/json"

	"github.com/LilVoxy/support_etl/ETL/runner"
	"github.com/LilVoxy/support_etl/ETL/utils"
)

// NewHub создает новый Hub
func NewHub(logger *utils.ETLLogger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает подключения и рассылку до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.clientsMu.Unlock()
			h.logger.Info("Рассылка событий остановлена")
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client.ID] = client
			h.clientsMu.Unlock()
			h.logger.Debug("Клиент %s подключился", client.ID)

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Debug("Клиент %s отключился", client.ID)
			}
			h.clientsMu.Unlock()

		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

// send отправляет сообщение всем подключенным клиентам.
// Клиент с переполненной очередью отключается.
func (h *Hub) send(message []byte) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for id, client := range h.clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, id)
			h.logger.Warn("Клиент %s не успевает читать события и отключен", id)
		}
	}
}

// Publish ставит событие запуска в очередь на рассылку. Не блокируется.
func (h *Hub) Publish(event runner.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Ошибка при кодировании события %s: %v", event.Type, err)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Warn("Очередь рассылки переполнена, событие %s запуска %s пропущено", event.Type, event.RunID)
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
