package websocket

import (
	"net/http"
	"sync"

	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/gorilla/websocket"
)

// Client подписчик на события запусков
type Client struct {
	ID     string
	Socket *websocket.Conn
	Send   chan []byte
}

// Hub рассылает события запусков конвейера всем подключенным клиентам
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// done закрывается, когда Run завершился
	done   chan struct{}
	logger *utils.ETLLogger
}

// Конфигурация WebSocket-соединения
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // дашборды могут открываться с любого источника
	},
}
