package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/flybeeper/gps-filter/internal/metrics"
	"github.com/flybeeper/gps-filter/internal/models"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// FilteringEvent сообщение о новом результате фильтрации
type FilteringEvent struct {
	Type      string    `json:"type"`
	Sequence  uint64    `json:"sequence"`
	Path      string    `json:"path"`
	Name      string    `json:"name,omitempty"`
	Segments  int       `json:"segments"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// WebSocketHandler рассылает события фильтрации подключенным клиентам.
// Регистрируется наблюдателем FilterHelper
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	logger   *utils.Logger

	mu       sync.RWMutex
	clients  map[*Client]struct{}
	sequence uint64
}

// Client представляет WebSocket соединение
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	handler *WebSocketHandler
	once    sync.Once
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(logger *utils.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// HandleWebSocket обрабатывает WebSocket подключения
// GET /ws/v1/filtering
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithField("error", err).Error("Failed to upgrade to WebSocket")
		return
	}

	client := &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		handler: h,
	}
	h.registerClient(client)

	h.logger.WithField("client_ip", c.ClientIP()).Info("WebSocket client connected")

	go client.writePump()
	go client.readPump()
}

// OnFinishFiltering рассылает событие всем клиентам. Медленный клиент
// с заполненным буфером отключается
func (h *WebSocketHandler) OnFinishFiltering(file *models.GpxFile) {
	event := FilteringEvent{
		Type:      "filtering_finished",
		Path:      file.Path,
		Name:      file.Name,
		Segments:  file.SegmentsCount(),
		Points:    file.PointsCount(),
		Timestamp: time.Now().UTC(),
	}

	// Очереди клиентов закрываются только под h.mu
	h.mu.Lock()
	h.sequence++
	event.Sequence = h.sequence

	data, err := json.Marshal(event)
	if err != nil {
		h.mu.Unlock()
		h.logger.WithField("error", err).Error("Failed to marshal filtering event")
		return
	}

	var slow []*Client
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.Unlock()

	for _, client := range slow {
		h.logger.Warn("WebSocket client send buffer full, disconnecting")
		metrics.WebSocketErrors.Inc()
		h.unregisterClient(client)
	}
}

// ClientsCount возвращает количество подключенных клиентов
func (h *WebSocketHandler) ClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов
func (h *WebSocketHandler) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.unregisterClient(client)
	}
}

func (h *WebSocketHandler) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	metrics.WebSocketConnections.Inc()
}

// unregisterClient удаляет клиента и закрывает его очередь. Повторный вызов ничего не делает
func (h *WebSocketHandler) unregisterClient(client *Client) {
	client.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, client)
		close(client.send)
		h.mu.Unlock()

		metrics.WebSocketConnections.Dec()
		h.logger.Debug("WebSocket client disconnected")
	})
}

// readPump читает входящие сообщения только для обработки pong и закрытия
func (c *Client) readPump() {
	defer func() {
		c.handler.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.handler.logger.WithField("error", err).Error("WebSocket read error")
			}
			return
		}
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.handler.logger.WithField("error", err).Error("WebSocket write error")
				metrics.WebSocketErrors.Inc()
				return
			}
			metrics.WebSocketMessagesOut.WithLabelValues("filtering_finished").Inc()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketErrors.Inc()
				return
			}
			metrics.WebSocketMessagesOut.WithLabelValues("ping").Inc()
		}
	}
}
