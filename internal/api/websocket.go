// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/rehearsal"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
	wsSendBuffer     = 16
	wsCloseGrace     = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketClient is one connection following a rehearsal session.
type WebSocketClient struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	done      chan struct{}
	closed    int32 // 0=open, 1=closed
	lastPing  atomic.Int64
	createdAt time.Time
}

func newWebSocketClient(conn *websocket.Conn, sessionID string) *WebSocketClient {
	client := &WebSocketClient{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, wsSendBuffer),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	client.UpdatePing()
	return client
}

// Close closes the connection once.
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		close(client.done)
		client.conn.Close()
	}
}

// IsClosed reports whether Close has run.
func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// UpdatePing records a pong from the peer.
func (client *WebSocketClient) UpdatePing() {
	client.lastPing.Store(time.Now().UnixNano())
}

// SendMessage queues message for the writer. A full queue drops it.
func (client *WebSocketClient) SendMessage(message interface{}) bool {
	if client.IsClosed() {
		return false
	}
	data, err := json.Marshal(message)
	if err != nil {
		return false
	}
	select {
	case client.send <- data:
		return true
	case <-client.done:
		return false
	default:
		return false
	}
}

// SendError queues an error message.
func (client *WebSocketClient) SendError(code, message string) {
	client.SendMessage(gin.H{
		"type":      "error",
		"code":      code,
		"error":     message,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// WebSocketManager tracks connected clients per rehearsal session.
type WebSocketManager struct {
	connections map[string]map[*WebSocketClient]bool // sessionID -> clients
	mutex       sync.RWMutex
	logger      *utils.Logger
}

// NewWebSocketManager creates an empty manager.
func NewWebSocketManager(logger *utils.Logger) *WebSocketManager {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &WebSocketManager{
		connections: make(map[string]map[*WebSocketClient]bool),
		logger:      logger,
	}
}

func (manager *WebSocketManager) register(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	if manager.connections[client.sessionID] == nil {
		manager.connections[client.sessionID] = make(map[*WebSocketClient]bool)
	}
	manager.connections[client.sessionID][client] = true
	manager.logger.Info("websocket connected", map[string]interface{}{"session_id": client.sessionID})
}

func (manager *WebSocketManager) unregister(client *WebSocketClient) {
	manager.mutex.Lock()
	if clients, ok := manager.connections[client.sessionID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(manager.connections, client.sessionID)
		}
	}
	manager.mutex.Unlock()

	client.Close()
	manager.logger.Info("websocket disconnected", map[string]interface{}{"session_id": client.sessionID})
}

// Count returns the number of open connections.
func (manager *WebSocketManager) Count() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	total := 0
	for _, clients := range manager.connections {
		total += len(clients)
	}
	return total
}

// GetStatus describes the open connections per session.
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	sessions := make(map[string]interface{})
	total := 0
	for sessionID, clients := range manager.connections {
		infos := make([]map[string]interface{}, 0, len(clients))
		for client := range clients {
			if client.IsClosed() {
				continue
			}
			infos = append(infos, map[string]interface{}{
				"connected_at": client.createdAt.Format(time.RFC3339),
				"last_ping":    time.Unix(0, client.lastPing.Load()).Format(time.RFC3339),
			})
		}
		sessions[sessionID] = map[string]interface{}{
			"client_count": len(infos),
			"clients":      infos,
		}
		total += len(infos)
	}
	return map[string]interface{}{
		"total_sessions":    len(sessions),
		"total_connections": total,
		"sessions":          sessions,
	}
}

// Shutdown closes every connection.
func (manager *WebSocketManager) Shutdown() {
	manager.mutex.Lock()
	connections := manager.connections
	manager.connections = make(map[string]map[*WebSocketClient]bool)
	manager.mutex.Unlock()

	for _, clients := range connections {
		for client := range clients {
			client.Close()
		}
	}
}

// ========================================
// handlers
// ========================================

// RehearsalWebSocket GET /ws/rehearsals/:sid
//
// The client receives {"type":"snapshot"} messages for every state change
// and sends RehearsalCommand messages to drive the session.
func (h *Handler) RehearsalWebSocket(c *gin.Context) {
	sessionID := c.Param("sid")
	updates, err := h.Rehearsals.Subscribe(sessionID)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Rehearsals.Unsubscribe(sessionID, updates)
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}

	client := newWebSocketClient(conn, sessionID)
	h.WebSockets.register(client)

	go h.forwardSnapshots(client, updates)
	go h.writePump(client)
	h.readPump(client)

	h.Rehearsals.Unsubscribe(sessionID, updates)
	h.WebSockets.unregister(client)
}

// WebSocketStatus GET /api/ws/status
func (h *Handler) WebSocketStatus(c *gin.Context) {
	h.Response.Success(c, h.WebSockets.GetStatus())
}

// forwardSnapshots relays session updates until the session or the client
// goes away.
func (h *Handler) forwardSnapshots(client *WebSocketClient, updates <-chan rehearsal.Snapshot) {
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				client.SendMessage(gin.H{"type": "closed"})
				// give the writer a moment to flush
				time.AfterFunc(wsCloseGrace, client.Close)
				return
			}
			client.SendMessage(gin.H{"type": "snapshot", "snapshot": snap})
		case <-client.done:
			return
		}
	}
}

func (h *Handler) writePump(client *WebSocketClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				client.Close()
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}
		case <-client.done:
			return
		}
	}
}

func (h *Handler) readPump(client *WebSocketClient) {
	client.conn.SetReadLimit(wsMaxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", map[string]interface{}{
					"session_id": client.sessionID,
					"error":      err.Error(),
				})
			}
			return
		}

		var cmd models.RehearsalCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			client.SendError(ErrorBadRequest, "Invalid message format")
			continue
		}
		if err := h.applyCommand(client.sessionID, cmd); err != nil {
			client.SendError(commandErrorCode(err), err.Error())
		}
	}
}

func commandErrorCode(err error) string {
	if code := notFoundCode(err); code != ErrorNotFound {
		return code
	}
	return ErrorActionInvalid
}
