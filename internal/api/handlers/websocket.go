// Package handlers provides HTTP request handlers for the netsweep API.
// This file implements the WebSocket endpoint for real-time sweep
// progress streaming. The tracker feeds the hub through NotifyRun;
// every connected client receives each frame.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anstrom/netsweep/internal/metrics"
	"github.com/anstrom/netsweep/internal/sweep"
)

const (
	// WebSocket configuration constants.
	writeWait       = 10 * time.Second                                   // Time allowed to write a message to the peer
	pongWait        = 60 * time.Second                                   // Time to read next pong message from peer
	pingPeriodRatio = 0.9                                                // Ratio of pongWait for pingPeriod
	pingPeriod      = time.Duration(float64(pongWait) * pingPeriodRatio) // Send pings to peer (must be < pongWait)
	maxMessageSize  = 512                                                // Maximum message size allowed from peer
	bufferSize      = 256                                                // Size of the broadcast channel buffer
)

// Message type constants.
const (
	messageTypeProgress = "sweep_progress"
	messageTypeComplete = "sweep_complete"
)

// WebSocketHandler handles WebSocket connections for sweep progress
// updates.
type WebSocketHandler struct {
	logger   *slog.Logger
	metrics  metrics.MetricsRegistry
	upgrader websocket.Upgrader

	// Connection management
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	shutdown   chan struct{}
	closeOnce  sync.Once
	mutex      sync.RWMutex
}

// SweepUpdateMessage is one progress frame. Frames carry run metadata
// and progress only; results are fetched through the REST endpoints.
type SweepUpdateMessage struct {
	Type      string          `json:"type"`
	ID        uuid.UUID       `json:"id"`
	Kind      sweep.RunKind   `json:"kind"`
	Target    string          `json:"target"`
	Status    sweep.RunStatus `json:"status"`
	Percent   float64         `json:"percent"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewWebSocketHandler creates a new WebSocket handler and starts its
// hub goroutine.
func NewWebSocketHandler(logger *slog.Logger, metricsRegistry metrics.MetricsRegistry) *WebSocketHandler {
	handler := &WebSocketHandler{
		logger:  logger.With("handler", "websocket"),
		metrics: metricsRegistry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The endpoint sits behind API key auth; origin
				// restrictions are left to the CORS configuration.
				return true
			},
		},
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, bufferSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		shutdown:   make(chan struct{}),
	}

	// Start the hub goroutine
	go handler.run()

	return handler
}

// SweepWebSocket handles GET /api/v1/ws - upgrade and stream sweep
// progress frames until the client disconnects.
// SweepWebSocket godoc
// @Summary Sweep progress stream
// @Description Upgrades to a WebSocket and streams sweep_progress and sweep_complete frames for every tracked run
// @Tags Sweeps
// @Success 101
// @Security ApiKeyAuth
// @Router /ws [get]
func (h *WebSocketHandler) SweepWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r)
	h.logger.Info("New WebSocket connection", "request_id", requestID, "remote_addr", r.RemoteAddr)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", "request_id", requestID, "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.shutdown:
		_ = conn.Close()
		return
	}

	h.setupConnection(conn, requestID)
}

// setupConnection configures a WebSocket connection and runs the read
// pump until the connection closes.
func (h *WebSocketHandler) setupConnection(conn *websocket.Conn, requestID string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.shutdown:
		}
		if err := conn.Close(); err != nil {
			h.logger.Debug("Error closing WebSocket connection", "request_id", requestID, "error", err)
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("Failed to set read deadline", "request_id", requestID, "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.readPump(conn, requestID)
}

// run manages client connections and broadcasts.
func (h *WebSocketHandler) run() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-h.shutdown:
			h.logger.Debug("WebSocket hub shutting down")
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

		case conn := <-h.unregister:
			h.mutex.Lock()
			delete(h.clients, conn)
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case message := <-h.broadcast:
			h.broadcastToClients(message)

		case <-ticker.C:
			h.pingClients()
		}
	}
}

// readPump discards client messages until the connection closes. The
// stream is one-way; reads only service pings and detect disconnects.
func (h *WebSocketHandler) readPump(conn *websocket.Conn, requestID string) {
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("WebSocket unexpected close", "request_id", requestID, "error", err)
			}
			return
		}
	}
}

// broadcastToClients sends a message to every connected client.
// Clients that cannot be written to are dropped.
func (h *WebSocketHandler) broadcastToClients(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.logger.Debug("Failed to set write deadline", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("Write failed, closing connection", "error", err)
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}

	recordMetric(h.metrics, "websocket_messages_sent_total", nil)
}

// pingClients sends ping messages to all connected clients.
func (h *WebSocketHandler) pingClients() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.logger.Debug("Failed to set write deadline for ping", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			h.logger.Debug("Ping failed, closing connection", "error", err)
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// NotifyRun converts a tracked run snapshot into a progress frame and
// queues it for broadcast. It is the tracker's notifier callback and
// never blocks; frames are dropped when the broadcast buffer is full.
func (h *WebSocketHandler) NotifyRun(run sweep.Run) {
	messageType := messageTypeProgress
	if run.Status != sweep.RunStatusRunning {
		messageType = messageTypeComplete
	}

	message := SweepUpdateMessage{
		Type:      messageType,
		ID:        run.ID,
		Kind:      run.Kind,
		Target:    run.Target,
		Status:    run.Status,
		Percent:   run.Progress.Percent,
		Completed: run.Progress.Completed,
		Total:     run.Progress.Total,
		Error:     run.Error,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal sweep update", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast channel full, dropping message", "run_id", run.ID)
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close stops the hub and disconnects every client.
func (h *WebSocketHandler) Close() error {
	h.closeOnce.Do(func() {
		close(h.shutdown)
	})

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		if err := conn.Close(); err != nil {
			h.logger.Debug("Error closing client connection", "error", err)
		}
	}
	h.clients = make(map[*websocket.Conn]bool)

	h.logger.Info("WebSocket handler closed")
	return nil
}
