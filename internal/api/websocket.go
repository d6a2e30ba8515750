package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"arena-siege/internal/game"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// DefaultBroadcastInterval is how often the hub checks for a new status
	DefaultBroadcastInterval = 100 * time.Millisecond

	writeWait = 5 * time.Second
)

// StatusSource supplies published match status
type StatusSource interface {
	Snapshot() *game.Status
}

// Message is the envelope pushed to clients
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// WebSocketHub manages all WebSocket connections with DoS protection
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter
	logger    zerolog.Logger
}

// NewWebSocketHub creates a hub that accepts upgrades from origins allowed by policy
func NewWebSocketHub(policy *OriginPolicy, logger zerolog.Logger) *WebSocketHub {
	if policy == nil {
		policy = NewOriginPolicy(nil)
	}
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if policy.Allowed(origin) {
				return true
			}
			h.logger.Warn().Str("origin", origin).Msg("websocket origin rejected")
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run serves registrations and broadcasts until Stop
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Debug().Str("ip", client.ip).Int("clients", count).Msg("client connected")
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(conn)
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Debug().Int("clients", count).Msg("client disconnected")
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.removeLocked(conn)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)
			IncrementWSMessages()
		}
	}
}

// removeLocked drops conn and frees its IP slot. Caller holds h.mu.
func (h *WebSocketHub) removeLocked(conn *websocket.Conn) {
	client, ok := h.clients[conn]
	if !ok {
		return
	}
	h.wsLimiter.Release(client.ip)
	delete(h.clients, conn)
	conn.Close()
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.removeLocked(conn)
	}
	UpdateWSConnections(0)
}

// Stop closes every connection and ends Run and the broadcast loop
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast queues an event for every connected client. Drops the message
// when the queue is full.
func (h *WebSocketHub) Broadcast(event string, data interface{}) bool {
	jsonBytes, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("broadcast encode failed")
		return false
	}

	select {
	case h.broadcast <- jsonBytes:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StatusBroadcaster tracks which status clients have already seen
type StatusBroadcaster struct {
	hub      *WebSocketHub
	source   StatusSource
	lastSeq  uint64
	overSent bool
}

// NewStatusBroadcaster pushes statuses from source through hub
func NewStatusBroadcaster(hub *WebSocketHub, source StatusSource) *StatusBroadcaster {
	return &StatusBroadcaster{hub: hub, source: source}
}

// Step broadcasts the latest status if it is newer than the last one sent,
// and the outcome the first time the match is seen over. It returns the
// number of messages queued.
func (b *StatusBroadcaster) Step() int {
	status := b.source.Snapshot()
	if status == nil || status.Sequence == b.lastSeq {
		return 0
	}
	sent := 0
	if b.hub.Broadcast("match:status", status) {
		b.lastSeq = status.Sequence
		sent++
	}
	if status.IsOver && status.Outcome != nil && !b.overSent {
		if b.hub.Broadcast("match:over", status.Outcome) {
			b.overSent = true
			sent++
		}
	}
	return sent
}

// StartBroadcastLoop pushes new statuses every interval while clients are connected
func (h *WebSocketHub) StartBroadcastLoop(source StatusSource, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	b := NewStatusBroadcaster(h, source)
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				b.Step()
			}
		}
	}()
}

// HandleWebSocket upgrades a connection after checking connection limits
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		h.logger.Warn().Int("clients", total).Msg("websocket rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		h.logger.Warn().Str("ip", ip).Msg("websocket rejected: per-IP limit reached")
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		h.wsLimiter.Release(ip)
		return
	}

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	// Clients only listen; reading detects the close
	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.stopChan:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
