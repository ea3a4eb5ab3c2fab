package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/render"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Message types pushed to websocket clients.
const (
	TypeConnection = "connection"
	TypeChart      = "chart"
	TypeDispose    = "dispose"
	TypeError      = "error"
)

// Message is one websocket push.
type Message struct {
	Type      string            `json:"type"`
	Chart     dashboard.ChartID `json:"chart,omitempty"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Hub pushes chart frames and load failures to every connected browser. It
// is both a dashboard.Renderer and a dashboard.Notifier. Newly connected
// clients receive the latest frame of every live chart.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  map[dashboard.ChartID][]byte

	upgrader websocket.Upgrader
	onCount  func(int)
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		latest:     make(map[dashboard.ChartID][]byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		onCount: func(int) {},
		logger:  logger.Named("hub"),
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.onCount(0)
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			replay := make([][]byte, 0, len(h.latest))
			for _, id := range dashboard.Charts {
				if b, ok := h.latest[id]; ok {
					replay = append(replay, b)
				}
			}
			h.mu.Unlock()
			h.onCount(count)
			h.logger.Info("client registered", zap.String("client_id", c.id), zap.Int("total_clients", count))

			if b, err := json.Marshal(Message{Type: TypeConnection, Message: "connected", Data: map[string]string{"client_id": c.id}, Timestamp: time.Now()}); err == nil {
				replay = append([][]byte{b}, replay...)
			}
			for _, b := range replay {
				select {
				case c.send <- b:
				default:
					h.logger.Warn("client buffer full during replay", zap.String("client_id", c.id))
				}
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.onCount(count)
			h.logger.Info("client unregistered", zap.String("client_id", c.id), zap.Int("total_clients", count))

		case b := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- b:
				default:
					close(c.send)
					delete(h.clients, c)
					h.logger.Warn("client send buffer full, disconnecting", zap.String("client_id", c.id))
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.onCount(count)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Open implements dashboard.Renderer.
func (h *Hub) Open(id dashboard.ChartID) (dashboard.Surface, error) {
	return &hubSurface{hub: h, id: id}, nil
}

// Notify implements dashboard.Notifier.
func (h *Hub) Notify(reason string) {
	h.publish(Message{Type: TypeError, Message: reason}, "")
}

// publish marshals msg and queues it. When chart is set the payload becomes
// that chart's replay frame; a dispose message clears it.
func (h *Hub) publish(msg Message, chart dashboard.ChartID) {
	msg.Timestamp = time.Now()
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	if chart != "" {
		h.mu.Lock()
		if msg.Type == TypeDispose {
			delete(h.latest, chart)
		} else {
			h.latest[chart] = b
		}
		h.mu.Unlock()
	}
	select {
	case h.broadcast <- b:
	default:
		h.logger.Warn("broadcast channel full, dropping message", zap.String("type", msg.Type))
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), id: uuid.NewString()}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

type hubSurface struct {
	hub      *Hub
	id       dashboard.ChartID
	disposed bool
}

func (s *hubSurface) Draw(view any) error {
	if s.disposed {
		return render.ErrDisposed
	}
	s.hub.publish(Message{Type: TypeChart, Chart: s.id, Data: view}, s.id)
	return nil
}

func (s *hubSurface) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	s.hub.publish(Message{Type: TypeDispose, Chart: s.id}, s.id)
	return nil
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// readPump discards client input; it exists to process pongs and notice closes.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket closed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
