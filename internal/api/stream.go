package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TickEvent is pushed to every stream subscriber after an advancement.
type TickEvent struct {
	Hour   int              `json:"hour"`
	Day    int              `json:"day"`
	Prices map[string]int64 `json:"prices"`
}

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Subscribers are game clients on arbitrary origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamClient wraps a connection with its own write lock; gorilla
// connections tolerate at most one concurrent writer.
type streamClient struct {
	wmu  sync.Mutex
	conn *websocket.Conn
}

func (c *streamClient) send(ev TickEvent) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ev)
}

// Hub fans tick events out to websocket subscribers. Slow or dead
// connections are dropped on the first failed write.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[*streamClient]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:   logger,
		conns: make(map[*streamClient]struct{}),
	}
}

func (h *Hub) add(conn *websocket.Conn) *streamClient {
	c := &streamClient{conn: conn}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	streamClients.Set(float64(len(h.conns)))
	h.mu.Unlock()
	return c
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		c.conn.Close()
	}
	streamClients.Set(float64(len(h.conns)))
	h.mu.Unlock()
}

// Broadcast sends the event to every subscriber. Safe for concurrent use;
// writes to each connection are serialized on the client's lock.
func (h *Hub) Broadcast(ev TickEvent) {
	h.mu.Lock()
	conns := make([]*streamClient, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.send(ev); err != nil {
			h.log.Debug("stream write failed", "error", err)
			h.remove(c)
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("stream upgrade failed", "error", err)
		return
	}
	client := s.hub.add(conn)
	s.log.Info("stream subscriber connected", "remote", conn.RemoteAddr().String())

	// Drain the connection until the client goes away; subscribers never
	// send meaningful frames.
	go func() {
		defer s.hub.remove(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
