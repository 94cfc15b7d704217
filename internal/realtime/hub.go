package realtime

import (
	"encoding/json"
	"sync"
	"time"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/observability"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type HubConfig struct {
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
	WriteWait  time.Duration
	// Timeout is how long a connection may stay silent before it is
	// closed. It is both the socket read deadline and the sweep threshold.
	Timeout time.Duration
	// SweepInterval is how often the heartbeat checks for silent
	// connections, independent of the ping interval.
	SweepInterval time.Duration
}

func (c HubConfig) withDefaults() HubConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 65 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Second
	}
	return c
}

// Hub is the connection registry and broadcaster for display clients.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
	cfg   HubConfig
	log   *logger.Logger
	now   func() time.Time
}

func NewHub(log *logger.Logger, cfg HubConfig) *Hub {
	return &Hub{
		conns: make(map[*Conn]struct{}),
		cfg:   cfg.withDefaults(),
		log:   log.With("component", "RealtimeHub"),
		now:   time.Now,
	}
}

// Serve registers socket and blocks until the connection ends.
func (h *Hub) Serve(socket Socket, remote string) {
	c := newConn(socket, remote, h.cfg.SendBuffer, h.cfg.WriteWait, h.cfg.Timeout, h.now(), h.log)
	h.Register(c)
	go c.writePump()
	c.readPump(h.now)
	h.Unregister(c)
}

// Register opens c, queues its welcome, then tells everyone else.
// The welcome is queued under the write lock so no broadcast can reach c
// ahead of it.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	count := len(h.conns)
	c.open()
	if b, err := json.Marshal(types.Welcome(count)); err == nil {
		c.enqueue(b)
	}
	h.mu.Unlock()

	observability.Current().IncAccepted()
	observability.Current().SetConnections(count)
	c.log.Info("Display connected", "count", count)
	h.broadcast(types.UserJoined(count), c)
}

// Unregister is idempotent. Only the call that actually removes c
// announces the departure.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	count := len(h.conns)
	h.mu.Unlock()

	c.shutdown()
	if !ok {
		return
	}
	observability.Current().SetConnections(count)
	c.log.Info("Display disconnected", "count", count)
	h.broadcast(types.UserLeft(count), nil)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast queues n on every open connection without blocking.
func (h *Hub) Broadcast(n types.Notification) {
	h.broadcast(n, nil)
}

func (h *Hub) broadcast(n types.Notification, except *Conn) int {
	b, err := json.Marshal(n)
	if err != nil {
		h.log.Error("Failed to encode notification", "type", n.Type, "error", err)
		return 0
	}
	observability.Current().IncNotification(string(n.Type))

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.conns {
		if c == except {
			continue
		}
		ok, full := c.enqueue(b)
		if ok {
			delivered++
			continue
		}
		if full {
			observability.Current().IncDropped()
			c.log.Warn("Dropping notification; outbound buffer full", "type", n.Type)
		}
	}
	return delivered
}

func (h *Hub) snapshot() []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// CloseAll force-closes every connection, used on shutdown.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		h.Unregister(c)
	}
}
