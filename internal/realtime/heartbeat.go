package realtime

import (
	"context"
	"time"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/observability"
)

// RunHeartbeat pings every connection each interval and, on the faster
// sweep cadence, prunes the ones that stayed silent for the hub timeout.
// It returns when ctx is done.
func (h *Hub) RunHeartbeat(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()
	sweep := time.NewTicker(h.cfg.SweepInterval)
	defer sweep.Stop()

	h.log.Info("Heartbeat started", "interval", interval, "timeout", h.cfg.Timeout, "sweep", h.cfg.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			h.log.Info("Heartbeat stopped")
			return nil
		case <-ping.C:
			h.tick()
		case <-sweep.C:
			h.sweep()
		}
	}
}

func (h *Hub) tick() {
	h.Broadcast(types.Ping(h.now().UnixMilli()))
	h.sweep()
}

func (h *Hub) sweep() {
	if n := h.PruneStale(h.now()); n > 0 {
		h.log.Info("Pruned stale connections", "pruned", n, "remaining", h.Count())
	}
}

// PruneStale unregisters connections that are no longer open or whose last
// inbound frame is at least the timeout old. It returns how many it removed.
func (h *Hub) PruneStale(now time.Time) int {
	pruned := 0
	for _, c := range h.snapshot() {
		silent := now.Sub(c.LastSeen())
		if c.State() == StateOpen && silent < h.cfg.Timeout {
			continue
		}
		c.log.Warn("Closing unresponsive connection", "silent_for", silent, "state", c.State())
		observability.Current().IncPruned()
		h.Unregister(c)
		pruned++
	}
	return pruned
}
