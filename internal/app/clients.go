package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/signage-backend/internal/platform/blob"
	"github.com/yungbote/signage-backend/internal/platform/logger"
	"github.com/yungbote/signage-backend/internal/realtime/bus"
)

type Clients struct {
	Blobs blob.Store
	// Bus is nil unless REDIS_ADDR is set.
	Bus bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	blobs, err := blob.New(ctx, cfg.Blob, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init media store: %w", err)
	}

	var b bus.Bus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err = bus.NewRedisBus(ctx, bus.Config{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
	}

	return Clients{Blobs: blobs, Bus: b}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
