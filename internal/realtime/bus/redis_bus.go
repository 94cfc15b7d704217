package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/observability"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type Config struct {
	Addr    string
	Channel string
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisBus(ctx context.Context, cfg Config, log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "signage:announcements"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("service", "RedisAnnouncementBus", "channel", ch),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, n types.Notification) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if n.Type != types.NotifyBroadcast {
		return fmt.Errorf("only broadcast notifications can be published, got %q", n.Type)
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(n types.Notification)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				n, err := decode(m.Payload)
				if err != nil {
					observability.Current().IncBusMessage("rejected")
					b.log.Warn("bad redis announcement payload", "error", err)
					continue
				}
				observability.Current().IncBusMessage("forwarded")
				onMsg(n)
			}
		}
	}()

	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// decode accepts a full broadcast notification or a bare {"content","style"}
// object, which is what operators tend to type into redis-cli.
func decode(payload string) (types.Notification, error) {
	var n types.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return types.Notification{}, err
	}
	switch n.Type {
	case "", types.NotifyBroadcast:
	default:
		return types.Notification{}, fmt.Errorf("unexpected notification type %q", n.Type)
	}
	if strings.TrimSpace(n.Content) == "" {
		return types.Notification{}, fmt.Errorf("empty announcement content")
	}
	return types.Announcement(n.Content, n.Style), nil
}
