package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

const (
	DefaultLivenessTimeout = 65 * time.Second
	DefaultReconnectDelay  = 5 * time.Second
)

type WatcherConfig struct {
	URL string
	// LivenessTimeout is how long the server may stay silent before the
	// connection is presumed dead.
	LivenessTimeout time.Duration
	ReconnectDelay  time.Duration
	Header          http.Header
}

// Watcher holds one streaming connection to the coordinator, answers pings
// and redials after a fixed delay for as long as its context lives.
type Watcher struct {
	cfg    WatcherConfig
	log    *logger.Logger
	dialer *websocket.Dialer
	onMsg  func(types.Notification)
	// onConnect runs after every successful dial, including the first.
	onConnect func()
}

func NewWatcher(cfg WatcherConfig, log *logger.Logger, onMsg func(types.Notification), onConnect func()) *Watcher {
	if cfg.LivenessTimeout <= 0 {
		cfg.LivenessTimeout = DefaultLivenessTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if log == nil {
		log = logger.Nop()
	}
	if onMsg == nil {
		onMsg = func(types.Notification) {}
	}
	if onConnect == nil {
		onConnect = func() {}
	}
	return &Watcher{
		cfg:       cfg,
		log:       log.With("component", "Watcher", "url", cfg.URL),
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		onMsg:     onMsg,
		onConnect: onConnect,
	}
}

// Run blocks until ctx is cancelled. Retries are unbounded.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		w.log.Warn("Connection lost, reconnecting", "error", err, "delay", w.cfg.ReconnectDelay)

		t := time.NewTimer(w.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (w *Watcher) session(ctx context.Context) error {
	ws, _, err := w.dialer.DialContext(ctx, w.cfg.URL, w.cfg.Header)
	if err != nil {
		return err
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	w.log.Info("Connected")
	w.onConnect()

	for {
		// Any frame from the server counts as proof of life.
		if err := ws.SetReadDeadline(time.Now().Add(w.cfg.LivenessTimeout)); err != nil {
			return err
		}
		_, data, err := ws.ReadMessage()
		if err != nil {
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				return errors.New("server silent past liveness timeout")
			}
			return err
		}
		var n types.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			w.log.Debug("Ignoring malformed frame", "error", err)
			continue
		}
		if n.Type == types.NotifyPing {
			pong, _ := json.Marshal(types.Pong(n.Timestamp))
			if err := ws.WriteMessage(websocket.TextMessage, pong); err != nil {
				return err
			}
			continue
		}
		w.onMsg(n)
	}
}
