package app

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/signage-backend/internal/auth"
	"github.com/yungbote/signage-backend/internal/coordinator"
	"github.com/yungbote/signage-backend/internal/data/db"
	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/http"
	"github.com/yungbote/signage-backend/internal/observability"
	"github.com/yungbote/signage-backend/internal/platform/logger"
	"github.com/yungbote/signage-backend/internal/realtime"
)

type App struct {
	Log         *logger.Logger
	DB          *gorm.DB
	Cfg         Config
	Repos       Repos
	Clients     Clients
	Hub         *realtime.Hub
	Coordinator *coordinator.Coordinator
	Server      *http.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	bootLog, err := logger.New(envLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	bootLog.Info("Loading environment variables...")
	cfg := LoadConfig(bootLog)

	log := bootLog
	if cfg.LogFile != "" {
		log, err = logger.NewWithOptions(logger.Options{Mode: cfg.LogMode, FilePath: cfg.LogFile})
		if err != nil {
			return nil, fmt.Errorf("init file logger: %w", err)
		}
		bootLog.Sync()
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "signage",
		Version:     cfg.Version,
		Environment: cfg.LogMode,
	})
	metrics := observability.Init()

	theDB, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(theDB, log)

	hub := realtime.NewHub(log, realtime.HubConfig{
		SendBuffer: cfg.SendBuffer,
		Timeout:    cfg.HeartbeatTimeout,
	})
	coord := coordinator.New(reposet.State, clients.Blobs, hub, log)

	authService, err := auth.NewService(auth.Config{
		SecretKey: cfg.JWTSecretKey,
		AccessTTL: cfg.AccessTokenTTL,
		Username:  cfg.AdminUsername,
		Password:  cfg.AdminPassword,
	}, log)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, fmt.Errorf("init auth: %w", err)
	}

	handlerset := wireHandlers(log, authService, coord, hub, clients.Blobs)
	middleware := wireMiddleware(log, authService)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Hub:          hub,
		Coordinator:  coord,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP, drives the heartbeat and, when configured, relays
// announcements from the bus. It returns once ctx is cancelled and every
// worker has stopped.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Run(ctx, net.JoinHostPort("", a.Cfg.Port))
	})
	g.Go(func() error {
		return a.Hub.RunHeartbeat(ctx, a.Cfg.HeartbeatInterval)
	})
	if a.Clients.Bus != nil {
		g.Go(func() error {
			return a.Clients.Bus.StartForwarder(ctx, func(n types.Notification) {
				a.Hub.Broadcast(n)
			})
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		a.Log.Info("Shutting down, closing display connections", "connections", a.Hub.Count())
		a.Hub.CloseAll()
		return nil
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
