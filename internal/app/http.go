package app

import (
	"github.com/yungbote/signage-backend/internal/auth"
	"github.com/yungbote/signage-backend/internal/coordinator"
	"github.com/yungbote/signage-backend/internal/http"
	httpH "github.com/yungbote/signage-backend/internal/http/handlers"
	"github.com/yungbote/signage-backend/internal/observability"
	"github.com/yungbote/signage-backend/internal/platform/blob"
	"github.com/yungbote/signage-backend/internal/platform/logger"
	"github.com/yungbote/signage-backend/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Realtime   *httpH.RealtimeHandler
	Material   *httpH.MaterialHandler
	Assignment *httpH.AssignmentHandler
	Group      *httpH.GroupHandler
	Settings   *httpH.SettingsHandler
}

func wireHandlers(log *logger.Logger, authService auth.Service, coord *coordinator.Coordinator, hub *realtime.Hub, blobs blob.Store) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(authService),
		Realtime: httpH.NewRealtimeHandler(log, hub, coord),
		Material: httpH.NewMaterialHandlerWithDeps(httpH.MaterialHandlerDeps{
			Log:         log,
			Coordinator: coord,
			Blobs:       blobs,
		}),
		Assignment: httpH.NewAssignmentHandler(coord),
		Group:      httpH.NewGroupHandler(coord),
		Settings:   httpH.NewSettingsHandler(coord),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       "signage",
		AllowedOrigins:    cfg.AllowedOrigins,
		HealthHandler:     handlers.Health,
		AuthHandler:       handlers.Auth,
		AuthMiddleware:    middleware.Auth,
		RealtimeHandler:   handlers.Realtime,
		MaterialHandler:   handlers.Material,
		AssignmentHandler: handlers.Assignment,
		GroupHandler:      handlers.Group,
		SettingsHandler:   handlers.Settings,
	})
}
