package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/signage-backend/internal/http/handlers"
	httpMW "github.com/yungbote/signage-backend/internal/http/middleware"
	"github.com/yungbote/signage-backend/internal/observability"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	RealtimeHandler   *httpH.RealtimeHandler
	MaterialHandler   *httpH.MaterialHandler
	AssignmentHandler *httpH.AssignmentHandler
	GroupHandler      *httpH.GroupHandler
	SettingsHandler   *httpH.SettingsHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "signage"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Player surface (public)
	if cfg.RealtimeHandler != nil {
		r.GET("/ws", cfg.RealtimeHandler.Stream)
		r.GET("/stats", cfg.RealtimeHandler.Stats)
	}
	if cfg.MaterialHandler != nil {
		r.GET("/media/*key", cfg.MaterialHandler.ServeMedia)
	}

	// The admin page posts through /ws/api as well as /api.
	registerAPI(r.Group("/api"), cfg)
	registerAPI(r.Group("/ws/api"), cfg)

	return r
}

func registerAPI(api *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthHandler != nil {
		api.POST("/login", cfg.AuthHandler.Login)
	}
	if cfg.SettingsHandler != nil {
		api.GET("/media_with_settings", cfg.SettingsHandler.GetState)
		api.GET("/state", cfg.SettingsHandler.GetState)
		api.GET("/settings", cfg.SettingsHandler.GetSettings)
	}
	if cfg.MaterialHandler != nil {
		api.GET("/materials", cfg.MaterialHandler.ListMaterials)
		api.GET("/media", cfg.MaterialHandler.ListMaterials)
	}
	if cfg.AssignmentHandler != nil {
		api.GET("/assignments", cfg.AssignmentHandler.ListAssignments)
	}
	if cfg.GroupHandler != nil {
		api.GET("/groups", cfg.GroupHandler.ListGroups)
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Materials
		if cfg.MaterialHandler != nil {
			protected.POST("/media", cfg.MaterialHandler.UploadMedia)
			protected.DELETE("/media/:key", cfg.MaterialHandler.DeleteMaterial)
			protected.DELETE("/materials/:key", cfg.MaterialHandler.DeleteMaterial)
		}

		// Assignments
		if cfg.AssignmentHandler != nil {
			protected.POST("/assignments", cfg.AssignmentHandler.CreateAssignment)
			protected.DELETE("/assignments/:id", cfg.AssignmentHandler.DeleteAssignment)
		}

		// Groups
		if cfg.GroupHandler != nil {
			protected.POST("/groups", cfg.GroupHandler.CreateGroup)
			protected.DELETE("/groups/:id", cfg.GroupHandler.DeleteGroup)
			protected.POST("/groups/:id/materials", cfg.GroupHandler.UpdateGroupMaterials)
			protected.PUT("/groups/:id/materials", cfg.GroupHandler.ReplaceGroupMaterials)
			protected.PUT("/groups/:id/images", cfg.GroupHandler.ReplaceGroupMaterials)
			protected.POST("/groups/:id/images", cfg.GroupHandler.UploadGroupImages)
		}

		// Settings
		if cfg.SettingsHandler != nil {
			protected.PUT("/settings", cfg.SettingsHandler.UpdateSettings)
		}

		// Announcements
		if cfg.RealtimeHandler != nil {
			protected.POST("/message", cfg.RealtimeHandler.Announce)
		}
	}
}
