package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yungbote/signage-backend/internal/platform/ctxutil"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Admin mutations carry the
// entity they touched and, when a handler recorded one, the section key.
// Player traffic (media fetches, state polls) logs at debug, and a display
// socket logs once when it closes, with its session length.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if path == "/healthcheck" || path == "/metrics" {
			return
		}

		status := c.Writer.Status()
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			if td.TraceID != "" {
				fields = append(fields, "trace_id", td.TraceID)
			}
			if td.RequestID != "" {
				fields = append(fields, "request_id", td.RequestID)
			}
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.Actor != "" {
			fields = append(fields, "actor", rd.Actor)
		}
		if entity := entityRef(c); entity != "" {
			fields = append(fields, "entity", entity)
		}
		if section := c.GetString(ctxutil.KeySection); section != "" {
			fields = append(fields, "section_key", section)
		}
		if n := len(c.Errors); n > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case path == "/ws" && status < 400 && websocket.IsWebSocketUpgrade(c.Request):
			log.Info("Display socket closed", fields...)
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case isPlayerRead(c.Request.Method, path):
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// entityRef is the group, assignment or material a route addresses.
func entityRef(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return strings.TrimPrefix(c.Param("key"), "/")
}

func isPlayerRead(method, path string) bool {
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	switch {
	case strings.HasPrefix(path, "/media/"), path == "/stats":
		return true
	case strings.HasSuffix(path, "/media_with_settings"), strings.HasSuffix(path, "/state"):
		return true
	}
	return false
}
