package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/signage-backend/internal/observability"
)

// Metrics records request counts and latency per route. Display sockets are
// left to the hub gauges, since their latency is the session length.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeLabel(c.FullPath())
		if route == "/ws" || route == "/metrics" {
			return
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// routeLabel folds the /ws/api alias onto /api so both share one series.
func routeLabel(fullPath string) string {
	switch {
	case fullPath == "":
		return "unmatched"
	case strings.HasPrefix(fullPath, "/ws/api/"):
		return strings.TrimPrefix(fullPath, "/ws")
	default:
		return fullPath
	}
}
