package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yungbote/signage-backend/internal/coordinator"
	"github.com/yungbote/signage-backend/internal/http/response"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/logger"
	"github.com/yungbote/signage-backend/internal/realtime"
)

const maxInboundFrame = 64 << 10

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.Hub
	coord    *coordinator.Coordinator
	upgrader websocket.Upgrader
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub, coord *coordinator.Coordinator) *RealtimeHandler {
	return &RealtimeHandler{
		log:   log.With("handler", "RealtimeHandler"),
		hub:   hub,
		coord: coord,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Players run from arbitrary kiosk origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// GET /ws
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.String(http.StatusUpgradeRequired, "Expected Upgrade: websocket")
		return
	}
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(maxInboundFrame)
	h.hub.Serve(ws, c.ClientIP())
}

// GET /stats
func (h *RealtimeHandler) Stats(c *gin.Context) {
	response.RespondOK(c, gin.H{"connectionCount": h.hub.Count()})
}

// POST /api/message takes {content, style} as JSON or form, or a plain
// text body used verbatim as the content.
func (h *RealtimeHandler) Announce(c *gin.Context) {
	var req struct {
		Content string `json:"content" form:"content"`
		Style   string `json:"style" form:"style"`
	}
	switch c.ContentType() {
	case gin.MIMEJSON, gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		if err := c.ShouldBind(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
			return
		}
	default:
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInboundFrame))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
			return
		}
		req.Content = strings.TrimSpace(string(body))
	}
	if err := h.coord.Announce(c.Request.Context(), req.Content, req.Style); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.Success(c)
}
