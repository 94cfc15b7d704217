package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/signage-backend/internal/coordinator"
	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/http/response"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
)

type SettingsHandler struct {
	coord *coordinator.Coordinator
}

func NewSettingsHandler(coord *coordinator.Coordinator) *SettingsHandler {
	return &SettingsHandler{coord: coord}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s, err := h.coord.Settings(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, s)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var s types.Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	if err := h.coord.UpdateSettings(c.Request.Context(), s); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "settings": s})
}

// GET /api/media_with_settings, the aggregate the player re-fetches.
func (h *SettingsHandler) GetState(c *gin.Context) {
	snap, err := h.coord.Snapshot(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, snap)
}
