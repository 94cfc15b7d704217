package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/signage-backend/internal/coordinator"
	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/http/response"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/ctxutil"
)

type AssignmentHandler struct {
	coord *coordinator.Coordinator
}

func NewAssignmentHandler(coord *coordinator.Coordinator) *AssignmentHandler {
	return &AssignmentHandler{coord: coord}
}

func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	out, err := h.coord.Assignments(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req struct {
		SectionKey  string `json:"section_key" form:"section_key"`
		ContentType string `json:"content_type" form:"content_type"`
		ContentID   string `json:"content_id" form:"content_id"`
		Offset      *int   `json:"offset" form:"offset"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	a, err := h.coord.CreateAssignment(c.Request.Context(), coordinator.AssignmentInput{
		SectionKey:  types.SectionKey(req.SectionKey),
		ContentType: types.ContentType(req.ContentType),
		ContentID:   req.ContentID,
		Offset:      req.Offset,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Set(ctxutil.KeySection, string(a.SectionKey))
	response.RespondOK(c, a)
}

func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	if err := h.coord.DeleteAssignment(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.Success(c)
}
