package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/signage-backend/internal/coordinator"
	"github.com/yungbote/signage-backend/internal/http/response"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
)

type GroupHandler struct {
	coord *coordinator.Coordinator
}

func NewGroupHandler(coord *coordinator.Coordinator) *GroupHandler {
	return &GroupHandler{coord: coord}
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	out, err := h.coord.Groups(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name      string `json:"name" form:"name"`
		GroupName string `json:"group_name" form:"group_name"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	name := req.GroupName
	if name == "" {
		name = req.Name
	}
	g, err := h.coord.CreateGroup(c.Request.Context(), name)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, g)
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.coord.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.Success(c)
}

type groupMaterialsRequest struct {
	Action      string   `json:"action" form:"action"`
	MaterialIDs []string `json:"material_ids" form:"material_ids[]"`
	ImageIDs    []string `json:"image_ids" form:"image_ids[]"`
}

func (r groupMaterialsRequest) ids(c *gin.Context) []string {
	if len(r.MaterialIDs) > 0 {
		return r.MaterialIDs
	}
	if len(r.ImageIDs) > 0 {
		return r.ImageIDs
	}
	return c.PostFormArray("material_ids")
}

// POST /api/groups/:id/materials {action, material_ids}
func (h *GroupHandler) UpdateGroupMaterials(c *gin.Context) {
	var req groupMaterialsRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	h.applyMembership(c, membershipAction(req.Action), req.ids(c))
}

// membershipAction accepts the admin page's form values alongside the
// short names. Anything else is passed through for the coordinator to reject.
func membershipAction(raw string) coordinator.MembershipAction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "add", "add_materials":
		return coordinator.MembershipAdd
	case "replace", "update_materials":
		return coordinator.MembershipReplace
	default:
		return coordinator.MembershipAction(raw)
	}
}

// PUT /api/groups/:id/materials and /api/groups/:id/images always replace.
func (h *GroupHandler) ReplaceGroupMaterials(c *gin.Context) {
	var req groupMaterialsRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	h.applyMembership(c, coordinator.MembershipReplace, req.ids(c))
}

func (h *GroupHandler) applyMembership(c *gin.Context, action coordinator.MembershipAction, ids []string) {
	g, err := h.coord.UpdateGroupMaterials(c.Request.Context(), c.Param("id"), action, ids)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "group": g})
}

// POST /api/groups/:id/images (multipart "files")
func (h *GroupHandler) UploadGroupImages(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		response.RespondErr(c, apierr.Validation("invalid multipart form: %v", err))
		return
	}
	var inputs []coordinator.UploadInput
	for _, fh := range form.File["files"] {
		in, closeFn, err := openUpload(fh)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		defer closeFn()
		inputs = append(inputs, in)
	}
	added, err := h.coord.UploadGroupMaterials(c.Request.Context(), c.Param("id"), inputs)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "materials": added})
}
