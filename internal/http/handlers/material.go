package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/signage-backend/internal/coordinator"
	"github.com/yungbote/signage-backend/internal/http/response"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/blob"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

const maxUploadBytes = 256 << 20

type MaterialHandlerDeps struct {
	Log         *logger.Logger
	Coordinator *coordinator.Coordinator
	Blobs       blob.Store
}

type MaterialHandler struct {
	log   *logger.Logger
	coord *coordinator.Coordinator
	blobs blob.Store
}

func NewMaterialHandlerWithDeps(deps MaterialHandlerDeps) *MaterialHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &MaterialHandler{
		log:   log.With("handler", "MaterialHandler"),
		coord: deps.Coordinator,
		blobs: deps.Blobs,
	}
}

// GET /api/materials
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	materials, err := h.coord.Materials(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, materials)
}

// POST /api/media (multipart "file")
func (h *MaterialHandler) UploadMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondErr(c, apierr.Validation("no file provided"))
		return
	}
	in, closeFn, err := openUpload(fh)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer closeFn()

	m, err := h.coord.UploadMaterial(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// DELETE /api/materials/:key and /api/media/:key; key is an id or filename.
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	if err := h.coord.DeleteMaterial(c.Request.Context(), c.Param("key")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.Success(c)
}

// GET /media/*key
func (h *MaterialHandler) ServeMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, err := h.blobs.Get(c.Request.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		response.RespondError(c, http.StatusNotFound, apierr.CodeNotFound, errors.New("file not found"))
		return
	}
	if err != nil {
		h.log.Warn("Media read failed", "filename", key, "error", err)
		response.RespondErr(c, apierr.Storage("read media", err))
		return
	}
	defer obj.Body.Close()
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control":  "public, max-age=31536000",
		"Content-Length": strconv.FormatInt(obj.Size, 10),
	})
}

// openUpload returns the file as coordinator input plus its closer.
func openUpload(fh *multipart.FileHeader) (coordinator.UploadInput, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return coordinator.UploadInput{}, func() {}, apierr.Validation("unreadable upload %q: %v", fh.Filename, err)
	}
	return coordinator.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
