package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/editor"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	projectdomain "github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

type Handler struct {
	svc *editor.SaveService
}

func New(svc *editor.SaveService) *Handler {
	return &Handler{svc: svc}
}

type saveReq struct {
	HTML   string               `json:"html"`
	Images []editor.ImageUpload `json:"images"`
}

// Register attaches /:id/content to the projects group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.PUT("/:id/content", h.save)
}

func (h *Handler) save(c *gin.Context) {
	var req saveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	html, err := h.svc.Save(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.HTML, req.Images)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "html": html})
	case errors.Is(err, editor.ErrEmptyHTML), errors.Is(err, editor.ErrInvalidDataURL):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, editor.ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, projectdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	default:
		l := logging.FromContext(c.Request.Context(), "editor")
		l.Error().Err(err).Msg("save content failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
