package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	creditdomain "github.com/sitecraft-ai/sitecraft-backend/internal/credits/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/generation/service"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	projectdomain "github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

type Handler struct {
	svc *service.GenerationService
}

func New(svc *service.GenerationService) *Handler {
	return &Handler{svc: svc}
}

type promptReq struct {
	Prompt string `json:"prompt"`
}

// RegisterProjectRoutes attaches /:id/generate to the projects group.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/generate", h.generate)
}

// RegisterPromptRoutes attaches /enhance to the prompts group.
func (h *Handler) RegisterPromptRoutes(rg *gin.RouterGroup) {
	rg.POST("/enhance", h.enhance)
}

func (h *Handler) generate(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"html":     res.HTML,
		"summary":  res.Summary,
		"balance":  res.Balance,
		"messages": res.Messages,
	})
}

func (h *Handler) enhance(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	out, err := h.svc.Enhance(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "prompt": out})
}

func respondError(c *gin.Context, err error) {
	var upErr *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrPromptRequired):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, creditdomain.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, projectdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	case errors.As(err, &upErr):
		l := logging.FromContext(c.Request.Context(), "generation")
		l.Warn().Err(err).Msg("ai service failed")
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "generation failed, credits were refunded"})
	default:
		l := logging.FromContext(c.Request.Context(), "generation")
		l.Error().Err(err).Msg("generation request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
