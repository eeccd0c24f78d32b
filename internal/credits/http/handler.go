package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/credits/service"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
)

type Handler struct {
	svc *service.CreditService
}

func New(svc *service.CreditService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches credit routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.balance)
}

func (h *Handler) balance(c *gin.Context) {
	a, err := h.svc.Balance(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		l := logging.FromContext(c.Request.Context(), "credits")
		l.Error().Err(err).Msg("load balance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "balance": a.Balance})
}
