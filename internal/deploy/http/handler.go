package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/subdomain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	projectdomain "github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

// Deployer is implemented by *service.DeployService.
type Deployer interface {
	Deploy(ctx context.Context, req domain.DeployRequest) (*domain.DeployResult, error)
	CheckDomainAvailability(ctx context.Context, sub string) (bool, error)
	ParentDomain() string
}

// ProjectLoader reads the project being deployed.
type ProjectLoader interface {
	Get(ctx context.Context, userID, projectID string) (*projectdomain.Project, error)
}

// AttemptReader reads progress snapshots.
type AttemptReader interface {
	Get(ctx context.Context, id string) (*domain.Attempt, error)
	LatestForProject(ctx context.Context, projectID string) (*domain.Attempt, error)
}

type Handler struct {
	deployer Deployer
	projects ProjectLoader
	attempts AttemptReader

	// deployTimeout bounds a deploy once it is detached from the request.
	deployTimeout   time.Duration
	streamPoll      time.Duration
	streamKeepAlive time.Duration
}

func New(deployer Deployer, projects ProjectLoader, attempts AttemptReader, deployTimeout time.Duration) *Handler {
	return &Handler{
		deployer:        deployer,
		projects:        projects,
		attempts:        attempts,
		deployTimeout:   deployTimeout,
		streamPoll:      time.Second,
		streamKeepAlive: 15 * time.Second,
	}
}

// RegisterProjectRoutes attaches deploy routes to the projects group.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/deploy", h.deploy)
	rg.GET("/:id/deployment", h.latestAttempt)
	rg.GET("/:id/deployment/stream", h.streamAttempts)
}

// RegisterRoutes attaches the domain and deployment routes to the API group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/domains/check", h.checkDomain)
	rg.GET("/deployments/:deployment_id", h.getAttempt)
}

func (h *Handler) deploy(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.UserFirebaseUID(c)

	p, err := h.projects.Get(ctx, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	req := domain.DeployRequest{
		ProjectName: p.Name,
		ProjectID:   p.ID,
		UserID:      userID,
	}
	if p.Content != nil {
		req.Content = *p.Content
	}
	if p.URL != nil {
		req.CurrentSubdomain = subdomain.FromURL(*p.URL, h.deployer.ParentDomain())
	}

	// A client that disconnects mid-poll must not strand a submitted
	// deployment without its alias and record.
	deployCtx := context.WithoutCancel(ctx)
	if h.deployTimeout > 0 {
		var cancel context.CancelFunc
		deployCtx, cancel = context.WithTimeout(deployCtx, h.deployTimeout)
		defer cancel()
	}

	res, err := h.deployer.Deploy(deployCtx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"url":           res.URL,
		"subdomain":     res.Subdomain,
		"deployment_id": res.DeploymentID,
		"attempt_id":    res.AttemptID,
	})
}

func (h *Handler) checkDomain(c *gin.Context) {
	sub := strings.TrimSpace(c.Query("subdomain"))
	available, err := h.deployer.CheckDomainAvailability(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "available": available})
}

func (h *Handler) getAttempt(c *gin.Context) {
	a, err := h.attempts.Get(c.Request.Context(), c.Param("deployment_id"))
	if err == nil && a.UserID != auth.UserFirebaseUID(c) {
		err = domain.ErrAttemptNotFound
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deployment": a})
}

func (h *Handler) latestAttempt(c *gin.Context) {
	a, err := h.attempts.LatestForProject(c.Request.Context(), c.Param("id"))
	if err == nil && a.UserID != auth.UserFirebaseUID(c) {
		err = domain.ErrAttemptNotFound
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deployment": a})
}

func respondError(c *gin.Context, err error) {
	var (
		depErr    *domain.DeploymentError
		failedErr *domain.DeploymentFailedError
		aliasErr  *domain.AliasError
		recordErr *domain.RecordUpdateError
	)

	switch {
	// Checked first: it may wrap ErrNotFound, but the site is already live.
	case errors.As(err, &recordErr):
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error(), "url": recordErr.URL})
	case errors.Is(err, domain.ErrSubdomainLength),
		errors.Is(err, domain.ErrSubdomainFormat),
		errors.Is(err, domain.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, projectdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	case errors.Is(err, domain.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrExhaustedFallback):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrDeploymentTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"ok": false, "error": err.Error()})
	case errors.As(err, &depErr), errors.As(err, &failedErr), errors.As(err, &aliasErr):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
	default:
		l := logging.FromContext(c.Request.Context(), "deploy")
		l.Error().Err(err).Msg("deploy request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
