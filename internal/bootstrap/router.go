package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitecraft-ai/sitecraft-backend/config"
	httpapi "github.com/sitecraft-ai/sitecraft-backend/internal/api/http"
	apimw "github.com/sitecraft-ai/sitecraft-backend/internal/api/http/middleware"
	credithttp "github.com/sitecraft-ai/sitecraft-backend/internal/credits/http"
	creditrepo "github.com/sitecraft-ai/sitecraft-backend/internal/credits/repository"
	creditservice "github.com/sitecraft-ai/sitecraft-backend/internal/credits/service"
	deployhttp "github.com/sitecraft-ai/sitecraft-backend/internal/deploy/http"
	deployrepo "github.com/sitecraft-ai/sitecraft-backend/internal/deploy/repository"
	deployservice "github.com/sitecraft-ai/sitecraft-backend/internal/deploy/service"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/subdomain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/editor"
	editorhttp "github.com/sitecraft-ai/sitecraft-backend/internal/editor/http"
	generationhttp "github.com/sitecraft-ai/sitecraft-backend/internal/generation/http"
	"github.com/sitecraft-ai/sitecraft-backend/internal/generation/llm"
	generationservice "github.com/sitecraft-ai/sitecraft-backend/internal/generation/service"
	projecthttp "github.com/sitecraft-ai/sitecraft-backend/internal/projects/http"
	projectrepo "github.com/sitecraft-ai/sitecraft-backend/internal/projects/repository"
	projectservice "github.com/sitecraft-ai/sitecraft-backend/internal/projects/service"
	"github.com/sitecraft-ai/sitecraft-backend/internal/storage/objects"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	Infra       *Infra
	Auth        gin.HandlerFunc
}

// BuildRouter wires repositories, services and handlers onto a gin engine.
func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	cfg := dep.Config

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware())
	r.Use(apimw.NewHTTPMetrics(reg).Handler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, cfg.App.Version,
		dep.Infra.Pool, httpapi.PingFunc(func(ctx context.Context) error { return dep.Infra.Redis.Ping(ctx).Err() }))
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// storage
	projects := projectrepo.NewProjectRepository(dep.Infra.SQL)
	chats := projectrepo.NewChatRepository(dep.Infra.Pool)
	credits := creditrepo.NewCreditRepository(dep.Infra.SQL)
	registry := deployrepo.NewRegistry(dep.Infra.SQL, cfg.Vercel.ParentDomain)
	attempts := deployrepo.NewAttemptRepository(dep.Infra.Redis)
	cleanupQueue := deployrepo.NewCleanupQueue(dep.Infra.Redis)
	assets, err := objects.NewClient(objects.Config{
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	// external clients
	hosting := NewVercelClient(cfg)
	ai := llm.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Timeout)

	// services
	projectSvc := projectservice.NewProjectService(projects, chats, assets, hosting, cleanupQueue, cfg.Vercel.ParentDomain)
	creditSvc := creditservice.NewCreditService(credits, creditservice.Options{
		SignupGrant:    cfg.Credits.SignupGrant,
		GenerationCost: cfg.Credits.GenerationCost,
		MinRequired:    cfg.Credits.MinRequired,
	})
	generationSvc := generationservice.NewGenerationService(ai, creditSvc, projects, chats)
	deploySvc := deployservice.NewDeployService(registry, hosting, projects, attempts, deployservice.NewMetrics(reg), deployservice.Options{
		ParentDomain: cfg.Vercel.ParentDomain,
		PollAttempts: cfg.Deploy.PollAttempts,
		PollInterval: cfg.Deploy.PollInterval,
		Suffixes:     subdomain.FixedSuffixes(cfg.Deploy.FallbackSuffixes),
	})
	saveSvc := editor.NewSaveService(assets, projects)

	// routes
	api := r.Group("/api/v1", dep.Auth)

	projectsGroup := api.Group("/projects")
	projecthttp.New(projectSvc).Register(projectsGroup)
	editorhttp.New(saveSvc).Register(projectsGroup)

	generationHandler := generationhttp.New(generationSvc)
	generationHandler.RegisterProjectRoutes(projectsGroup)
	generationHandler.RegisterPromptRoutes(api.Group("/prompts"))

	// submit, alias and record get a minute on top of the polling budget
	deployHandler := deployhttp.New(deploySvc, projects, attempts, cfg.Deploy.Budget()+time.Minute)
	deployHandler.RegisterProjectRoutes(projectsGroup)
	deployHandler.RegisterRoutes(api)

	credithttp.New(creditSvc).Register(api.Group("/credits"))

	return r, nil
}
