package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sitecraft-ai/sitecraft-backend/config"
	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/auth/middleware"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/vercel"
	"github.com/sitecraft-ai/sitecraft-backend/internal/storage/postgres"
)

// Infra holds the long-lived connections shared by the API.
type Infra struct {
	SQL   *sql.DB
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// OpenInfra connects to Postgres (both drivers) and Redis.
func OpenInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	pool, err := OpenDB(ctx, DBOptions{DSN: cfg.Database.PostgresDSN(), MaxConns: 10, MinConns: 2})
	if err != nil {
		db.Close()
		return nil, err
	}

	rdb, err := OpenRedis(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		db.Close()
		return nil, err
	}

	return &Infra{SQL: db, Pool: pool, Redis: rdb}, nil
}

func (i *Infra) Close() {
	if i == nil {
		return
	}
	if i.Redis != nil {
		i.Redis.Close()
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
	if i.SQL != nil {
		i.SQL.Close()
	}
}

// NewVercelClient builds the hosting provider client from config.
func NewVercelClient(cfg *config.Config) *vercel.Client {
	return vercel.NewClient(vercel.Options{
		BaseURL:           cfg.Vercel.BaseURL,
		Token:             cfg.Vercel.Token,
		TeamID:            cfg.Vercel.TeamID,
		RequestsPerSecond: cfg.Vercel.RequestsPerSecond,
	})
}

// AuthMiddleware verifies Firebase ID tokens, or trusts X-User-Id when dev
// auth is enabled.
func AuthMiddleware(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, error) {
	if cfg.Firebase.DevAuth {
		return auth.DevUser(), nil
	}
	client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	return middleware.FirebaseAuthMiddleware(client), nil
}
