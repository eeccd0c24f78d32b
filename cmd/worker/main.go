package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sitecraft-ai/sitecraft-backend/config"
	"github.com/sitecraft-ai/sitecraft-backend/internal/bootstrap"
	"github.com/sitecraft-ai/sitecraft-backend/internal/cleanup"
	creditrepo "github.com/sitecraft-ai/sitecraft-backend/internal/credits/repository"
	creditservice "github.com/sitecraft-ai/sitecraft-backend/internal/credits/service"
	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/repository"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
	"github.com/sitecraft-ai/sitecraft-backend/internal/storage/postgres"
)

const usage = "usage: worker <serve|sweep|migrate up|down [version]|status|grant <user-id> <credits>>"

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.App.Environment, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "migrate":
		runMigrate(ctx, cfg, os.Args[2:])
		return
	case "grant":
		runGrant(ctx, cfg, os.Args[2:])
		return
	}

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	sweeper := cleanup.NewSweeper(repository.NewCleanupQueue(rdb), bootstrap.NewVercelClient(cfg))

	switch os.Args[1] {
	case "serve":
		runServe(ctx, sweeper, cfg.Worker.CleanupSchedule)
	case "sweep":
		runSweep(ctx, sweeper)
	default:
		log.Fatal().Str("command", os.Args[1]).Msg(usage)
	}
}

func runServe(ctx context.Context, sweeper *cleanup.Sweeper, schedule string) {
	scheduler := cleanup.NewScheduler(sweeper)
	if err := scheduler.Start(schedule); err != nil {
		log.Fatal().Err(err).Str("schedule", schedule).Msg("invalid cleanup schedule")
	}

	<-ctx.Done()
	log.Info().Msg("stopping worker")

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	scheduler.Stop(stopCtx)
}

func runSweep(ctx context.Context, sweeper *cleanup.Sweeper) {
	report, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("deleted", report.Deleted).Int("requeued", report.Requeued).Msg("sweep failed")
	}
	log.Info().Int("deleted", report.Deleted).Int("requeued", report.Requeued).Msg("sweep finished")
}

func runMigrate(ctx context.Context, cfg *config.Config, args []string) {
	if len(args) == 0 {
		log.Fatal().Msg(usage)
	}

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	migrator, err := postgres.NewMigrator(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init migrations")
	}

	switch args[0] {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		var target int64
		if len(args) > 1 {
			target, err = strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				log.Fatal().Str("version", args[1]).Msg("invalid target version")
			}
		}
		err = migrator.Down(ctx, target)
	case "status":
		err = migrator.Status(ctx)
	default:
		log.Fatal().Str("command", args[0]).Msg(usage)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("migration failed")
	}
	log.Info().Str("command", args[0]).Msg("migration finished")
}

// parseGrant reads "<user-id> <credits>".
func parseGrant(args []string) (string, int, error) {
	if len(args) != 2 || args[0] == "" {
		return "", 0, errors.New(usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("credits must be a positive integer, got %q", args[1])
	}
	return args[0], n, nil
}

func runGrant(ctx context.Context, cfg *config.Config, args []string) {
	userID, n, err := parseGrant(args)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid grant")
	}

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	credits := creditservice.NewCreditService(creditrepo.NewCreditRepository(db), creditservice.Options{
		SignupGrant:    cfg.Credits.SignupGrant,
		GenerationCost: cfg.Credits.GenerationCost,
		MinRequired:    cfg.Credits.MinRequired,
	})
	balance, err := credits.Grant(ctx, userID, n)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", userID).Msg("grant failed")
	}
	log.Info().Str("user_id", userID).Int("granted", n).Int("balance", balance).Msg("credits granted")
}
