package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/config"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/db"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/jobs"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/obs"
	"github.com/Dinhh-Chan/accounting-web-sub000/internal/report"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Str("proc", "worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	reportService := &report.Service{
		Repo:   &report.PgRepo{Pool: pool},
		Cache:  common.NewCache(redisClient, cfg.ReportCacheTTL),
		Logger: logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		Logger:      logger,
		Reports:     reportService,
		WarmupCron:  cfg.ReportWarmupCron,
		Concurrency: cfg.WorkerConcurrency,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise worker")
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("cron", cfg.ReportWarmupCron).Msg("worker starting")
	if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
	logger.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
