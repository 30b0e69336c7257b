package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lotquery/lotquery/internal/config"
	"github.com/lotquery/lotquery/internal/observability"
	"github.com/lotquery/lotquery/internal/sweeper"
)

func main() {
	cfg, err := config.LoadFromEnv("lotquery-sweeper")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Engine.Region),
	)
	if err != nil {
		logger.Error("failed to load aws config", slog.Any("error", err))
		os.Exit(1)
	}

	svc := &sweeper.Service{
		Store: s3.NewFromConfig(awsCfg),
		Config: sweeper.Config{
			OutputLocation: cfg.Engine.OutputLocation,
			Interval:       cfg.Sweeper.Interval,
			MaxAge:         cfg.Sweeper.MaxAge,
			BatchSize:      cfg.Sweeper.BatchSize,
		},
		Logger: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sweeper worker started",
		slog.String("output_location", cfg.Engine.OutputLocation),
		slog.Duration("interval", cfg.Sweeper.Interval),
		slog.Duration("max_age", cfg.Sweeper.MaxAge),
	)
	if err := svc.Run(ctx); err != nil {
		logger.Error("sweeper worker failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sweeper worker stopped")
}
