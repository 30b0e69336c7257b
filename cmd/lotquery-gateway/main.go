package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/lotquery/lotquery/internal/auth"
	"github.com/lotquery/lotquery/internal/config"
	"github.com/lotquery/lotquery/internal/execution"
	"github.com/lotquery/lotquery/internal/gateway"
	"github.com/lotquery/lotquery/internal/llm"
	"github.com/lotquery/lotquery/internal/nlq"
	"github.com/lotquery/lotquery/internal/observability"
	"github.com/lotquery/lotquery/internal/secrets"
	"github.com/lotquery/lotquery/internal/sqlbuild"
)

func main() {
	cfg, err := config.LoadFromEnv("lotquery-gateway")
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

	engine, err := execution.NewClient(athena.NewFromConfig(awsCfg), execution.Config{
		Database:        cfg.Engine.Database,
		OutputLocation:  cfg.Engine.OutputLocation,
		PollInterval:    cfg.Engine.PollInterval,
		MaxPollAttempts: cfg.Engine.MaxPollAttempts,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize execution client", slog.Any("error", err))
		os.Exit(1)
	}

	secretsClient := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Secrets.Region != "" {
			o.Region = cfg.Secrets.Region
		}
	})
	credentials, err := secrets.NewProvider(secretsClient, cfg.Secrets.SecretName, cfg.Secrets.CacheTTL)
	if err != nil {
		logger.Error("failed to initialize credential provider", slog.Any("error", err))
		os.Exit(1)
	}

	model, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Model,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.Model.Timeout,
	}, credentials)
	if err != nil {
		logger.Error("failed to initialize model client", slog.Any("error", err))
		os.Exit(1)
	}

	translator, err := nlq.NewTranslator(model, cfg.Engine.Database, cfg.Engine.Table)
	if err != nil {
		logger.Error("failed to initialize translator", slog.Any("error", err))
		os.Exit(1)
	}
	answerer, err := nlq.NewAnswerGenerator(model)
	if err != nil {
		logger.Error("failed to initialize answer generator", slog.Any("error", err))
		os.Exit(1)
	}

	deps := gateway.Dependencies{
		Logger:     logger,
		Builder:    sqlbuild.NewBuilder(cfg.Engine.Database, cfg.Engine.Table),
		Executor:   engine,
		Translator: translator,
		Answerer:   answerer,
		Readiness: gateway.CombineReadinessChecks(
			gateway.CheckEngineConfig(cfg),
			gateway.CheckModelConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := gateway.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting gateway server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("gateway server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down gateway server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
