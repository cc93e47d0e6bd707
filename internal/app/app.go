package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/api"
	"github.com/tobenna/launchpad/internal/api/handler"
	"github.com/tobenna/launchpad/internal/api/middleware"
	"github.com/tobenna/launchpad/internal/blockbuilder"
	"github.com/tobenna/launchpad/internal/config"
	"github.com/tobenna/launchpad/internal/custody"
	"github.com/tobenna/launchpad/internal/db"
	"github.com/tobenna/launchpad/internal/idempotency"
	"github.com/tobenna/launchpad/internal/ledger"
	"github.com/tobenna/launchpad/internal/observability"
	"github.com/tobenna/launchpad/internal/repository"
	"github.com/tobenna/launchpad/internal/service"
	"github.com/tobenna/launchpad/internal/tradeapi"
	"github.com/tobenna/launchpad/internal/worker"
)

// Run bootstraps the HTTP server and funding worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	store := repository.NewStore(pool)
	repo := store.Repository
	idemStore := idempotency.NewStore(redisClient, repo, cfg.IdempotencyTTL)

	custodian, err := custody.NewCustodian(repo, cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("init custodian: %w", err)
	}

	ledgerClient := ledger.NewClient(cfg.LedgerRPCURL)
	builderClient := blockbuilder.NewClient(cfg.BlockBuilderURL)
	tradeClient := tradeapi.NewClient(cfg.TradeAPIURL, cfg.MetadataUploadURL)

	audit := service.NewAuditService(repo)
	disperser := service.NewDisperseService(ledgerClient, custodian, audit, cfg.ConfirmTimeout)
	fundingSvc := service.NewFundingService(store, disperser, ledgerClient)
	projectSvc := service.NewProjectService(repo, tradeClient)
	orchestrator := service.NewLaunchOrchestrator(
		repo,
		service.NewBundleComposer(),
		service.NewTransactionSigner(custodian),
		service.NewAtomicSubmitter(builderClient, ledgerClient, custodian, cfg.TipLamports, cfg.BundlePollInterval, cfg.BundlePollAttempts),
		service.NewSequentialSubmitter(ledgerClient, cfg.SequentialSendDelay, cfg.ConfirmTimeout),
		tradeClient,
		audit,
	)

	fundingWorker := worker.NewFundingWorker(fundingSvc, repo).
		WithPollInterval(cfg.FundingVerifyEvery)
	stopWorker := fundingWorker.Run(ctx)
	logger.Info("funding worker started", zap.Duration("interval", cfg.FundingVerifyEvery))

	walletHandler := handler.NewWalletHandler(custodian, repo, ledgerClient)
	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, walletHandler, api.Services{
		Projects:     projectSvc,
		Funding:      fundingSvc,
		Disperser:    disperser,
		Orchestrator: orchestrator,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping funding worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
