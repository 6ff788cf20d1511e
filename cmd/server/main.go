// Package main provides the API server entry point for the remittance gateway.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/account"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/api"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/chain"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/config"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/history"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/plan"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/storage"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/submit"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/validate"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Token registry
	descriptors := make([]types.TokenDescriptor, 0, len(cfg.Tokens))
	for _, tc := range cfg.Tokens {
		if tc.Address == "" {
			logger.WithField("token", tc.Symbol).Warn("Skipping token: no address configured")
			continue
		}
		descriptors = append(descriptors, types.TokenDescriptor{
			Symbol:   tc.Symbol,
			Address:  common.HexToAddress(tc.Address),
			Decimals: tc.Decimals,
		})
	}
	registry, err := token.NewRegistry(descriptors)
	if err != nil {
		logger.WithError(err).Fatal("Invalid token configuration")
	}

	// Chain client and operator session
	logger.WithField("rpc", cfg.Chain.RPCURL).Info("Dialing chain RPC...")
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 15*time.Second)
	chainClient, err := chain.NewClient(dialCtx, chain.ClientConfig{
		RPCURL:          cfg.Chain.RPCURL,
		ContractAddress: cfg.Chain.RemittanceContract,
	})
	dialCancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to chain RPC")
	}
	defer chainClient.Close()

	session, err := chain.NewSession(chain.SessionConfig{
		PrivateKeyHex:       cfg.Chain.OperatorKeyHex,
		ChainID:             chainClient.ChainID(),
		SupportsAtomicBatch: cfg.Chain.SupportsAtomicBatch,
		SmartAccount:        common.HexToAddress(cfg.Chain.SmartAccountAddress),
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create operator session")
	}
	logger.WithFields(map[string]interface{}{
		"operator": session.Address.Hex(),
		"batch":    session.SupportsAtomicBatch,
	}).Info("Operator session ready")

	// Services
	cache := storage.NewCacheService(redis, cfg.Cache.AccountTTL)
	accounts := account.NewService(chainClient, cache, statsDecimals(registry))
	validator := validate.NewValidator(chainClient, registry)
	planner := plan.NewPlanner(plan.Config{
		Contract:           chainClient.ContractAddress(),
		Allowance:          chainClient,
		Encoder:            chainClient,
		ApproveIncludesFee: cfg.Submit.ApproveIncludesFee,
	})
	submitter := submit.NewSubmitter(submit.Config{
		Writer:         chainClient,
		Session:        session,
		ReceiptTimeout: cfg.Submit.ReceiptTimeout,
		Invalidator:    accounts,
	})
	reconciler := history.NewReconciler(chainClient, registry)
	contacts := storage.NewContactRepository(postgres)

	logger.Info("Services initialized")

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	serverConfig.Burst = cfg.RateLimit.Burst
	// Withdrawal parsing must agree with the decimals used for stats and
	// rewards rendering.
	serverConfig.RewardsDecimals = statsDecimals(registry)

	server := api.NewServer(serverConfig, validator, planner, submitter, reconciler, accounts, contacts, redis, postgres)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// statsDecimals picks the decimals used for aggregate views. The contract
// accumulates volume in the stablecoins' shared base unit.
func statsDecimals(registry *token.Registry) int {
	tokens := registry.Tokens()
	if len(tokens) == 0 {
		return 6
	}
	return tokens[0].Decimals
}
