package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	rediscache "github.com/simaogato/wealthflow-ledger/internal/adapter/cache/redis"
	grpcadapter "github.com/simaogato/wealthflow-ledger/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-ledger/internal/adapter/repository/postgres"
	"github.com/simaogato/wealthflow-ledger/internal/config"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/logging"
	"github.com/simaogato/wealthflow-ledger/internal/scheduler"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/ledger"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/seeder"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/summary"
)

const dbConnectAttempts = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}

	// 1. Setup Database
	db, err := connectWithRetry(cfg.Postgres.DSN(), logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// 2. Initialize Repositories (Postgres) and the snapshot cache (Redis)
	assetRepo := postgres.NewAssetRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	var cache domain.ProjectionCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("Redis unavailable, serving without snapshot cache")
		} else {
			cache = rediscache.NewProjectionCache(client, cfg.Redis.CacheTTL, logger)
		}
	}

	// 3. Initialize Services (Use Cases)
	rates, err := summary.ParseRates(cfg.FXRates)
	if err != nil {
		logger.Fatalf("Invalid FX_RATES: %v", err)
	}
	summarizer := summary.NewSummarizer(rates)

	ledgerService := ledger.NewLedgerService(assetRepo, transactionRepo, cache, summarizer, cfg.ReportingCurrency, logger)

	ctx := context.Background()
	if err := seeder.NewCashSeeder(assetRepo, logger).Seed(ctx, cfg.SeedCashCurrencies); err != nil {
		logger.Fatalf("Failed to seed cash assets: %v", err)
	}
	if err := ledgerService.Load(ctx); err != nil {
		logger.Fatalf("Failed to load ledger: %v", err)
	}

	// 4. Schedule the reconcile job
	jobs, err := scheduler.New(logger)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	if cfg.ReconcileInterval > 0 {
		err := jobs.NewIntervalJob("reconcile", func(ctx context.Context) error {
			_, err := ledgerService.Reconcile(ctx)
			return err
		}, cfg.ReconcileInterval, false)
		if err != nil {
			logger.Fatalf("Failed to schedule reconcile: %v", err)
		}
	}
	jobs.Start()

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)

	grpcadapter.RegisterLedgerServiceServer(grpcServer, grpcadapter.NewServer(ledgerService))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddr, err)
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer, jobs, logger)
}

// connectWithRetry opens the database, retrying while Postgres starts up
func connectWithRetry(dsn string, logger logrus.FieldLogger) (*postgres.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := postgres.NewDB(dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err

		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("Database not ready, retrying")
		time.Sleep(2 * time.Second)
	}
	return nil, lastErr
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server, jobs *scheduler.Scheduler, logger logrus.FieldLogger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infof("Received signal: %v. Shutting down gracefully...", sig)

	healthServer.Shutdown()
	if err := jobs.Stop(); err != nil {
		logger.WithError(err).Warn("Scheduler did not stop cleanly")
	}

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}
