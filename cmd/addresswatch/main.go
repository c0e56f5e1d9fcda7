package main

import (
	"context"
	"fmt"
	"time"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/alert"
	"addresswatch/internal/config"
	"addresswatch/internal/handlers/cli"
	chainhyperliquid "addresswatch/internal/infra/chain/hyperliquid"
	exchangehyperliquid "addresswatch/internal/infra/exchange/hyperliquid"
	"addresswatch/internal/infra/messaging/telegram"
	"addresswatch/internal/infra/storage/redis"
	"addresswatch/internal/maintenance"
	"addresswatch/internal/notify"
	"addresswatch/internal/pkg/logger"
	"addresswatch/internal/pkg/resilience/ratelimit"
	"addresswatch/internal/pkg/telemetry"
	internalhttp "addresswatch/internal/pkg/transport/http"
	"addresswatch/internal/pkg/transport/jsonrpc"
	"addresswatch/internal/registry"
	"addresswatch/internal/scheduler"
)

const (
	cleanupEvery     = 24 * time.Hour
	healthCheckEvery = 5 * time.Minute
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		_ = logger.Init()
		logger.Fatal(ctx, "failed to load configuration", "error", err)
	}

	// Telemetry comes up before the logger so the OTEL bridge core is
	// attached on initialization.
	shutdownTelemetry, err := telemetry.Init(ctx, "addresswatch")
	if err != nil {
		_ = logger.Init()
		logger.Fatal(ctx, "failed to initialize telemetry", "error", err)
	}
	defer shutdownTelemetry(ctx)

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	redisClient, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	rpcConn := jsonrpc.NewClient(internalhttp.NewClient(), cfg.HyperliquidRPCURL)
	chainClient := chainhyperliquid.NewClient(rpcConn)
	exchangeClient := exchangehyperliquid.NewClient(cfg.HyperliquidAPIURL)

	messenger, err := telegram.NewMessenger(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize telegram bot", "error", err)
	}

	alerts := alert.New(messenger, cfg.AdminUserID)

	registryService := registry.New(redisClient,
		registry.WithMaxAddressesPerUser(cfg.MaxAddressesPerUser),
	)
	notifyService := notify.New(redisClient, messenger)
	scanService := addrscan.New(chainClient, exchangeClient, redisClient, redisClient, notifyService,
		addrscan.WithRateLimiter(ratelimit.New(cfg.APIRateLimit)),
		addrscan.WithDefaultScanInterval(time.Duration(cfg.DefaultScanInterval)*time.Second),
	)
	maintenanceService := maintenance.New(redisClient)

	sched := scheduler.New()
	var lastScanErrors uint64
	for _, job := range []struct {
		name  string
		every time.Duration
		task  scheduler.Task
	}{
		{"scan", cfg.ScanTick, scanService.RunCycle},
		{"dispatch", cfg.DispatchTick, notifyService.DispatchPending},
		{"cleanup", cleanupEvery, func(ctx context.Context) error {
			return maintenanceService.CleanupOldData(ctx, cfg.RetentionDays)
		}},
		{"health", healthCheckEvery, func(ctx context.Context) error {
			if err := maintenanceService.HealthCheck(ctx); err != nil {
				alerts.Alert(ctx, "storage_unreachable", err.Error())
				return err
			}

			stats := scanService.Stats()
			if failed := stats.ScanErrors - lastScanErrors; failed > 0 {
				alerts.Alert(ctx, "scan_errors", fmt.Sprintf("%d scans failed since the last health check", failed))
			}
			lastScanErrors = stats.ScanErrors

			logger.Info(ctx, "scan statistics",
				"total_scans", stats.TotalScans,
				"addresses_with_changes", stats.AddressesWithChanges,
				"scan_errors", stats.ScanErrors,
				"last_cycle", stats.LastCycle,
			)
			return nil
		}},
	} {
		if err := sched.Register(job.name, job.every, job.task); err != nil {
			logger.Fatal(ctx, "failed to register scheduled job", "job", job.name, "error", err)
		}
	}

	if err := cli.Run(ctx, sched, registryService, scanService, maintenanceService); err != nil {
		logger.Fatal(ctx, "application terminated with error", "error", err)
	}
}
