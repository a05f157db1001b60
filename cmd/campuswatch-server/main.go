package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BrandonDHaskell/campuswatch/internal/adminauth"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	sqlitestore "github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store/sqlite"
	"github.com/BrandonDHaskell/campuswatch/internal/config"
	"github.com/BrandonDHaskell/campuswatch/internal/db"
	"github.com/BrandonDHaskell/campuswatch/internal/grpcapi"
	"github.com/BrandonDHaskell/campuswatch/internal/httpapi"
	"github.com/BrandonDHaskell/campuswatch/internal/logging"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel).With("app", "campuswatch-server")

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Error("open database", "err", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer conn.Close()

	if cfg.SeedDev {
		if err := db.SeedDev(ctx, conn); err != nil {
			logger.Error("dev seed", "err", err)
			os.Exit(1)
		}
		logger.Info("dev seed applied", "gateway_token", db.DevGatewayToken, "sensor_token", db.DevSensorToken)
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	devices := sqlitestore.NewDeviceStore(conn, writer)
	directory := sqlitestore.NewDirectoryStore(conn)
	settingsStore := sqlitestore.NewSettingsStore(conn, writer)
	events := sqlitestore.NewAccessEventStore(conn, writer)
	readings := sqlitestore.NewTelemetryStore(conn, writer)

	// Services
	settings := service.NewSettingsService(settingsStore, logger)
	if _, err := settings.Current(ctx); err != nil {
		logger.Error("load monitoring settings", "err", err)
		os.Exit(1)
	}
	registry := service.NewDeviceRegistry(devices, directory, logger)
	accessSvc := service.NewAccessService(settings, directory, events, logger)
	telemetrySvc := service.NewTelemetryService(settings, directory, readings, logger)
	dashboard := service.NewDashboardService(settings, directory, readings, events)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		Registry:  registry,
		Access:    accessSvc,
		Telemetry: telemetrySvc,
		Settings:  settings,
		Dashboard: dashboard,
		Admins:    adminauth.NewIssuer(cfg.AdminJWTSecret, cfg.AdminTokenTTL),
		Health:    conn.PingContext,
	})

	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	// gRPC health
	var health *grpcapi.HealthServer
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Error("grpc listen", "err", err, "addr", cfg.GRPCAddr)
			os.Exit(1)
		}
		health = grpcapi.NewHealthServer(conn.PingContext, time.Duration(cfg.HealthIntervalSeconds)*time.Second, logger)
		go health.Run(ctx)
		go func() {
			logger.Info("grpc health listening", "addr", cfg.GRPCAddr)
			if err := health.Serve(lis); err != nil {
				logger.Error("grpc server error", "err", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if health != nil {
		health.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
}
