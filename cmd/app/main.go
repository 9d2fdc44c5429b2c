package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"triage-service/internal/config"
	"triage-service/internal/metrics"
	"triage-service/internal/repository"
	"triage-service/internal/service"
	transportHttp "triage-service/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting triage service",
		zap.Int("http_port", cfg.HttpPort),
		zap.Int("admin_port", cfg.AdminPort),
		zap.Bool("nats_enabled", cfg.NatsEnabled()),
		zap.Bool("clickhouse_enabled", cfg.ClickhouseEnabled()),
	)

	m := metrics.New()

	// ClickHouse, нужен только вместе с NATS
	var clickhouseRepo *repository.ClickhouseRepository
	if cfg.ClickhouseEnabled() && cfg.NatsEnabled() {
		clickhouseConn, err := initClickhouse(cfg)
		if err != nil {
			return err
		}
		defer clickhouseConn.Close()

		clickhouseRepo = repository.NewClickhouseRepository(clickhouseConn)
		if err := clickhouseRepo.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	} else if cfg.ClickhouseEnabled() {
		logger.Warn("CLICKHOUSE_HOST is set but NATS_URL is empty, analytics sink disabled")
	}

	// NATS
	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.NatsEnabled() {
		natsConn, closed, err := initNATS(cfg, logger)
		if err != nil {
			return err
		}
		// Drain должен завершиться до закрытия ClickHouse
		defer drainNATS(natsConn, closed, logger)

		publisher = service.NewNATSPublisher(natsConn)

		if clickhouseRepo != nil {
			natsSubscriber := service.NewNATSSubscriber(natsConn, clickhouseRepo, m, logger)
			if _, err := natsSubscriber.Subscribe(); err != nil {
				return fmt.Errorf("failed to start NATS subscriber: %w", err)
			}
		}
	}

	// Service
	triageService := service.NewTriageService(publisher, m, logger)

	// Handler, Routes
	handler := transportHttp.NewHandler(triageService, int64(cfg.MaxBodyBytes))
	router := transportHttp.NewRouter(handler, m, logger)

	// HTTP servers
	servers := []*http.Server{{
		Addr:              ":" + strconv.Itoa(cfg.HttpPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if cfg.AdminPort != 0 {
		servers = append(servers, &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.AdminPort),
			Handler:           transportHttp.NewOpsRouter(m),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	// Start servers
	serverErr := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("starting server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case runErr = <-serverErr:
		logger.Error("server failed", zap.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}

	logger.Info("server exiting")

	return runErr
}

func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = atomicLevel

	return zapCfg.Build()
}

func initClickhouse(cfg *config.Config) (clickhouse.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickhouseAddr()},
		Auth: clickhouse.Auth{
			Database: cfg.ChDatabase,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to Clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unable to ping Clickhouse: %w", err)
	}

	return conn, nil
}

func initNATS(cfg *config.Config, logger *zap.Logger) (*nats.Conn, <-chan struct{}, error) {
	closed := make(chan struct{})

	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name("triage-service"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			close(closed)
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, closed, nil
}

func drainNATS(nc *nats.Conn, closed <-chan struct{}, logger *zap.Logger) {
	if err := nc.Drain(); err != nil {
		logger.Warn("failed to drain NATS connection", zap.Error(err))
		nc.Close()
		return
	}

	select {
	case <-closed:
	case <-time.After(shutdownTimeout):
		logger.Warn("timed out draining NATS connection")
		nc.Close()
	}
}
