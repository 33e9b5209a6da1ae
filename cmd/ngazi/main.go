// Package main is the entry point for the ngazi workflow resolution server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pitabwire/ngazi/internal/assignment"
	"github.com/pitabwire/ngazi/internal/config"
	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/history"
	"github.com/pitabwire/ngazi/internal/identity"
	"github.com/pitabwire/ngazi/internal/notification"
	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "ngazi", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Backing row sources: one pool shared by all three.
	sources, storeCloser, err := buildRowSources(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("store initialization failed", zap.Error(err))
		return 1
	}

	// Membership provider.
	memberships, err := identity.NewStaticMembershipProvider(cfg.Membership.File)
	if err != nil {
		logger.Error("membership provider initialization failed", zap.Error(err))
		return 1
	}

	// Delivery ledger.
	ledger, ledgerCloser, err := buildDeliveryLedger(cfg.Delivery, logger)
	if err != nil {
		logger.Error("delivery ledger initialization failed", zap.Error(err))
		return 1
	}

	// Domain components.
	dirLoader := directory.NewLoader(sources.roles, logger, metrics)
	dirCache := directory.NewCachedLoader(dirLoader, cfg.DirectoryCache.TTL, cfg.DirectoryCache.MaxEntries, metrics)
	resolver := assignment.NewResolver(logger, metrics)
	notifRouter := notification.NewRouter(sources.notifications, logger, metrics)
	dispatcher := notification.NewDispatcher(notifRouter, ledger, cfg.Delivery.DefaultTTL, logger, metrics)
	histLoader := history.NewLoader(sources.history, logger, metrics)

	jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL)

	readinessChecks := observability.ReadinessChecks{
		MembershipLoaded: func() bool { return memberships.UserCount() > 0 },
		RoleSource:       dirLoader,
		HistorySource:    histLoader,
		Membership:       memberships,
	}
	if hc, ok := ledger.(observability.HealthChecker); ok {
		readinessChecks.DeliveryLedger = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:        cfg,
		Authenticate:  transport.JWTAuthenticator(cfg.Identity, jwks),
		Metrics:       metrics,
		Directories:   dirCache,
		Assignments:   resolver,
		Notifications: notifRouter,
		Dispatcher:    dispatcher,
		Histories:     histLoader,
		Memberships:   memberships,
		Readiness:     readinessChecks,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("delivery_driver", cfg.Delivery.Driver),
		zap.Int("memberships", memberships.UserCount()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if storeCloser != nil {
		storeCloser()
	}
	if ledgerCloser != nil {
		ledgerCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// rowSources bundles the three backing row sources.
type rowSources struct {
	roles         directory.RoleRowSource
	notifications notification.RowSource
	history       history.RowSource
}

// buildRowSources creates the backing sources per the store driver. The
// memory driver serves development and tests; postgres shares one pool
// across all three sources.
func buildRowSources(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (rowSources, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory row sources")
		return rowSources{
			roles:         directory.NewMemRoleSource(),
			notifications: notification.NewMemRowSource(),
			history:       history.NewMemRowSource(),
		}, nil, nil
	case "postgres", "":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return rowSources{}, nil, fmt.Errorf("store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return rowSources{}, nil, fmt.Errorf("store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return rowSources{}, nil, fmt.Errorf("store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return rowSources{}, nil, fmt.Errorf("store: ping: %w", err)
		}

		return rowSources{
			roles:         directory.NewPgRoleSource(pool),
			notifications: notification.NewPgRowSource(pool),
			history:       history.NewPgRowSource(pool),
		}, pool.Close, nil
	default:
		return rowSources{}, nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}

// buildDeliveryLedger creates the delivery ledger per the delivery driver.
func buildDeliveryLedger(cfg config.DeliveryConfig, logger *zap.Logger) (notification.DeliveryLedger, func(), error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory delivery ledger")
		return notification.NewMemoryDeliveryLedger(), nil, nil
	case "redis":
		addr := os.Getenv(cfg.AddrEnv)
		if addr == "" {
			return nil, nil, fmt.Errorf("delivery ledger: %s environment variable not set", cfg.AddrEnv)
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
		return notification.NewRedisDeliveryLedger(client), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported delivery driver: %q", cfg.Driver)
	}
}
