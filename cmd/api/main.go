package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loanflow/auth"
	"loanflow/borrower"
	"loanflow/config"
	"loanflow/db"
	"loanflow/events"
	"loanflow/logger"
	"loanflow/metrics"
	"loanflow/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("loanflow: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	identities, details, closeStores, err := openStores(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeStores()

	provider, closeProvider, err := openProvider(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeProvider()

	publisher := events.Publisher(events.NoopPublisher{})
	if cfg.NATS.URL != "" {
		p, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	repo, err := auth.NewDemoRepository()
	if err != nil {
		return err
	}
	authService := auth.NewService(repo, identities, cfg.Auth.JWTSecret).
		WithLoginDelay(cfg.Auth.LoginDelay).
		WithLogger(lg.Named("auth")).
		WithMetrics(rec).
		WithPublisher(publisher)

	dashLog := lg.Named("dashboard")
	registry := borrower.NewRegistry(func(sessionID string) *borrower.Dashboard {
		cache := borrower.NewDetailCache(session.Scoped(details, sessionID))
		return borrower.NewDashboard(provider, cache).
			WithActionDelay(cfg.Data.ActionDelay).
			WithLogger(dashLog.With(zap.String("session_id", sessionID))).
			WithMetrics(rec).
			WithPublisher(publisher)
	}).WithIdleTTL(cfg.Redis.SessionTTL)

	server := &Server{
		authService: authService,
		dashboards:  registry,
		metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		log:         lg.Named("http"),
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: server.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("api listening", zap.String("addr", cfg.HTTP.Addr), zap.String("provider", cfg.Data.Provider))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	lg.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// openStores returns the durable identity store and the session store.
// Without a Redis address both live in memory.
func openStores(ctx context.Context, cfg config.RedisConfig) (session.Store, session.Store, func(), error) {
	if cfg.Address == "" {
		return session.NewMemoryStore(0), session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	client, err := session.NewRedisClient(ctx, session.RedisOptions{
		Address:  cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	identities := session.NewRedisStore(client, "loanflow:auth:", 0)
	details := session.NewRedisStore(client, "loanflow:session:", cfg.SessionTTL)
	return identities, details, func() { _ = client.Close() }, nil
}

func openProvider(ctx context.Context, cfg *config.Config, lg *zap.Logger) (borrower.Provider, func(), error) {
	if cfg.Data.Provider != config.ProviderPostgres {
		return borrower.NewFixtureProvider(cfg.Data.FetchDelay), func() {}, nil
	}

	pool, err := db.Open(ctx, cfg.Database.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Postgres.Migrate {
		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		lg.Info("migrations applied", zap.Strings("files", applied))
	}
	return borrower.NewPGProvider(pool, auth.DemoCredentials()[0].User.ID), pool.Close, nil
}
