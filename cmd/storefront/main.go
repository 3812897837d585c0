package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/packfinderz-storefront/api/routes"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/cron"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/env"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	store, err := openBackend(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	validator, err := couponValidator(ctx, cfg, logg)
	if err != nil {
		return err
	}

	resolver := shipping.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.Timeout, shipping.WithLogger(logg))
	if cfg.Shipping.BaseURL == "" {
		logg.Info(ctx, "shipping service not configured, using the built-in region table")
	}

	manager, err := session.NewManager(session.ManagerParams{
		Storage:   store.durable,
		Namespace: cfg.Storage.Namespace,
		Debounce:  cfg.Persistence.Debounce,
		Coupons:   validator,
		Shipping:  resolver,
		Settings: cart.Settings{
			Currency:              cfg.Pricing.Currency,
			FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
			TaxRate:               cfg.Pricing.TaxRate,
		},
		IdleTTL:            cfg.Sessions.IdleTTL,
		Logger:             logg,
		PersistenceMetrics: metrics.NewPersistenceMetrics(registry),
		CouponMetrics:      metrics.NewCouponMetrics(registry),
	})
	if err != nil {
		return err
	}

	cronService, err := newCronService(cfg, logg, registry, manager, store)
	if err != nil {
		return err
	}
	cronCtx, cancelCron := context.WithCancel(ctx)
	cronDone := make(chan struct{})
	go func() {
		defer close(cronDone)
		if err := cronService.Run(cronCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(cronCtx, "cron service stopped unexpectedly", err)
		}
	}()

	addr := ":" + env.FirstNonEmpty(cfg.App.Port, "PORT")
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Sessions: manager,
			Shipping: resolver,
			Ready:    store.ready,
			Gatherer: registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"env":     cfg.App.Env,
			"addr":    addr,
			"backend": cfg.Storage.Backend,
		}), "starting storefront server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			cancelCron()
			<-cronDone
			_ = manager.Close(context.Background())
			return err
		}
	}

	logg.Info(context.Background(), "shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "http server shutdown failed", err)
	}
	cancelCron()
	<-cronDone
	if err := manager.Close(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "flushing sessions failed", err)
	}
	return nil
}

func couponValidator(ctx context.Context, cfg *config.Config, logg *logger.Logger) (coupons.Validator, error) {
	if cfg.Coupons.BaseURL == "" {
		logg.Warn(ctx, "coupon service not configured, every promo code will be rejected")
		return coupons.NewStatic(), nil
	}
	return coupons.NewClient(cfg.Coupons.BaseURL, coupons.WithTimeout(cfg.Coupons.Timeout))
}

func newCronService(cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer, manager *session.Manager, store *backend) (*cron.Service, error) {
	registry := cron.NewRegistry()

	eviction, err := cron.NewSessionEvictionJob(logg, manager)
	if err != nil {
		return nil, err
	}
	registry.Register(eviction)

	revalidation, err := cron.NewCouponRevalidationJob(logg, manager)
	if err != nil {
		return nil, err
	}
	registry.Register(revalidation)

	if store.purger != nil {
		retention, err := cron.NewRecordRetentionJob(logg, store.purger, cfg.Storage.RecordTTL)
		if err != nil {
			return nil, err
		}
		registry.Register(retention)
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     cron.NewLocalLock(),
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Sessions.SweepInterval,
	})
}
