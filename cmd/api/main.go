package main

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/corelia-app/corelia-cart/api/controllers"
	"github.com/corelia-app/corelia-cart/api/routes"
	"github.com/corelia-app/corelia-cart/internal/cart"
	"github.com/corelia-app/corelia-cart/internal/checkout"
	"github.com/corelia-app/corelia-cart/pkg/config"
	"github.com/corelia-app/corelia-cart/pkg/corelia"
	"github.com/corelia-app/corelia-cart/pkg/db"
	"github.com/corelia-app/corelia-cart/pkg/logger"
	"github.com/corelia-app/corelia-cart/pkg/metrics"
	"github.com/corelia-app/corelia-cart/pkg/migrate"
	pkgredis "github.com/corelia-app/corelia-cart/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cart-gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cart-gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	closers := []io.Closer{dbClient}
	defer func() {
		if err := closeAll(closers); err != nil {
			logg.Error(context.Background(), "error closing dependencies", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	healthDeps := map[string]controllers.Pinger{"sqlite": dbClient}

	var idempotencyStore pkgredis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient)
		idempotencyStore = redisClient
		healthDeps["redis"] = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, checkout replay protection disabled")
	}

	backendClient, err := corelia.NewClient(cfg.Backend.BaseURL,
		corelia.WithToken(cfg.Backend.Token),
		corelia.WithTimeout(cfg.Backend.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	repo, err := cart.NewRepository(dbClient.DB(), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}
	store, err := cart.NewStore(context.Background(), repo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to restore cart", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	checkoutService, err := checkout.NewService(store, backendClient, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting cart gateway")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, healthDeps, idempotencyStore, store, checkoutService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "cart gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}

func closeAll(closers []io.Closer) error {
	var errs error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i].Close())
	}
	return errs
}
