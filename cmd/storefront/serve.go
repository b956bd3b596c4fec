package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/catalogue"
	"github.com/fjod/sweet-trails/internal/config"
	"github.com/fjod/sweet-trails/internal/handoff"
	h "github.com/fjod/sweet-trails/internal/http"
	"github.com/fjod/sweet-trails/internal/logger"
	"github.com/fjod/sweet-trails/internal/session"
	"github.com/fjod/sweet-trails/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the storefront HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "HTTP port, overrides HTTP_PORT"},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port := cmd.String("port"); port != "" {
		cfg.HTTPPort = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(os.Stdout, logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	kv, closeKV, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeKV()
	log.Info("cart storage ready", "backend", cfg.StorageBackend)

	repo, err := catalogue.Open(cfg.CatalogueDB)
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer repo.Close()

	keys, err := sessionKeys(cfg, log)
	if err != nil {
		return err
	}

	registry := session.NewRegistry(kv,
		session.WithIdleTTL(cfg.SessionTTL),
		session.WithLogger(log),
		session.WithCartOptions(cart.WithShopName(cfg.ShopName)),
	)
	defer registry.Close()

	var notifier handoff.Notifier = handoff.NopNotifier{}
	if cfg.NotifyEnabled() {
		notifier = handoff.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("handoff notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer notifier.Close()

	router := h.NewRouter(h.RouterConfig{
		Cart:           h.NewCartHandler(registry, repo, notifier, cfg.WhatsAppNumber, cfg.RequestTimeout),
		Catalogue:      h.NewCatalogueHandler(repo, cfg.RequestTimeout),
		Sessions:       session.NewIdentity(keys, cfg.CookieSecure, log),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

func sessionKeys(cfg *config.Config, log *slog.Logger) (session.Keys, error) {
	if cfg.AppAuthKey == "" && cfg.AppEncKey == "" {
		log.Warn("APP_AUTH_KEY/APP_ENC_KEY not set, using ephemeral session keys; carts are orphaned on restart")
		return session.EphemeralKeys()
	}
	keys, err := session.DecodeKeys(cfg.AppAuthKey, cfg.AppEncKey)
	if err != nil {
		return session.Keys{}, fmt.Errorf("load session keys: %w", err)
	}
	return keys, nil
}

// openStorage builds the KV backend named by the config. Remote backends are
// wrapped in a circuit breaker.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.KV, func() error, error) {
	noop := func() error { return nil }
	breaker := func(kv storage.KV) storage.KV {
		return storage.NewBreaker(kv, storage.BreakerSettings{Name: cfg.StorageBackend}, log)
	}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryKV(), noop, nil

	case config.BackendFile:
		kv, err := storage.NewFileKV(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return kv, noop, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return breaker(storage.NewRedisKV(client)), client.Close, nil

	case config.BackendMongo:
		db, err := storage.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName, storage.MongoSettings{})
		if err != nil {
			return nil, nil, err
		}
		kv := storage.NewMongoKV(db)
		if err := kv.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, nil, err
		}
		return breaker(kv), func() error { return db.Client().Disconnect(context.Background()) }, nil

	case config.BackendSQL:
		db, err := storage.OpenSQL(cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, nil, err
		}
		kv, err := storage.NewSQLKV(db)
		if err != nil {
			return nil, nil, err
		}
		return breaker(kv), kv.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}
