// main.go

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"storefront-backend/internal/api"
	"storefront-backend/internal/auth"
	"storefront-backend/internal/cache"
	"storefront-backend/internal/config"
	"storefront-backend/internal/events"
	"storefront-backend/internal/pricing"
	"storefront-backend/internal/search"
	"storefront-backend/internal/storage"
	"storefront-backend/internal/store"
	"storefront-backend/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.DefaultSecretFetcher(getRegion()))
	if err != nil {
		return err
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("connecting to MongoDB", "database", cfg.MongoDatabase)
	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			slog.Error("mongo disconnect failed", "error", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	deps := api.Deps{
		Products:  db.Products,
		Users:     db.Users,
		Carts:     db.Carts,
		Addresses: db.Addresses,
		Orders:    db.Orders,
		Reviews:   db.Reviews,
		Features:  db.Features,
		Issuer:    auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Pricing: pricing.Calculator{
			GSTRate:     cfg.GSTRate,
			HandlingFee: cfg.HandlingFee,
			DeliveryFee: cfg.DeliveryFee,
		},
		Health:         db.Ping,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CookieSecure:   cfg.CookieSecure,
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, cfg.AuthRateLimit)
		if err != nil {
			slog.Error("redis unavailable, running without cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rc.Close()
			deps.Cache = rc
			slog.Info("connected to Redis", "addr", cfg.RedisAddr)
		}
	}

	if cfg.S3Bucket != "" {
		images, err := storage.NewS3Store(ctx, storage.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return err
		}
		deps.Images = images
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			slog.Error("kafka unavailable, events disabled", "brokers", cfg.KafkaBrokers, "error", err)
		} else {
			defer publisher.Close()
			deps.Events = publisher
		}
	}

	if cfg.ElasticsearchURL != "" {
		index, err := search.NewElasticIndex(cfg.ElasticsearchURL, cfg.ElasticsearchIndex)
		if err != nil {
			return err
		}
		deps.Search = index
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := api.New(deps)
	if cfg.ElasticsearchURL != "" {
		n, err := handler.Reindex(ctx)
		if err != nil {
			slog.Error("initial search reindex failed", "indexed", n, "error", err)
		} else {
			slog.Info("search index rebuilt", "products", n)
		}
	}

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         httpLogger(),
		Metrics:        telemetry.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func httpLogger() *slog.Logger {
	return slog.Default().With("component", "http")
}

func getRegion() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}
