package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aquashop/internal/catalog"
	"aquashop/internal/config"
	"aquashop/internal/db"
	"aquashop/internal/httpserver"
	"aquashop/internal/logger"
	"aquashop/internal/metrics"
	"aquashop/internal/migrate"
	"aquashop/internal/promo"
	abandonedrepo "aquashop/internal/repository/abandoned"
	cartrepo "aquashop/internal/repository/cart"
	categoryrepo "aquashop/internal/repository/category"
	contentrepo "aquashop/internal/repository/content"
	giftrepo "aquashop/internal/repository/gift"
	productrepo "aquashop/internal/repository/product"
	promotionrepo "aquashop/internal/repository/promotion"
	cartsvc "aquashop/internal/service/cart"
	categorysvc "aquashop/internal/service/category"
	productsvc "aquashop/internal/service/product"
	"aquashop/internal/snapshot"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Idle carts are dropped from memory after this long; their snapshot stays in Redis.
const cartIdleTimeout = 2 * time.Hour

func main() {
	envErr := godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(logger.Options{
		ServiceName: "aquashop-api",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	if envErr != nil {
		log.Debug().Msg(".env file not found, relying on environment")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	if cfg.MigrateOnStart {
		if err := migrate.Apply(ctx, dbpool); err != nil {
			log.Fatal().Err(err).Msg("apply migrations")
		}
		log.Info().Msg("migrations applied")
	}

	var content contentrepo.Repository = contentrepo.NewPostgres(dbpool, &log)
	var snapshots cartsvc.SnapshotStore
	if cfg.RedisURL != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to redis")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("close redis")
			}
		}()
		content = contentrepo.NewCached(content, rdb, cfg.ContentCacheTTL, &log)
		snapshots = snapshot.New(rdb, cfg.SnapshotTTL, &log)
	} else {
		log.Warn().Msg("REDIS_URL not set: content cache and cart snapshots disabled")
	}

	productRepo := productrepo.NewPostgres(dbpool, &log)
	cat := catalog.New(content, promotionrepo.NewPostgres(dbpool, &log), productRepo, &log)

	var validator cartsvc.PromoValidator
	if cfg.PromoValidationURL != "" {
		validator = promo.New(cfg.PromoValidationURL, cfg.PromoTimeout, &log)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	carts := cartsvc.NewRegistry(cartsvc.Deps{
		Items:     cartrepo.NewPostgres(dbpool, &log),
		Catalog:   cat,
		Products:  productRepo,
		Gifts:     giftrepo.NewPostgres(dbpool, &log),
		Promo:     validator,
		Abandoned: abandonedrepo.NewPostgres(dbpool, &log),
		Snapshots: snapshots,
		Metrics:   metrics.NewCartMetrics(reg),
		Logger:    &log,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, &log, dbpool, httpserver.Deps{
		Carts:       carts,
		ProductSvc:  productsvc.New(productRepo, cat),
		CategorySvc: categorysvc.New(categoryrepo.NewPostgres(dbpool, &log)),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweep(sweepCtx, carts, cfg.WheelGiftSweepInterval, &log)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("server stopped")
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// sweep drops expired wheel gifts and idle carts until ctx is done.
func sweep(ctx context.Context, carts *cartsvc.Registry, interval time.Duration, log *zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			carts.CleanupExpiredGifts(ctx)
			if n := carts.Evict(cartIdleTimeout); n > 0 {
				log.Debug().Int("evicted", n).Msg("cart registry: evict idle carts")
			}
		}
	}
}
