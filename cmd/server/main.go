package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/api"
	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/config"
	"github.com/adxhq/campaignd/internal/db"
	"github.com/adxhq/campaignd/internal/feed"
	"github.com/adxhq/campaignd/internal/observability"
	"github.com/adxhq/campaignd/internal/schema"
)

func main() {
	cfg := config.Load()
	logger, err := observability.InitLogger(cfg.ServiceName)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.InitPostgres(cfg.PostgresDSN, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	redisStore, err := db.InitRedis(cfg.RedisAddr, cfg.RedisKeyPrefix, logger)
	if err != nil {
		return err
	}
	defer redisStore.Close()

	registry := banner.NewRegistry(banner.DefaultTemplates())
	if cfg.BannerTemplatesPath != "" {
		registry, err = banner.LoadRegistry(cfg.BannerTemplatesPath)
		if err != nil {
			return err
		}
		logger.Info("loaded banner templates",
			zap.String("path", cfg.BannerTemplatesPath),
			zap.Int("templates", registry.Len()))
	}

	mapper := schema.NewMapper(registry, schema.DefaultDataAssetRegistry(), logger)
	feedClient := feed.NewClient(feed.Config{
		BaseURL:          cfg.FeedURL,
		APIKey:           cfg.FeedAPIKey,
		MaxConcurrency:   cfg.FeedMaxConcurrency,
		MaxBiddingPrice:  cfg.MaxBiddingPrice,
		BaselinePriceCPM: cfg.BaselinePriceCPM,
		MaxCostPerHour:   cfg.MaxCostPerHour,
	}, registry, mapper, logger)

	server := &api.Server{
		Logger:    logger,
		Store:     pg,
		Publisher: redisStore,
		Mapper:    mapper,
		Feed:      feedClient,
		Config:    cfg,
	}

	router := server.Routes()
	router.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
