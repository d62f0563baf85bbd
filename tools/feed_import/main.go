// Command feed_import pulls the offer feed once and prints the converted
// campaigns as JSON, for inspecting what an import would persist.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/config"
	"github.com/adxhq/campaignd/internal/feed"
	"github.com/adxhq/campaignd/internal/observability"
	"github.com/adxhq/campaignd/internal/schema"
)

func main() {
	cfg := config.Load()

	apiKey := flag.String("apikey", cfg.FeedAPIKey, "feed API key")
	baseURL := flag.String("url", cfg.FeedURL, "feed base URL")
	maxPrice := flag.Float64("max-bidding-price", cfg.MaxBiddingPrice, "bidding price cap")
	baseline := flag.Float64("baseline-price", cfg.BaselinePriceCPM, "baseline CPM")
	maxCostPerHour := flag.Float64("max-cost-per-hour", cfg.MaxCostPerHour, "hourly spend cap")
	flag.Parse()

	logger, err := observability.InitLogger("feed_import")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	registry := banner.NewRegistry(banner.DefaultTemplates())
	mapper := schema.NewMapper(registry, schema.DefaultDataAssetRegistry(), logger)
	client := feed.NewClient(feed.Config{
		BaseURL:          *baseURL,
		APIKey:           *apiKey,
		MaxConcurrency:   cfg.FeedMaxConcurrency,
		MaxBiddingPrice:  *maxPrice,
		BaselinePriceCPM: *baseline,
		MaxCostPerHour:   *maxCostPerHour,
	}, registry, mapper, logger)

	campaigns, err := client.Ingest(context.Background(), "", feed.PriceOverrides{})
	if err != nil {
		logger.Fatal("feed ingestion failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"campaigns": campaigns}); err != nil {
		logger.Fatal("encode output failed", zap.Error(err))
	}
}
