package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/banner"
	"github.com/adxhq/campaignd/internal/observability"
	"github.com/adxhq/campaignd/internal/schema"
)

// Config holds the feed client settings.
type Config struct {
	BaseURL string
	APIKey  string

	// MaxConcurrency caps concurrent detail fetches; 0 means no cap.
	MaxConcurrency int

	MaxBiddingPrice  float64
	BaselinePriceCPM float64
	MaxCostPerHour   float64
}

// Client fetches the upstream offer feed and converts it into canonical
// campaign bodies. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	templates  *banner.Registry
	mapper     *schema.Mapper
	logger     *zap.Logger
}

// NewClient builds a feed client. A nil logger falls back to the
// process-wide one.
func NewClient(cfg Config, templates *banner.Registry, mapper *schema.Mapper, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.L()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		templates:  templates,
		mapper:     mapper,
		logger:     logger.Named("feed"),
	}
}

// offerStub is the index endpoint's entry; only the id matters.
type offerStub struct {
	ID string `json:"id"`
}

// Ingest fetches the offer index, then every offer's detail concurrently,
// and converts each offer into a canonical campaign body. The first fetch
// error cancels the remaining fetches and fails the whole run; a partial
// feed never reaches the store. An empty apiKey or zero prices fall back to
// the configured defaults.
func (c *Client) Ingest(ctx context.Context, apiKey string, prices PriceOverrides) ([]schema.Contents, error) {
	start := time.Now()
	defer func() {
		observability.FeedIngestDuration.Observe(time.Since(start).Seconds())
	}()

	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}
	if prices.MaxBiddingPrice == 0 {
		prices.MaxBiddingPrice = c.cfg.MaxBiddingPrice
	}
	if prices.BaselinePriceCPM == 0 {
		prices.BaselinePriceCPM = c.cfg.BaselinePriceCPM
	}
	if prices.MaxCostPerHour == 0 {
		prices.MaxCostPerHour = c.cfg.MaxCostPerHour
	}

	var stubs []offerStub
	if err := c.getJSON(ctx, c.indexURL(apiKey), "index", &stubs); err != nil {
		return nil, err
	}
	c.logger.Info("fetched offer index", zap.Int("offers", len(stubs)))

	cv := &converter{
		templates: c.templates,
		mapper:    c.mapper,
		prices:    prices,
		now:       time.Now,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]schema.Contents, len(stubs))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	var sem chan struct{}
	if c.cfg.MaxConcurrency > 0 {
		sem = make(chan struct{}, c.cfg.MaxConcurrency)
	}

	for i, stub := range stubs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}
			}

			offer, err := c.fetchOffer(ctx, apiKey, id)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = cv.Convert(offer)
		}(i, stub.ID)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	observability.FeedOffersConverted.Add(float64(len(results)))
	c.logger.Info("feed ingestion complete",
		zap.Int("campaigns", len(results)),
		zap.Duration("took", time.Since(start)))
	return results, nil
}

// fetchOffer retrieves one offer's detail. The endpoint answers with a
// single offer object.
func (c *Client) fetchOffer(ctx context.Context, apiKey, id string) (Offer, error) {
	var offer Offer
	if err := c.getJSON(ctx, c.detailURL(apiKey, id), "detail", &offer); err != nil {
		return Offer{}, err
	}
	return offer, nil
}

func (c *Client) indexURL(apiKey string) string {
	return c.cfg.BaseURL + "?apikey=" + url.QueryEscape(apiKey)
}

func (c *Client) detailURL(apiKey, id string) string {
	return c.indexURL(apiKey) + "&id=" + url.QueryEscape(id)
}

// getJSON fetches a URL and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL, kind string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		observability.FeedFetches.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("feed: build %s request: %w", kind, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.FeedFetches.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("feed: fetch %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		observability.FeedFetches.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("feed: fetch %s: unexpected status %d", kind, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.FeedFetches.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("feed: decode %s response: %w", kind, err)
	}
	observability.FeedFetches.WithLabelValues(kind, "ok").Inc()
	return nil
}
