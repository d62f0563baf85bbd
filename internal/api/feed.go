package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/feed"
	"github.com/adxhq/campaignd/internal/schema"
)

// handleFeedImport pulls the offer feed and persists each offer as an
// inactive campaign awaiting review. Query parameters override the
// configured API key and prices for this run only.
func (s *Server) handleFeedImport(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "feed ingestion is not configured")
		return
	}

	q := r.URL.Query()
	prices := feed.PriceOverrides{}
	var err error
	if prices.MaxBiddingPrice, err = priceParam(q.Get("max_bidding_price")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid max_bidding_price")
		return
	}
	if prices.BaselinePriceCPM, err = priceParam(q.Get("baseline_price")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid baseline_price")
		return
	}
	if prices.MaxCostPerHour, err = priceParam(q.Get("max_cost_per_hour")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid max_cost_per_hour")
		return
	}

	bodies, err := s.Feed.Ingest(r.Context(), q.Get("apikey"), prices)
	if err != nil {
		s.Logger.Error("feed ingestion failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "feed ingestion failed")
		return
	}

	imported := 0
	for i := range bodies {
		c := &schema.Campaign{
			ID:       uuid.NewString(),
			Active:   0,
			Rev:      bodies[i].Rev,
			Contents: bodies[i],
		}
		if err := s.Store.Insert(r.Context(), c); err != nil {
			s.Logger.Error("store imported campaign failed",
				zap.String("offer_id", c.Contents.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store imported campaigns")
			return
		}
		imported++
	}

	s.Logger.Info("feed import complete", zap.Int("imported", imported))
	writeJSON(w, http.StatusOK, map[string]any{"imported": imported})
}

func priceParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
