// Package api exposes the campaign CRUD, feed import and health endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/config"
	"github.com/adxhq/campaignd/internal/db"
	"github.com/adxhq/campaignd/internal/feed"
	"github.com/adxhq/campaignd/internal/observability"
	"github.com/adxhq/campaignd/internal/schema"
)

// CampaignStore is the persistence surface the handlers need.
type CampaignStore interface {
	Insert(ctx context.Context, c *schema.Campaign) error
	Get(ctx context.Context, id string) (*schema.Campaign, error)
	List(ctx context.Context, params db.ListParams) ([]*schema.Campaign, error)
	Update(ctx context.Context, c *schema.Campaign) error
	Delete(ctx context.Context, id string) error
}

// CampaignPublisher pushes canonical campaign bodies to the bid engine.
type CampaignPublisher interface {
	PublishCampaign(ctx context.Context, c *schema.Campaign) error
	RemoveCampaign(ctx context.Context, id string) error
}

// FeedIngester pulls the third-party offer feed.
type FeedIngester interface {
	Ingest(ctx context.Context, apiKey string, prices feed.PriceOverrides) ([]schema.Contents, error)
}

// Server wires the handlers to their dependencies.
type Server struct {
	Logger    *zap.Logger
	Store     CampaignStore
	Publisher CampaignPublisher
	Mapper    *schema.Mapper
	Feed      FeedIngester
	Config    config.Config
}

// Routes builds the HTTP router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/campaigns", s.handleListCampaigns).Methods(http.MethodGet)
	r.HandleFunc("/campaigns", s.handleCreateCampaign).Methods(http.MethodPost)
	r.HandleFunc("/campaigns/{id}", s.handleGetCampaign).Methods(http.MethodGet)
	r.HandleFunc("/campaigns/{id}", s.handleUpdateCampaign).Methods(http.MethodPut)
	r.HandleFunc("/campaigns/{id}", s.handleDeleteCampaign).Methods(http.MethodDelete)

	r.HandleFunc("/feed/import", s.handleFeedImport).Methods(http.MethodPost)

	return r
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		observability.RequestCount.WithLabelValues(endpoint, r.Method, strconv.Itoa(sw.status)).Inc()
		observability.RequestLatency.WithLabelValues(endpoint, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
