package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignd_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaignd_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// campaigns canonicalized, labelled by direction (from_client/to_client)
	CampaignsMapped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignd_campaigns_mapped_total",
			Help: "Total campaigns converted between client and canonical form",
		},
		[]string{"direction"},
	)

	// creatives silently dropped because their type tag was unrecognized
	CreativesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaignd_creatives_dropped_total",
			Help: "Total creatives dropped during canonicalization",
		},
	)

	// feed HTTP fetches, labelled by kind (index/detail) and outcome
	FeedFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignd_feed_fetches_total",
			Help: "Total feed HTTP fetches",
		},
		[]string{"kind", "outcome"},
	)

	// wall time of a full feed ingestion run
	FeedIngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaignd_feed_ingest_duration_seconds",
			Help:    "Duration of full feed ingestion runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	// offers converted into canonical campaigns
	FeedOffersConverted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaignd_feed_offers_converted_total",
			Help: "Total feed offers converted into campaigns",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		CampaignsMapped,
		CreativesDropped,
		FeedFetches,
		FeedIngestDuration,
		FeedOffersConverted,
	)
}
