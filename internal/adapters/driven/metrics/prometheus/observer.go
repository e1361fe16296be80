// Package prometheus exports core measurements as Prometheus metrics.
package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// Ensure Observer implements the interface.
var _ driven.Observer = (*Observer)(nil)

// Observer records enrichment, resolver and watch activity.
type Observer struct {
	Enriched           *prometheus.CounterVec
	EnrichDuration     *prometheus.HistogramVec
	EnrichFailures     *prometheus.CounterVec
	ResolverBatches    *prometheus.CounterVec
	ResolverBatchKeys  prometheus.Histogram
	SnapshotsDelivered *prometheus.CounterVec
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		Enriched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "charterbook_relations_enriched_total",
			Help: "Relations enriched, by entity and resulting status",
		}, []string{"entity", "status"}),
		EnrichDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "charterbook_enrich_duration_seconds",
			Help:    "Duration of a single relation enrichment",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity"}),
		EnrichFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "charterbook_enrich_failures_total",
			Help: "Enrichments aborted, by entity and error kind",
		}, []string{"entity", "reason"}),
		ResolverBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "charterbook_resolver_batches_total",
			Help: "Multi-gets issued by the document resolver, by collection",
		}, []string{"collection"}),
		ResolverBatchKeys: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "charterbook_resolver_batch_keys",
			Help:    "Distinct references fetched per resolver multi-get",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		SnapshotsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "charterbook_snapshots_delivered_total",
			Help: "Snapshots pushed to watchers, by entity",
		}, []string{"entity"}),
	}
}

// RelationEnriched records one finished enrichment.
func (o *Observer) RelationEnriched(entity domain.Entity, status domain.Status, elapsed time.Duration) {
	o.Enriched.WithLabelValues(string(entity), string(status)).Inc()
	o.EnrichDuration.WithLabelValues(string(entity)).Observe(elapsed.Seconds())
}

// EnrichmentFailed records an aborted enrichment.
func (o *Observer) EnrichmentFailed(entity domain.Entity, err error) {
	o.EnrichFailures.WithLabelValues(string(entity), reason(err)).Inc()
}

// ResolverBatch records one multi-get.
func (o *Observer) ResolverBatch(collection string, keys int) {
	o.ResolverBatches.WithLabelValues(collection).Inc()
	o.ResolverBatchKeys.Observe(float64(keys))
}

// SnapshotDelivered records a snapshot pushed to a watcher.
func (o *Observer) SnapshotDelivered(entity domain.Entity) {
	o.SnapshotsDelivered.WithLabelValues(string(entity)).Inc()
}

// reason buckets errors into a small label set.
func reason(err error) string {
	var validation *domain.ValidationError
	var resolution *domain.ResolutionError
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &resolution):
		return "resolution"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}
