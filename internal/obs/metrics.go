package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram the coordinator publishes.
type Metrics struct {
	Inserts        prometheus.Counter
	Upserts        prometheus.Counter
	Deletes        prometheus.Counter
	SearchQueries  prometheus.Counter
	SearchErrors   prometheus.Counter
	SearchLatency  prometheus.Histogram
	FlushesTotal   prometheus.Counter
	FlushLatency   prometheus.Histogram
	Checkpoints    prometheus.Counter
	CheckpointSize prometheus.Histogram
}

// NewMetrics registers a fresh Metrics instance against reg. Pass a
// dedicated *prometheus.Registry per Index instance (rather than
// nil/the default registry) when a process holds more than one index,
// since spec.md's coordinator contract allows multiple independent
// instances in one process and the default registry would reject the
// second instance's duplicate metric names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Inserts: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_inserts_total",
			Help: "Total vectors added.",
		}),
		Upserts: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_upserts_total",
			Help: "Total upsert calls.",
		}),
		Deletes: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_deletes_total",
			Help: "Total tombstoning deletes.",
		}),
		SearchQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_search_queries_total",
			Help: "Total search calls.",
		}),
		SearchErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_search_errors_total",
			Help: "Total search calls that returned an error.",
		}),
		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name: "vectune_search_latency_seconds",
			Help: "Search latency, graph descent plus buffer scan.",
		}),
		FlushesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_flushes_total",
			Help: "Total buffer-to-graph flushes.",
		}),
		FlushLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name: "vectune_flush_latency_seconds",
			Help: "Time spent draining the buffer into the graph.",
		}),
		Checkpoints: f.NewCounter(prometheus.CounterOpts{
			Name: "vectune_checkpoints_total",
			Help: "Total checkpoint() calls.",
		}),
		CheckpointSize: f.NewHistogram(prometheus.HistogramOpts{
			Name: "vectune_checkpoint_bytes",
			Help: "Total bytes written across the three checkpoint files.",
		}),
	}
}
