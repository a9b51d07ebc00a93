// FILE: internal/metrics/metrics.go

// Package metrics exposes the trainer's Prometheus counters on a private
// registry. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "repertoire"

// Collector holds the counters of one server instance
type Collector struct {
	registry *prometheus.Registry

	movesAdded       prometheus.Counter
	movesDeleted     prometheus.Counter
	positionsRemoved prometheus.Counter
	trainingEvents   *prometheus.CounterVec
	sessions         prometheus.Counter
	snapshots        *prometheus.CounterVec
	backups          *prometheus.CounterVec
}

// New creates a collector with its own registry, so parallel tests never
// collide on registration
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		movesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_added_total",
			Help:      "Moves added to a repertoire",
		}),
		movesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_deleted_total",
			Help:      "Moves deleted from a repertoire",
		}),
		positionsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_removed_total",
			Help:      "Positions removed by the orphan cascade",
		}),
		trainingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_events_total",
			Help:      "Graded training repetitions",
		}, []string{"grade"}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Training sessions started",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Repertoire snapshots handed to storage",
		}, []string{"result"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Compressed backup files written",
		}, []string{"result"}),
	}

	c.registry.MustRegister(
		c.movesAdded,
		c.movesDeleted,
		c.positionsRemoved,
		c.trainingEvents,
		c.sessions,
		c.snapshots,
		c.backups,
	)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) MoveAdded() {
	if c != nil {
		c.movesAdded.Inc()
	}
}

// MovesAdded counts a batch of added moves, as from a PGN import
func (c *Collector) MovesAdded(n int) {
	if c != nil && n > 0 {
		c.movesAdded.Add(float64(n))
	}
}

// MoveDeleted counts one deleted edge and the positions it orphaned
func (c *Collector) MoveDeleted(removedPositions int) {
	if c == nil {
		return
	}
	c.movesDeleted.Inc()
	c.positionsRemoved.Add(float64(removedPositions))
}

func (c *Collector) TrainingEvent(grade string) {
	if c != nil {
		c.trainingEvents.WithLabelValues(grade).Inc()
	}
}

func (c *Collector) SessionStarted() {
	if c != nil {
		c.sessions.Inc()
	}
}

// Snapshot counts a snapshot hand-off; result is "queued" or "failed"
func (c *Collector) Snapshot(result string) {
	if c != nil {
		c.snapshots.WithLabelValues(result).Inc()
	}
}

// Backup counts a backup run; result is "ok" or "failed"
func (c *Collector) Backup(result string) {
	if c != nil {
		c.backups.WithLabelValues(result).Inc()
	}
}
