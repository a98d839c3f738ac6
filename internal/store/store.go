// Package store persists the whole ledger as a single document.
//
// Every backend reads and writes the full account collection. Save performs
// a compare-and-swap on Ledger.Revision so a writer holding a stale copy gets
// ErrStale instead of overwriting someone else's changes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/orionledger/internal/domain"
)

// ErrStale is returned by Save when the stored revision moved since Load.
var ErrStale = errors.New("ledger document changed since it was loaded")

// Store is the persistence boundary for the ledger.
//
// Load yields an empty ledger when nothing has been stored yet or the stored
// document cannot be decoded; it only fails on I/O faults. Save replaces the
// whole document and, on success, advances l.Revision. Saving a ledger whose
// accounts equal the stored ones writes nothing and keeps the revision.
type Store interface {
	Load(ctx context.Context) (*domain.Ledger, error)
	Save(ctx context.Context, l *domain.Ledger) error
	Close() error
}

var (
	saveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_store_saves_total",
		Help: "Document saves, labeled by backend and result",
	}, []string{"backend", "result"})

	saveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_store_save_duration_seconds",
		Help:    "Latency of whole-document saves",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"backend"})
)

func observeSave(backend string, start time.Time, err error) {
	saveLatency.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	result := "ok"
	switch {
	case errors.Is(err, ErrStale):
		result = "stale"
	case err != nil:
		result = "error"
	}
	saveTotal.WithLabelValues(backend, result).Inc()
}
