// Package metrics exposes ledger activity as Prometheus counters.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/montaza/internal/ledger"
)

const namespace = "montaza"

// Rejection reasons.
const (
	ReasonNotFound          = "not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonOverReturn        = "over_return"
	ReasonFinalizeBlocked   = "finalize_blocked"
	ReasonOutstanding       = "outstanding_checkouts"
	ReasonEventFinalized    = "event_finalized"
	ReasonInvalidQuantity   = "invalid_quantity"
	ReasonPrivilege         = "privilege_required"
	ReasonQuantityConflict  = "quantity_conflict"
)

// Metrics holds the counters and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry

	checkouts        prometheus.Counter
	unitsOut         prometheus.Counter
	returns          *prometheus.CounterVec
	unitsReturned    prometheus.Counter
	rejections       *prometheus.CounterVec
	finalizeAttempts *prometheus.CounterVec
}

// LiveStats reports on the change feed.
type LiveStats interface {
	ClientCount() int
	Dropped() uint64
	Evicted() uint64
	WriteFailures() uint64
}

// New creates the counters on a dedicated registry, together with Go runtime
// and process collectors. live may be nil.
func New(live LiveStats) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkouts recorded.",
		}),
		unitsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_units_total",
			Help:      "Units checked out to events.",
		}),
		returns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "returns_total",
			Help:      "Returns recorded, by kind.",
		}, []string{"kind"}),
		unitsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "return_units_total",
			Help:      "Units returned to base.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rejections_total",
			Help:      "Ledger operations rejected, by reason.",
		}, []string{"reason"}),
		finalizeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_attempts_total",
			Help:      "Attempts to finalize an event, by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkouts, m.unitsOut, m.returns, m.unitsReturned, m.rejections, m.finalizeAttempts,
	)
	if live != nil {
		m.registerLive(live)
	}

	for _, kind := range []string{"full", "partial"} {
		m.returns.WithLabelValues(kind)
	}
	for _, outcome := range []string{"finalized", "blocked"} {
		m.finalizeAttempts.WithLabelValues(outcome)
	}

	return m
}

func (m *Metrics) registerLive(live LiveStats) {
	counter := func(name, help string, f func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(f()) })
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected change feed clients.",
		}, func() float64 { return float64(live.ClientCount()) }),
		counter("live_dropped_messages_total", "Change feed messages dropped for slow clients.", live.Dropped),
		counter("live_evicted_clients_total", "Change feed clients disconnected for falling behind.", live.Evicted),
		counter("live_write_failures_total", "Change feed connections ended by a failed write.", live.WriteFailures),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the counters live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Checkout counts a recorded checkout of quantity units.
func (m *Metrics) Checkout(quantity int) {
	m.checkouts.Inc()
	m.unitsOut.Add(float64(quantity))
}

// Return counts a recorded return of quantity units.
func (m *Metrics) Return(quantity int, res ledger.ReturnResult) {
	kind := "partial"
	if res.Full {
		kind = "full"
	}
	m.returns.WithLabelValues(kind).Inc()
	m.unitsReturned.Add(float64(quantity))
}

// Finalize counts an attempt to finalize an event.
func (m *Metrics) Finalize(err error) {
	outcome := "finalized"
	var blocked *ledger.FinalizeBlockedError
	if errors.As(err, &blocked) {
		outcome = "blocked"
	} else if err != nil {
		return
	}
	m.finalizeAttempts.WithLabelValues(outcome).Inc()
}

// Reject counts a ledger rejection. Errors that are not ledger rejections
// are ignored.
func (m *Metrics) Reject(err error) {
	if reason := Reason(err); reason != "" {
		m.rejections.WithLabelValues(reason).Inc()
	}
}

// Reason maps a ledger error to its rejection reason, or "" for other errors.
func Reason(err error) string {
	var (
		stock    *ledger.InsufficientStockError
		over     *ledger.OverReturnError
		blocked  *ledger.FinalizeBlockedError
		conflict *ledger.QuantityConflictError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &stock):
		return ReasonInsufficientStock
	case errors.As(err, &over):
		return ReasonOverReturn
	case errors.As(err, &blocked):
		return ReasonFinalizeBlocked
	case errors.As(err, &conflict):
		return ReasonQuantityConflict
	case errors.Is(err, ledger.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ledger.ErrHasOutstandingCheckouts):
		return ReasonOutstanding
	case errors.Is(err, ledger.ErrEventFinalized):
		return ReasonEventFinalized
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return ReasonInvalidQuantity
	case errors.Is(err, ledger.ErrPrivilegeRequired):
		return ReasonPrivilege
	}
	return ""
}
