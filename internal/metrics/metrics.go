// Package metrics exports ledger activity as Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

const namespace = "tradejournal"

// Ledger implements journal.Observer on its own registry.
type Ledger struct {
	registry     *prometheus.Registry
	postings     *prometheus.CounterVec
	amount       *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	recalcs      prometheus.Counter
	recalcedRows prometheus.Counter
}

var _ journal.Observer = (*Ledger)(nil)

func NewLedger() *Ledger {
	m := &Ledger{
		registry: prometheus.NewRegistry(),
		postings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_total",
			Help:      "History rows posted, by operation.",
		}, []string{"operation"}),
		amount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posted_amount_abs_total",
			Help:      "Sum of absolute profit posted, by operation.",
		}, []string{"operation"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Ledger operations rejected, by reason.",
		}, []string{"reason"}),
		recalcs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recalculations_total",
			Help:      "Balance recalculations run.",
		}),
		recalcedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recalculated_rows_total",
			Help:      "History rows rewritten by recalculations.",
		}),
	}
	m.registry.MustRegister(
		m.postings, m.amount, m.rejections, m.recalcs, m.recalcedRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Ledger) Posted(op journal.Operation, profit decimal.Decimal) {
	code := string(op)
	m.postings.WithLabelValues(code).Inc()
	f, _ := profit.Abs().Float64()
	m.amount.WithLabelValues(code).Add(f)
}

func (m *Ledger) Rejected(err error) {
	m.rejections.WithLabelValues(journal.Reason(err)).Inc()
}

func (m *Ledger) Recalculated(rows int) {
	m.recalcs.Inc()
	m.recalcedRows.Add(float64(rows))
}

// Handler serves the registry in the Prometheus text format.
func (m *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Ledger) Registry() *prometheus.Registry { return m.registry }
