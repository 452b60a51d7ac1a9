package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts assistant turns and decisions. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	turns     *prometheus.CounterVec
	proposals *prometheus.CounterVec
	decisions *prometheus.CounterVec
	pending   prometheus.GaugeFunc
}

// NewMetrics registers the assistant collectors on reg. The pending gauge
// reads the store on scrape.
func NewMetrics(reg prometheus.Registerer, store *ProposalStore) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_assistant",
			Name:      "turns_total",
			Help:      "Streamed assistant turns by terminal outcome.",
		}, []string{"outcome"}),
		proposals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_assistant",
			Name:      "proposals_total",
			Help:      "Proposals issued by tool.",
		}, []string{"tool"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_assistant",
			Name:      "decisions_total",
			Help:      "Proposal decisions by tool and result.",
		}, []string{"tool", "result"}),
	}
	if store != nil {
		m.pending = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "trip_assistant",
			Name:      "pending_proposals",
			Help:      "Proposals waiting for a decision, including expired ones not yet evicted.",
		}, func() float64 {
			return float64(store.Len())
		})
	}
	return m
}

func (m *Metrics) turn(outcome Outcome) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) proposal(tool Tool) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(string(tool)).Inc()
}

func (m *Metrics) decision(tool Tool, result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(tool), result).Inc()
}
