package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the counters exported by the settlement engine.
type Metrics struct {
	SettlementTransitions *prometheus.CounterVec
	CarryForwardEntities  *prometheus.CounterVec
	CacheRequests         *prometheus.CounterVec
	BankTransactionsApply prometheus.Counter
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		SettlementTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubsettle",
			Name:      "settlement_transitions_total",
			Help:      "Settlement lifecycle transitions by kind.",
		}, []string{"transition"}),
		CarryForwardEntities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubsettle",
			Name:      "carryforward_entities_total",
			Help:      "Entities processed by week close, by outcome.",
		}, []string{"outcome"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubsettle",
			Name:      "settlement_cache_requests_total",
			Help:      "Settlement aggregate cache lookups by result.",
		}, []string{"result"}),
		BankTransactionsApply: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clubsettle",
			Name:      "bank_transactions_applied_total",
			Help:      "Bank transactions converted into ledger entries.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.SettlementTransitions,
			m.CarryForwardEntities,
			m.CacheRequests,
			m.BankTransactionsApply,
		)
	}
	return m
}

// NopMetrics returns unregistered collectors, for tests and tools.
func NopMetrics() *Metrics {
	return NewMetrics(nil)
}
