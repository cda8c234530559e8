package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type chainMetrics struct {
	txCommitted prometheus.Counter
	txAborted   prometheus.Counter
	events      *prometheus.CounterVec
}

func (m *chainMetrics) init(reg prometheus.Registerer) {
	promautoFactory := promauto.With(reg)
	m.txCommitted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "okinoko_gov_tx_committed_total",
		Help: "transactions committed",
	})
	m.txAborted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "okinoko_gov_tx_aborted_total",
		Help: "transactions rolled back",
	})
	m.events = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "okinoko_gov_events_total",
		Help: "committed events by kind",
	}, []string{"kind"})
}
