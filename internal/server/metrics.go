package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of Prometheus collectors the server runtime updates.
type Metrics struct {
	Connections      prometheus.Counter
	CommandTotal     *prometheus.CounterVec
	MempoolSize      prometheus.Gauge
	ProofFoldSeconds prometheus.Histogram
}

// NewMetrics registers and returns the server's metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_connections_total",
			Help: "Total number of accepted TCP connections.",
		}),
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_commands_total",
			Help: "Total number of dispatched commands, by command name.",
		}, []string{"command"}),
		MempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_mempool_size",
			Help: "Number of transactions currently queued in the mempool.",
		}),
		ProofFoldSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_proof_fold_seconds",
			Help:    "Wall time spent sealing a block, including the liabilities proof fold.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Connections, m.CommandTotal, m.MempoolSize, m.ProofFoldSeconds)
	return m
}

// commandName returns the first underscore-delimited token of line, used to
// label CommandTotal without leaking raw addresses/amounts into metric
// label values.
func commandName(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '_' {
			return line[:i]
		}
	}
	if line == "" {
		return "empty"
	}
	return line
}
