package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are collected per invocation and, when a textfile path is
// configured, written out for the node exporter textfile collector.
type Metrics struct {
	Registry *prometheus.Registry

	StatementsProcessed *prometheus.CounterVec
	TransactionsStored  prometheus.Counter
	UnparsedLines       prometheus.Counter
	RulesMatched        *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	CommandErrors       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StatementsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccparser",
			Name:      "statements_processed_total",
			Help:      "Statements processed, by resulting status.",
		}, []string{"status"}),
		TransactionsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccparser",
			Name:      "transactions_stored_total",
			Help:      "Transactions persisted from parsed statements.",
		}),
		UnparsedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccparser",
			Name:      "unparsed_lines_total",
			Help:      "Candidate statement lines that could not be parsed.",
		}),
		RulesMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccparser",
			Name:      "categorized_transactions_total",
			Help:      "Transactions categorized, by category.",
		}, []string{"category"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ccparser",
			Name:      "command_duration_seconds",
			Help:      "Wall time of a CLI command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccparser",
			Name:      "command_errors_total",
			Help:      "Failed CLI commands, by error kind.",
		}, []string{"command", "kind"}),
	}

	m.Registry.MustRegister(
		m.StatementsProcessed,
		m.TransactionsStored,
		m.UnparsedLines,
		m.RulesMatched,
		m.CommandDuration,
		m.CommandErrors,
	)
	return m
}

// WriteTextfile writes the registry in text exposition format. An empty path
// is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
