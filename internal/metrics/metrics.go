package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики и gauge бота. Регистрируются в default registry и отдаются
// HTTP-сервером статуса на /metrics.
var (
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_submissions_total",
			Help: "Venue submissions by side and outcome",
		},
		[]string{"side", "outcome"}, // outcome: confirmed|rejected
	)

	LedgerWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_ledger_write_failures_total",
			Help: "Ledger writes that failed after a confirmed submission",
		},
	)

	StopLossTriggers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_stop_loss_triggers_total",
			Help: "Stop-loss watchers that fired",
		},
	)

	ActiveStrategies = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_active_strategies",
			Help: "Running strategy instances by kind",
		},
		[]string{"kind"},
	)

	OpenPositions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_open_positions",
			Help: "Currently open positions",
		},
	)

	FeedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_feed_errors_total",
			Help: "Transient feed failures by source",
		},
		[]string{"source"}, // source: price|pools|advisory
	)
)
