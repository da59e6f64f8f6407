package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Withdrawal lifecycle
	WithdrawalsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_withdrawals_submitted_total",
			Help: "Total number of withdrawal requests submitted",
		},
		[]string{"method"},
	)

	WithdrawalsRejectedAtValidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_withdrawals_invalid_total",
			Help: "Total number of withdrawal submissions refused by validation",
		},
		[]string{"code"},
	)

	WithdrawalDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_withdrawal_decisions_total",
			Help: "Total number of admin decisions on withdrawal requests",
		},
		[]string{"decision"},
	)

	WithdrawalAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_withdrawal_amount_usd",
			Help:    "Distribution of withdrawal amounts in USD",
			Buckets: []float64{100, 250, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"method"},
	)

	CommissionEarnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_commission_earned_usd_total",
			Help: "Commission recorded in USD",
		},
		[]string{"source"},
	)

	// Portfolio gauges, refreshed by the analytics snapshot job
	AssetsUnderManagement = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_assets_under_management_usd",
			Help: "Sum of current investor balances",
		},
	)

	InvestorsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backoffice_investors",
			Help: "Number of investors by performance class",
		},
		[]string{"performance"},
	)

	PendingWithdrawalsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_pending_withdrawals",
			Help: "Withdrawal requests awaiting a decision",
		},
	)

	WinRateGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_win_rate_percent",
			Help: "Share of profitable investors in percent",
		},
	)

	AvailableCommissionGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_available_commission_usd",
			Help: "Earned commission not yet withdrawn",
		},
	)

	SnapshotRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_analytics_snapshot_runs_total",
			Help: "Analytics snapshot job runs",
		},
		[]string{"status"},
	)
)

// RecordWithdrawalSubmitted records a successful submission
func RecordWithdrawalSubmitted(method string, amount float64) {
	WithdrawalsSubmittedTotal.WithLabelValues(method).Inc()
	WithdrawalAmount.WithLabelValues(method).Observe(amount)
}

// RecordWithdrawalInvalid records a submission refused before any write
func RecordWithdrawalInvalid(code string) {
	WithdrawalsRejectedAtValidationTotal.WithLabelValues(code).Inc()
}

// RecordWithdrawalDecision records an approve or reject
func RecordWithdrawalDecision(decision string) {
	WithdrawalDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordCommission records a commission write
func RecordCommission(source string, amount float64) {
	CommissionEarnedTotal.WithLabelValues(source).Add(amount)
}

// PortfolioSnapshot carries the gauges set by one analytics run
type PortfolioSnapshot struct {
	AUM                 float64
	Profitable          int
	Loss                int
	BreakEven           int
	PendingWithdrawals  int
	WinRate             float64
	AvailableCommission float64
}

// SetPortfolioSnapshot updates every portfolio gauge
func SetPortfolioSnapshot(s PortfolioSnapshot) {
	AssetsUnderManagement.Set(s.AUM)
	InvestorsGauge.WithLabelValues("profitable").Set(float64(s.Profitable))
	InvestorsGauge.WithLabelValues("loss").Set(float64(s.Loss))
	InvestorsGauge.WithLabelValues("break-even").Set(float64(s.BreakEven))
	PendingWithdrawalsGauge.Set(float64(s.PendingWithdrawals))
	WinRateGauge.Set(s.WinRate)
	AvailableCommissionGauge.Set(s.AvailableCommission)
}
