package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// LendingMetrics instruments the operation surface of the engine.
type LendingMetrics struct {
	Deposits    prometheus.Counter
	Withdrawals prometheus.Counter
	Borrows     prometheus.Counter
	Repayments  prometheus.Counter
	Liquidations prometheus.Counter

	// Rejections counts failed operations by error reason
	Rejections *prometheus.CounterVec

	// DebtCoveredWei and CollateralSeizedWei track liquidation volume
	DebtCoveredWei       prometheus.Counter
	CollateralSeizedWei  prometheus.Counter

	OperationLatency *prometheus.HistogramVec
}

// New registers the engine metrics on the given registerer. Tests pass
// a fresh prometheus.NewRegistry so instances never collide.
func New(reg prometheus.Registerer, namespace string) *LendingMetrics {
	factory := promauto.With(reg)

	return &LendingMetrics{
		Deposits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposits_total",
			Help:      "Total number of successful deposits",
		}),
		Withdrawals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_total",
			Help:      "Total number of successful withdrawals",
		}),
		Borrows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrows_total",
			Help:      "Total number of successful borrows",
		}),
		Repayments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repayments_total",
			Help:      "Total number of successful repayments",
		}),
		Liquidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liquidations_total",
			Help:      "Total number of successful liquidations",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Total number of rejected operations by reason",
		}, []string{"operation", "reason"}),
		DebtCoveredWei: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liquidation_debt_covered_wei_total",
			Help:      "Total debt value repaid by liquidators, in wei of the debt asset",
		}),
		CollateralSeizedWei: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liquidation_collateral_seized_wei_total",
			Help:      "Total collateral units seized by liquidators",
		}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of engine operations",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}, []string{"operation"}),
	}
}

// CounterValue reads a counter back through its protobuf
// representation, for the status surface and tests.
func CounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil || m.Counter == nil {
		return 0
	}
	return m.Counter.GetValue()
}
