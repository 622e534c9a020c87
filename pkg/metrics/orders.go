package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// OrderMetrics tracks checkout volume and status changes.
type OrderMetrics struct {
	placed      prometheus.Counter
	revenue     prometheus.Counter
	transitions *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created at checkout.",
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_amount_total",
		Help: "Sum of order totals created at checkout.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes, by target status.",
	}, []string{"status"})
	reg.MustRegister(placed, revenue, transitions)
	return &OrderMetrics{placed: placed, revenue: revenue, transitions: transitions}
}

// IncPlaced records a new order and its total.
func (m *OrderMetrics) IncPlaced(total decimal.Decimal) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	m.revenue.Add(total.InexactFloat64())
}

// IncTransition records a status change.
func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}
