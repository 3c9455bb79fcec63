package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks the checkout pipeline.
type OrderMetrics struct {
	placed     *prometheus.CounterVec
	failed     *prometheus.CounterVec
	value      prometheus.Histogram
	collisions prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed, by payment method and owner kind.",
	}, []string{"payment_method", "owner"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "Order placements rolled back, by error code.",
	}, []string{"code"})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_total_amount",
		Help:      "Order totals in currency units.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	collisions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_number_collisions_total",
		Help:      "Order number unique violations that triggered a retry.",
	})
	reg.MustRegister(placed, failed, value, collisions)
	return &OrderMetrics{placed: placed, failed: failed, value: value, collisions: collisions}
}

// ObservePlaced records a committed order and its total in cents.
func (o *OrderMetrics) ObservePlaced(paymentMethod, owner string, totalCents int64) {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.WithLabelValues(normalizeLabel(paymentMethod), normalizeLabel(owner)).Inc()
	o.value.Observe(float64(totalCents) / 100)
}

func (o *OrderMetrics) IncFailed(code string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(code)).Inc()
}

func (o *OrderMetrics) IncNumberCollision() {
	if o == nil || o.collisions == nil {
		return
	}
	o.collisions.Inc()
}
