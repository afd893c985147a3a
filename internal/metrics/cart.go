package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart operations, stock clamps and promo code attempts.
type CartMetrics struct {
	operations *prometheus.CounterVec
	clamps     prometheus.Counter
	promos     *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by name and outcome.",
	}, []string{"op", "result"})
	clamps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_stock_clamps_total",
		Help: "Quantities reduced to the available stock.",
	})
	promos := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_promo_applications_total",
		Help: "Promo code applications by outcome.",
	}, []string{"result"})
	reg.MustRegister(operations, clamps, promos)
	return &CartMetrics{
		operations: operations,
		clamps:     clamps,
		promos:     promos,
	}
}

// ObserveOperation records one cart operation; a nil error counts as "ok".
func (c *CartMetrics) ObserveOperation(op string, err error) {
	if c == nil || c.operations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.operations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// IncStockClamp counts a quantity reduced to the stock ceiling.
func (c *CartMetrics) IncStockClamp() {
	if c == nil || c.clamps == nil {
		return
	}
	c.clamps.Inc()
}

// ObservePromo records a promo application attempt.
func (c *CartMetrics) ObservePromo(success bool) {
	if c == nil || c.promos == nil {
		return
	}
	result := "rejected"
	if success {
		result = "applied"
	}
	c.promos.WithLabelValues(result).Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
