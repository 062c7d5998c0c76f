package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// StorefrontMetrics records checkout, coupon and notification outcomes.
type StorefrontMetrics struct {
	ordersPlaced         prometheus.Counter
	orderValue           prometheus.Histogram
	checkoutFailures     *prometheus.CounterVec
	couponApplications   *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders committed by checkout.",
	})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_value_dollars",
		Help:    "Grand total of committed orders in dollars.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
	})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_failures_total",
		Help: "Checkout attempts that did not produce an order.",
	}, []string{"reason"})
	couponApplications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupon_applications_total",
		Help: "Coupon apply attempts by result.",
	}, []string{"result"})
	notificationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notification_failures_total",
		Help: "Order notifications that could not be delivered.",
	}, []string{"kind"})
	reg.MustRegister(ordersPlaced, orderValue, checkoutFailures, couponApplications, notificationFailures)
	return &StorefrontMetrics{
		ordersPlaced:         ordersPlaced,
		orderValue:           orderValue,
		checkoutFailures:     checkoutFailures,
		couponApplications:   couponApplications,
		notificationFailures: notificationFailures,
	}
}

// ObserveOrder counts a committed order and its total.
func (m *StorefrontMetrics) ObserveOrder(total decimal.Decimal) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderValue.Observe(total.InexactFloat64())
}

func (m *StorefrontMetrics) IncCheckoutFailure(reason string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *StorefrontMetrics) IncCouponResult(result string) {
	if m == nil || m.couponApplications == nil {
		return
	}
	m.couponApplications.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
