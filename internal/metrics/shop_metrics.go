package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Причины неудачного оформления заказа.
const (
	ReasonValidation = "validation"
	ReasonStorage    = "storage"
)

// ShopMetrics содержит бизнес-метрики пекарни.
type ShopMetrics struct {
	ordersPlaced     prometheus.Counter
	emptyOrders      prometheus.Counter
	orderTotal       prometheus.Histogram
	orderItems       prometheus.Histogram
	checkoutFailures *prometheus.CounterVec

	menuItemsAdded  prometheus.Counter
	menuAddFailures *prometheus.CounterVec

	eventPublishFailures prometheus.Counter
}

// NewShopMetrics создаёт метрики в DefaultRegisterer.
func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewShopMetricsWithRegisterer создаёт метрики в указанном реестре.
func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShopMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bakery_orders_placed_total",
			Help: "Total number of orders persisted",
		}),
		emptyOrders: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bakery_orders_empty_total",
			Help: "Total number of orders persisted without any matched menu item",
		}),
		orderTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "bakery_order_total_dollars",
			Help:    "Order total price in dollars",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
		}),
		orderItems: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "bakery_order_items",
			Help:    "Number of distinct menu items per order",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		checkoutFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bakery_checkout_failures_total",
			Help: "Total number of rejected checkouts by reason",
		}, []string{"reason"}),
		menuItemsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bakery_menu_items_added_total",
			Help: "Total number of menu items created",
		}),
		menuAddFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bakery_menu_add_failures_total",
			Help: "Total number of rejected menu item creations by reason",
		}, []string{"reason"}),
		eventPublishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bakery_event_publish_failures_total",
			Help: "Total number of order events that failed to publish",
		}),
	}
}

// RecordOrderPlaced учитывает сохранённый заказ.
func (m *ShopMetrics) RecordOrderPlaced(total decimal.Decimal, items int) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	if items == 0 {
		m.emptyOrders.Inc()
	}
	m.orderTotal.Observe(total.InexactFloat64())
	m.orderItems.Observe(float64(items))
}

// RecordCheckoutFailure учитывает отклонённое оформление заказа.
func (m *ShopMetrics) RecordCheckoutFailure(reason string) {
	if m == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(reason).Inc()
}

// RecordMenuItemAdded учитывает новую позицию меню.
func (m *ShopMetrics) RecordMenuItemAdded() {
	if m == nil {
		return
	}
	m.menuItemsAdded.Inc()
}

// RecordMenuAddFailure учитывает отклонённое добавление позиции.
func (m *ShopMetrics) RecordMenuAddFailure(reason string) {
	if m == nil {
		return
	}
	m.menuAddFailures.WithLabelValues(reason).Inc()
}

// RecordEventPublishFailure учитывает неотправленное событие заказа.
func (m *ShopMetrics) RecordEventPublishFailure() {
	if m == nil {
		return
	}
	m.eventPublishFailures.Inc()
}
