package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics instruments the gin server.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feria",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "feria",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records per-request counters and latency.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Metrics exposes marketplace-level instruments.
type Metrics struct {
	ordersPlaced         *prometheus.CounterVec
	orderTransitions     *prometheus.CounterVec
	stockConflicts       prometheus.Counter
	notificationsEmitted *prometheus.CounterVec
	rateLimitDenied      prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ordersPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feria",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Order placement attempts by outcome.",
		}, []string{"outcome"}),
		orderTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feria",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		stockConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "feria",
			Subsystem: "stock",
			Name:      "conflicts_total",
			Help:      "Lost stock decrement races.",
		}),
		notificationsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feria",
			Subsystem: "notifications",
			Name:      "emitted_total",
			Help:      "Persisted notifications by category.",
		}, []string{"category"}),
		rateLimitDenied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "feria",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Requests rejected by the order placement limiter.",
		}),
	}
}

func (m *Metrics) OrderPlaced(outcome string) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OrderTransition(status string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) StockConflict() {
	if m == nil {
		return
	}
	m.stockConflicts.Inc()
}

func (m *Metrics) NotificationEmitted(category string) {
	if m == nil {
		return
	}
	m.notificationsEmitted.WithLabelValues(category).Inc()
}

func (m *Metrics) RateLimitDenied() {
	if m == nil {
		return
	}
	m.rateLimitDenied.Inc()
}
