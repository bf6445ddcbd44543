package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	BookingCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	ReservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "slot_reservation_conflicts_total",
			Help: "Optimistic-lock conflicts observed while reserving slots",
		},
	)

	NotificationDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_drops_total",
			Help: "Notification events dropped because the fan-out queue was full",
		},
	)

	// CompensationFailures counts saga rollbacks that themselves failed.
	// Anything non-zero here needs manual reconciliation.
	CompensationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_compensation_failures_total",
			Help: "Failed booking compensations (held seat without a matching charge)",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(BookingCounter)
	prometheus.MustRegister(ReservationConflicts)
	prometheus.MustRegister(NotificationDrops)
	prometheus.MustRegister(CompensationFailures)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
