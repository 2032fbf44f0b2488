package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

type Prom struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// AI
	AdImproveTotal    *prometheus.CounterVec
	AdImproveDuration *prometheus.HistogramVec

	// Realtime
	SocketConnections prometheus.Gauge
	NotificationsSent *prometheus.CounterVec
}

func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		AdImproveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ai",
				Name:      "ad_improve_total",
				Help:      "Ad improvement calls by outcome.",
			},
			[]string{"outcome"}, // ok|error
		),
		AdImproveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ai",
				Name:      "ad_improve_duration_seconds",
				Help:      "Model latency for ad improvement.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"outcome"},
		),
		SocketConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "realtime",
				Name:      "connections",
				Help:      "Open websocket connections in this process.",
			},
		),
		NotificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "realtime",
				Name:      "notifications_total",
				Help:      "Notifications delivered to local sockets by type.",
			},
			[]string{"type"},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.AdImproveTotal, p.AdImproveDuration,
		p.SocketConnections, p.NotificationsSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
}

func (p *Prom) ObserveAdImprove(outcome string, d time.Duration) {
	p.AdImproveTotal.WithLabelValues(outcome).Inc()
	p.AdImproveDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *Prom) SocketOpened() { p.SocketConnections.Inc() }
func (p *Prom) SocketClosed() { p.SocketConnections.Dec() }

func (p *Prom) NotificationDelivered(kind string) {
	p.NotificationsSent.WithLabelValues(kind).Inc()
}
