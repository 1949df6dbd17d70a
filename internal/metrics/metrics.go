// Package metrics exposes Prometheus counters for booking activity and RPC
// latency. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "corepadel"

// Metrics holds the collectors of one server instance.
type Metrics struct {
	registry *prometheus.Registry

	BookingsCreated   *prometheus.CounterVec
	BookingConflicts  prometheus.Counter
	BookingsCancelled prometheus.Counter
	BookingsCompleted prometheus.Counter
	ParticipantsAdded *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BookingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created by court surface and payment type.",
		}, []string{"surface", "payment"}),

		BookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Count of reservations rejected because the slot was taken.",
		}),

		BookingsCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_cancelled_total",
			Help:      "Count of bookings cancelled by their owner.",
		}),

		BookingsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_completed_total",
			Help:      "Count of bookings marked completed after their session ended.",
		}),

		ParticipantsAdded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participants_joined_total",
			Help:      "Count of players joining shared bookings by payment status.",
		}, []string{"payment_status"}),

		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of RPC handling by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) BookingCreated(surface, payment string) {
	if m == nil {
		return
	}
	m.BookingsCreated.WithLabelValues(surface, payment).Inc()
}

func (m *Metrics) BookingConflict() {
	if m == nil {
		return
	}
	m.BookingConflicts.Inc()
}

func (m *Metrics) BookingCancelled() {
	if m == nil {
		return
	}
	m.BookingsCancelled.Inc()
}

func (m *Metrics) BookingCompleted(n int) {
	if m == nil {
		return
	}
	m.BookingsCompleted.Add(float64(n))
}

func (m *Metrics) ParticipantJoined(paymentStatus string) {
	if m == nil {
		return
	}
	m.ParticipantsAdded.WithLabelValues(paymentStatus).Inc()
}

// Interceptor records the duration of every unary RPC.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if m != nil {
				code := "ok"
				if err != nil {
					code = connect.CodeOf(err).String()
				}
				m.RPCDuration.WithLabelValues(req.Spec().Procedure, code).Observe(time.Since(start).Seconds())
			}
			return resp, err
		}
	}
}
