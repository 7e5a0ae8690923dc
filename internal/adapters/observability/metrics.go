package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "travel", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travel", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "travel", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travel", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "travel", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|expired|set|del|evict|error
	)
	ReservationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "travel", Name: "reservation_outcomes_total", Help: "Reservation attempts by final outcome."},
		[]string{"outcome"}, // ok|invalid_range|invalid_guests|not_found|no_availability|conflict|error
	)
	ReservationCASConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "travel", Name: "reservation_cas_conflicts_total", Help: "Inventory version conflicts seen by the reservation loop."},
	)
	ReservationCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "travel", Name: "reservation_compensations_total", Help: "Compensating inventory increments after a failed reservation insert."},
		[]string{"result"}, // ok|failed
	)
)

// Serve exposes the default registry on a side listener. An empty addr
// disables it.
func Serve(addr string) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		ReservationOutcomes, ReservationCASConflicts, ReservationCompensations,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveReservation(outcome string) {
	ReservationOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveCASConflict() { ReservationCASConflicts.Inc() }

func ObserveCompensation(ok bool) {
	if ok {
		ReservationCompensations.WithLabelValues("ok").Inc()
		return
	}
	ReservationCompensations.WithLabelValues("failed").Inc()
}

// ReservationMetrics feeds the reservation counters; it satisfies
// domain.ReservationObserver.
type ReservationMetrics struct{}

func (ReservationMetrics) Outcome(outcome string) { ObserveReservation(outcome) }
func (ReservationMetrics) VersionConflict() { ObserveCASConflict() }
func (ReservationMetrics) Compensation(ok bool) { ObserveCompensation(ok) }
