package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"travel_booking/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample per family so they show up in the output
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveReservation("ok")
	observability.ObserveCASConflict()
	observability.ObserveCompensation(true)
	observability.ObserveCache("memory", "hit")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"travel_http_requests_total",
		"travel_reservation_outcomes_total",
		"travel_reservation_cas_conflicts_total",
		"travel_reservation_compensations_total",
		"travel_cache_events_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := observability.NewLogger("prod", "warn").GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("level: got %v want warn", got)
	}
	if got := observability.NewLogger("dev", "bogus").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("fallback level: got %v want info", got)
	}
}
