package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"travel_booking/internal/adapters/catalog"
	"travel_booking/internal/domain"
)

func TestClient_GetHotel_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			if r.Header.Get("X-API-Key") != "test-key" {
				w.WriteHeader(401)
				return
			}
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 123.0, "name": "Seaside"})
		}
	}))
	defer ts.Close()

	cl, err := catalog.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.GetHotel(ctx, 123)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	id, ok := got["id"].(float64)
	if !ok || int(id) != 123 || got["name"] != "Seaside" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetHotel_FallsBackToLegacyPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/property/9" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9.0})
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "k", 100)
	got, err := cl.GetHotel(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["id"] != 9.0 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClient_GetHotel_HonoursRetryAfter(t *testing.T) {
	var hits int32
	var first atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			first.Store(time.Now().UnixNano())
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if time.Since(time.Unix(0, first.Load())) < time.Second {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 5.0})
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "k", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.GetHotel(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["id"] != 5.0 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClient_GetHotel_GivesUpOnPersistent5xx(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "k", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := cl.GetHotel(ctx, 1); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	// one call plus three retries, no legacy-path fallback on 5xx
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Fatalf("expected 4 calls, got %d", n)
	}
}

func TestClient_GetHotel_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, err := catalog.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.GetHotel(ctx, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClient_GetHotel_Forbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "k", 100)
	if _, err := cl.GetHotel(context.Background(), 1); !errors.Is(err, catalog.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestNew_RequiresKeyAndBase(t *testing.T) {
	if _, err := catalog.New("http://x", "", 1); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := catalog.New("", "k", 1); err == nil {
		t.Fatalf("expected error for empty base")
	}
}
