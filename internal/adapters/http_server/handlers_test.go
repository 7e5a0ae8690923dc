package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpserver "travel_booking/internal/adapters/http_server"
	"travel_booking/internal/adapters/memcache"
	"travel_booking/internal/app"
	"travel_booking/internal/domain"
	"travel_booking/internal/storage/memory"
)

type stubReserver struct{ err error }

func (s stubReserver) CreateReservation(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	return domain.Reservation{}, s.err
}

func newTestServer(t *testing.T, rooms int) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New(nil)
	store.Put(domain.Hotel{ID: 1, Name: "Alfama", City: "Lisbon", PricePerNight: 110, Rating: 4.5, TotalRooms: rooms, AvailableRooms: rooms})
	store.Put(domain.Hotel{ID: 2, Name: "Baixa", City: "Lisbon", PricePerNight: 90, Rating: 4.0, TotalRooms: 3, AvailableRooms: 3})

	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{
		Search:       app.NewSearchService(store, memcache.New(), time.Minute),
		Reservations: app.NewReservationCoordinator(store, store),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, store
}

func postReservation(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/v1/reservations", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

const validBody = `{"hotelId":1,"guestName":"Ana Lima","guestEmail":"ana@example.com","checkIn":"2025-10-01","checkOut":"2025-10-03","guests":2}`

func TestSearch_OK(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	resp, err := http.Get(ts.URL + "/v1/hotels/search?city=lisbon&checkIn=2025-10-01&checkOut=2025-10-03&guests=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("ETag"))

	var page domain.HotelPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, int64(2), page.Total)
	require.Equal(t, int64(2), page.Items[0].ID)
	require.Equal(t, int64(1), page.Items[1].ID)
	require.Equal(t, domain.DefaultPageSize, page.Size)
}

func TestSearch_IfNoneMatch(t *testing.T) {
	ts, _ := newTestServer(t, 2)
	url := ts.URL + "/v1/hotels/search?city=Lisbon&checkIn=2025-10-01&checkOut=2025-10-03"

	first, err := http.Get(url)
	require.NoError(t, err)
	first.Body.Close()
	etag := first.Header.Get("ETag")

	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestSearch_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	cases := map[string]string{
		"missing city":    "checkIn=2025-10-01&checkOut=2025-10-03",
		"bad date":        "city=Lisbon&checkIn=01/10/2025&checkOut=2025-10-03",
		"same day":        "city=Lisbon&checkIn=2025-10-01&checkOut=2025-10-01",
		"reversed":        "city=Lisbon&checkIn=2025-10-03&checkOut=2025-10-01",
		"too many guests": "city=Lisbon&checkIn=2025-10-01&checkOut=2025-10-03&guests=11",
		"size too large":  "city=Lisbon&checkIn=2025-10-01&checkOut=2025-10-03&size=1000",
		"page too large":  "city=Lisbon&checkIn=2025-10-01&checkOut=2025-10-03&page=184467440737095516",
	}
	for name, qs := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/v1/hotels/search?" + qs)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestCreateReservation_Created(t *testing.T) {
	ts, store := newTestServer(t, 2)

	resp := postReservation(t, ts.URL, validBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "2025-10-01", out["checkIn"])
	require.Equal(t, "2025-10-03", out["checkOut"])
	require.NotEmpty(t, out["reference"])

	h, err := store.LoadHotel(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, h.AvailableRooms)
}

func TestCreateReservation_SoldOut(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	require.Equal(t, http.StatusCreated, postReservation(t, ts.URL, validBody).StatusCode)
	resp := postReservation(t, ts.URL, validBody)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Retry-After"))

	var p struct {
		Type   string `json:"type"`
		Status int    `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.Equal(t, "no-availability", p.Type)
	require.Equal(t, http.StatusConflict, p.Status)
}

func TestCreateReservation_UnknownHotel(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	resp := postReservation(t, ts.URL, strings.Replace(validBody, `"hotelId":1`, `"hotelId":99`, 1))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateReservation_Validation(t *testing.T) {
	ts, store := newTestServer(t, 2)

	cases := map[string]string{
		"malformed":     `{"hotelId":`,
		"unknown field": strings.Replace(validBody, `"guests":2`, `"guests":2,"vip":true`, 1),
		"zero hotel":    strings.Replace(validBody, `"hotelId":1`, `"hotelId":0`, 1),
		"short name":    strings.Replace(validBody, `"Ana Lima"`, `"A"`, 1),
		"bad email":     strings.Replace(validBody, `"ana@example.com"`, `"not-an-email"`, 1),
		"bad date":      strings.Replace(validBody, `"2025-10-01"`, `"2025-13-01"`, 1),
		"range":         strings.Replace(validBody, `"2025-10-03"`, `"2025-10-01"`, 1),
		"guests":        strings.Replace(validBody, `"guests":2`, `"guests":0`, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postReservation(t, ts.URL, body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	h, err := store.LoadHotel(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, h.AvailableRooms)
	require.Equal(t, int64(0), h.Version)
}

func TestCreateReservation_ErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		status     int
		retryAfter string
	}{
		{domain.ErrConflict, http.StatusConflict, "1"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, ""},
		{errors.New("db down"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		srv := httpserver.New(time.Second)
		srv.MountHandlers(&httpserver.Handlers{Reservations: stubReserver{err: tc.err}})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(validBody))
		srv.Mux().ServeHTTP(rec, req)

		require.Equal(t, tc.status, rec.Code, "err=%v", tc.err)
		require.Equal(t, tc.retryAfter, rec.Header().Get("Retry-After"), "err=%v", tc.err)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, 1)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
