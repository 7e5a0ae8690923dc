package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"travel_booking/internal/domain"
)

type Searcher interface {
	Search(ctx context.Context, q domain.SearchQuery) (domain.HotelPage, error)
}

type Reserver interface {
	CreateReservation(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error)
}

type Handlers struct {
	Search       Searcher
	Reservations Reserver
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/search", h.searchHotels)
	s.mux.Post("/v1/reservations", h.createReservation)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeTypedProblem(w, "about:blank", status, title, detail)
}

func writeTypedProblem(w http.ResponseWriter, typ string, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: typ, Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps service outcomes onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		writeProblem(w, http.StatusBadRequest, "Invalid date range", "checkOut must be after checkIn")
	case errors.Is(err, domain.ErrInvalidGuests):
		writeProblem(w, http.StatusBadRequest, "Invalid guests", fmt.Sprintf("guests must be between %d and %d", domain.MinGuests, domain.MaxGuests))
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
	case errors.Is(err, domain.ErrNoAvailability):
		writeTypedProblem(w, "no-availability", http.StatusConflict, "No availability", "no rooms left at this hotel")
	case errors.Is(err, domain.ErrConflict):
		w.Header().Set("Retry-After", "1")
		writeTypedProblem(w, "conflict", http.StatusConflict, "Concurrent update", "inventory changed concurrently, retry the request")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusServiceUnavailable, "Request cancelled", "")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func parseSearchQuery(r *http.Request) (domain.SearchQuery, error) {
	qs := r.URL.Query()
	var q domain.SearchQuery

	q.City = strings.TrimSpace(qs.Get("city"))
	if q.City == "" {
		return q, errors.New("city is required")
	}
	var err error
	if q.CheckIn, err = domain.ParseDate(qs.Get("checkIn")); err != nil {
		return q, fmt.Errorf("checkIn must be a %s date", domain.DateLayout)
	}
	if q.CheckOut, err = domain.ParseDate(qs.Get("checkOut")); err != nil {
		return q, fmt.Errorf("checkOut must be a %s date", domain.DateLayout)
	}
	if q.Guests, err = intParam(r, "guests", domain.MinGuests); err != nil {
		return q, err
	}
	if q.Guests < domain.MinGuests || q.Guests > domain.MaxGuests {
		return q, fmt.Errorf("guests must be between %d and %d", domain.MinGuests, domain.MaxGuests)
	}
	if q.Page, err = intParam(r, "page", 0); err != nil {
		return q, err
	}
	if q.Size, err = intParam(r, "size", domain.DefaultPageSize); err != nil {
		return q, err
	}
	if q.Page < 0 || q.Page > domain.MaxPage {
		return q, fmt.Errorf("page must be between 0 and %d", domain.MaxPage)
	}
	if q.Size < 1 || q.Size > domain.MaxPageSize {
		return q, fmt.Errorf("size must be between 1 and %d", domain.MaxPageSize)
	}
	return q, nil
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}

	page, err := h.Search.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Debug().
		Str("city", q.City).
		Int64("total", page.Total).
		Int("page", page.Page).
		Msg("hotel search")

	etag, body, err := calcETagAndBody(page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write search body")
	}
}

type reservationBody struct {
	HotelID    int64  `json:"hotelId"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Guests     int    `json:"guests"`
}

func (b reservationBody) toRequest() (domain.ReservationRequest, error) {
	req := domain.ReservationRequest{
		HotelID:    b.HotelID,
		GuestName:  strings.TrimSpace(b.GuestName),
		GuestEmail: strings.TrimSpace(b.GuestEmail),
		Guests:     b.Guests,
	}
	if req.HotelID <= 0 {
		return req, errors.New("hotelId must be positive")
	}
	if n := utf8.RuneCountInString(req.GuestName); n < 2 || n > 200 {
		return req, errors.New("guestName must be 2 to 200 characters")
	}
	if addr, err := mail.ParseAddress(req.GuestEmail); err != nil || addr.Address != req.GuestEmail {
		return req, errors.New("guestEmail must be a valid email address")
	}
	var err error
	if req.CheckIn, err = domain.ParseDate(b.CheckIn); err != nil {
		return req, fmt.Errorf("checkIn must be a %s date", domain.DateLayout)
	}
	if req.CheckOut, err = domain.ParseDate(b.CheckOut); err != nil {
		return req, fmt.Errorf("checkOut must be a %s date", domain.DateLayout)
	}
	return req, nil
}

type reservationResponse struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	HotelID    int64     `json:"hotelId"`
	GuestName  string    `json:"guestName"`
	GuestEmail string    `json:"guestEmail"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	Guests     int       `json:"guests"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toReservationResponse(rv domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         rv.ID,
		Reference:  rv.Reference,
		HotelID:    rv.HotelID,
		GuestName:  rv.GuestName,
		GuestEmail: rv.GuestEmail,
		CheckIn:    rv.CheckIn.Format(domain.DateLayout),
		CheckOut:   rv.CheckOut.Format(domain.DateLayout),
		Guests:     rv.Guests,
		CreatedAt:  rv.CreatedAt,
	}
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var body reservationBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a reservation JSON object")
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid reservation", err.Error())
		return
	}

	rv, err := h.Reservations.CreateReservation(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(rv))
}
