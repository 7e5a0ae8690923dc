// Package memory is an in-process InventoryStore and ReservationStore.
//
// Each method is atomic on its own, but inventory and reservation writes do
// not share a transaction, so the store does not implement domain.Transactor.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"travel_booking/internal/clock"
	"travel_booking/internal/domain"
)

type Store struct {
	mu           sync.Mutex
	hotels       map[int64]domain.Hotel
	reservations []domain.Reservation
	nextResID    int64
	clock        clock.Clock
}

func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		hotels:    make(map[int64]domain.Hotel),
		nextResID: 1,
		clock:     clk,
	}
}

// Put stores h as-is, replacing any record with the same id.
func (s *Store) Put(h domain.Hotel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = s.clock.Now()
	}
	s.hotels[h.ID] = h
}

func (s *Store) LoadHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *Store) ConditionalSave(ctx context.Context, h domain.Hotel, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.AvailableRooms < 0 {
		return domain.ErrNoAvailability
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.hotels[h.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	h.Version = expectedVersion + 1
	h.UpdatedAt = s.clock.Now()
	s.hotels[h.ID] = h
	return nil
}

func (s *Store) QueryByCity(ctx context.Context, q domain.CityQuery) (domain.HotelRecordsPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.HotelRecordsPage{}, err
	}
	s.mu.Lock()
	matches := make([]domain.Hotel, 0)
	for _, h := range s.hotels {
		if strings.EqualFold(strings.TrimSpace(h.City), strings.TrimSpace(q.City)) && h.AvailableRooms >= q.MinAvailableRooms {
			matches = append(matches, h)
		}
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].PricePerNight != matches[j].PricePerNight {
			return matches[i].PricePerNight < matches[j].PricePerNight
		}
		return matches[i].ID < matches[j].ID
	})

	total := int64(len(matches))
	// compare pages before multiplying so huge page numbers cannot overflow
	if q.Size <= 0 || q.Page < 0 || q.Page >= (len(matches)+q.Size-1)/q.Size {
		return domain.HotelRecordsPage{Items: []domain.Hotel{}, Total: total}, nil
	}
	from := q.Page * q.Size
	to := min(from+q.Size, len(matches))
	return domain.HotelRecordsPage{Items: matches[from:to], Total: total}, nil
}

func (s *Store) UpsertHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	cur, ok := s.hotels[h.ID]
	if !ok {
		h.Version = 0
		h.UpdatedAt = now
		s.hotels[h.ID] = h
		return h, nil
	}
	cur.Name = h.Name
	cur.City = h.City
	cur.PricePerNight = h.PricePerNight
	cur.Rating = h.Rating
	cur.Description = h.Description
	cur.TotalRooms = h.TotalRooms
	cur.Version++
	cur.UpdatedAt = now
	s.hotels[h.ID] = cur
	return cur, nil
}

func (s *Store) Insert(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextResID
	s.nextResID++
	r.CreatedAt = s.clock.Now()
	s.reservations = append(s.reservations, r)
	return r, nil
}

// Reservations returns a copy of every stored reservation in insert order.
func (s *Store) Reservations() []domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Reservation(nil), s.reservations...)
}
