package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"travel_booking/internal/domain"
)

// SeedingService pulls hotel records from the upstream catalog into the
// inventory store. Room availability of hotels that already exist is owned by
// the reservation path and is never overwritten here.
type SeedingService struct {
	catalog domain.CatalogClient
	hotels  domain.HotelWriter
}

func NewSeedingService(c domain.CatalogClient, w domain.HotelWriter) *SeedingService {
	return &SeedingService{catalog: c, hotels: w}
}

// ErrIncompleteHotel marks catalog payloads missing fields search depends on.
var ErrIncompleteHotel = errors.New("catalog hotel is missing name, city or price")

// ErrHotelIDMismatch marks catalog payloads describing a different hotel
// than the one requested.
var ErrHotelIDMismatch = errors.New("catalog payload id does not match the requested hotel")

func (s *SeedingService) SeedHotel(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("hotel %d: %w", id, ErrHotelIDMismatch)
	}
	p, err := s.catalog.GetHotel(ctx, id)
	if err != nil {
		// Unknown upstream ids are skipped, everything else bubbles up.
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Int64("id", id).Msg("catalog hotel not found, skipping")
			return nil
		}
		return err
	}

	if pid, present, valid := payloadID(p); present && (!valid || pid != id) {
		return fmt.Errorf("hotel %d: payload id %d: %w", id, pid, ErrHotelIDMismatch)
	}
	h := mapHotel(p)
	h.ID = id
	if h.Name == "" || h.City == "" || h.PricePerNight <= 0 {
		return fmt.Errorf("hotel %d: %w", id, ErrIncompleteHotel)
	}

	stored, err := s.hotels.UpsertHotel(ctx, h)
	if err != nil {
		return fmt.Errorf("upsert hotel %d: %w", id, err)
	}
	log.Debug().
		Int64("id", stored.ID).
		Int("available_rooms", stored.AvailableRooms).
		Int64("version", stored.Version).
		Msg("hotel seeded")
	return nil
}

// SeedResult counts the outcome of a SeedAll run.
type SeedResult struct {
	Seeded int64
	Failed int64
}

// SeedAll seeds ids with at most workers concurrent catalog calls. Individual
// failures are logged and counted; only a cancelled ctx stops the run early.
func (s *SeedingService) SeedAll(ctx context.Context, ids []int64, workers int) (SeedResult, error) {
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var seeded, failed atomic.Int64

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return SeedResult{Seeded: seeded.Load(), Failed: failed.Load()}, err
		}

		wg.Add(1)
		go func(hotelID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.SeedHotel(ctx, hotelID); err != nil {
				failed.Add(1)
				log.Warn().Int64("id", hotelID).Err(err).Msg("seed failed")
				return
			}
			seeded.Add(1)
		}(id)
	}

	wg.Wait()
	return SeedResult{Seeded: seeded.Load(), Failed: failed.Load()}, nil
}
