package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"travel_booking/internal/domain"
)

const DefaultMaxAttempts = 3

// ReservationCoordinator books rooms with optimistic concurrency: every
// attempt re-reads the hotel, decrements it with a version-checked save, and
// retries when another writer got there first. It holds no locks of its own.
type ReservationCoordinator struct {
	inventory    domain.InventoryStore
	reservations domain.ReservationStore
	tx           domain.Transactor
	maxAttempts  int
	newReference func() string
	observer     domain.ReservationObserver
}

type noopObserver struct{}

func (noopObserver) Outcome(string) {}
func (noopObserver) VersionConflict() {}
func (noopObserver) Compensation(bool) {}

type CoordinatorOption func(*ReservationCoordinator)

// WithMaxAttempts bounds the optimistic retry loop.
func WithMaxAttempts(n int) CoordinatorOption {
	return func(c *ReservationCoordinator) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithTransactor makes every attempt run inside t. By default the inventory
// store is used when it implements domain.Transactor.
func WithTransactor(t domain.Transactor) CoordinatorOption {
	return func(c *ReservationCoordinator) { c.tx = t }
}

// WithObserver reports outcomes, version conflicts and compensations to o.
func WithObserver(o domain.ReservationObserver) CoordinatorOption {
	return func(c *ReservationCoordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithReferenceGenerator replaces the booking reference generator.
func WithReferenceGenerator(f func() string) CoordinatorOption {
	return func(c *ReservationCoordinator) {
		if f != nil {
			c.newReference = f
		}
	}
}

func NewReservationCoordinator(inv domain.InventoryStore, res domain.ReservationStore, opts ...CoordinatorOption) *ReservationCoordinator {
	c := &ReservationCoordinator{
		inventory:    inv,
		reservations: res,
		maxAttempts:  DefaultMaxAttempts,
		newReference: uuid.NewString,
		observer:     noopObserver{},
	}
	if t, ok := inv.(domain.Transactor); ok {
		c.tx = t
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateReservation takes one room at req.HotelID. Business rejections are
// domain.ErrInvalidRange, domain.ErrInvalidGuests, domain.ErrNotFound,
// domain.ErrNoAvailability and domain.ErrConflict; anything else is a store
// failure. The loop has no deadline of its own, callers bound it through ctx.
func (c *ReservationCoordinator) CreateReservation(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if err := domain.ValidateRange(req.CheckIn, req.CheckOut); err != nil {
		c.observer.Outcome(outcomeLabel(err))
		return domain.Reservation{}, err
	}
	if req.Guests < domain.MinGuests || req.Guests > domain.MaxGuests {
		c.observer.Outcome(outcomeLabel(domain.ErrInvalidGuests))
		return domain.Reservation{}, domain.ErrInvalidGuests
	}
	req.CheckIn = domain.Day(req.CheckIn)
	req.CheckOut = domain.Day(req.CheckOut)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Reservation{}, err
		}

		res, err := c.attempt(ctx, req)
		switch {
		case err == nil:
			c.observer.Outcome("ok")
			log.Info().
				Int64("hotel_id", req.HotelID).
				Int64("reservation_id", res.ID).
				Str("reference", res.Reference).
				Int("attempt", attempt).
				Msg("reservation created")
			return res, nil
		case errors.Is(err, domain.ErrVersionConflict):
			c.observer.VersionConflict()
			log.Debug().
				Int64("hotel_id", req.HotelID).
				Int("attempt", attempt).
				Msg("inventory version conflict, retrying")
		default:
			c.observer.Outcome(outcomeLabel(err))
			return domain.Reservation{}, err
		}
	}

	c.observer.Outcome(outcomeLabel(domain.ErrConflict))
	log.Warn().
		Int64("hotel_id", req.HotelID).
		Int("attempts", c.maxAttempts).
		Msg("reservation retries exhausted")
	return domain.Reservation{}, domain.ErrConflict
}

func (c *ReservationCoordinator) attempt(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if c.tx != nil {
		return c.attemptInTx(ctx, req)
	}
	return c.attemptSplit(ctx, req)
}

// take loads a fresh snapshot and saves it with one room less, conditional on
// the version it just read.
func (c *ReservationCoordinator) take(ctx context.Context, hotelID int64) error {
	h, err := c.inventory.LoadHotel(ctx, hotelID)
	if err != nil {
		return err
	}
	next, err := h.Decremented()
	if err != nil {
		return err
	}
	return c.inventory.ConditionalSave(ctx, next, h.Version)
}

func (c *ReservationCoordinator) attemptInTx(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	var out domain.Reservation
	err := c.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.take(txCtx, req.HotelID); err != nil {
			return err
		}
		r, err := c.reservations.Insert(txCtx, c.newReservation(req))
		if err != nil {
			return fmt.Errorf("persist reservation for hotel %d: %w", req.HotelID, err)
		}
		out = r
		return nil
	})
	return out, err
}

// attemptSplit is used when inventory and reservations do not share a
// transaction. A committed decrement is always followed by the insert, even
// if ctx was cancelled meanwhile; an insert failure triggers a compensating
// increment.
func (c *ReservationCoordinator) attemptSplit(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if err := c.take(ctx, req.HotelID); err != nil {
		return domain.Reservation{}, err
	}

	committed := context.WithoutCancel(ctx)
	r, err := c.reservations.Insert(committed, c.newReservation(req))
	if err != nil {
		log.Error().Err(err).
			Int64("hotel_id", req.HotelID).
			Msg("reservation insert failed after inventory decrement")
		c.compensate(committed, req.HotelID)
		return domain.Reservation{}, fmt.Errorf("persist reservation for hotel %d: %w", req.HotelID, err)
	}
	return r, nil
}

// compensate gives back the room taken by a reservation that could not be
// stored. It goes through the same conditional save as the decrement.
func (c *ReservationCoordinator) compensate(ctx context.Context, hotelID int64) {
	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		h, err := c.inventory.LoadHotel(ctx, hotelID)
		if err != nil {
			lastErr = err
			break
		}
		err = c.inventory.ConditionalSave(ctx, h.Incremented(), h.Version)
		if err == nil {
			c.observer.Compensation(true)
			log.Warn().Int64("hotel_id", hotelID).Msg("inventory decrement compensated")
			return
		}
		lastErr = err
		if !errors.Is(err, domain.ErrVersionConflict) {
			break
		}
	}
	c.observer.Compensation(false)
	log.Error().Err(lastErr).
		Int64("hotel_id", hotelID).
		Msg("inventory compensation failed, manual reconciliation required")
}

func (c *ReservationCoordinator) newReservation(req domain.ReservationRequest) domain.Reservation {
	return domain.Reservation{
		Reference:  c.newReference(),
		HotelID:    req.HotelID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Guests:     req.Guests,
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, domain.ErrInvalidGuests):
		return "invalid_guests"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNoAvailability):
		return "no_availability"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
