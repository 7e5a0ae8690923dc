package domain

import (
	"context"
	"time"
)

// InventoryStore is the source of truth for hotel records.
type InventoryStore interface {
	// LoadHotel returns ErrNotFound when no hotel has the given id.
	LoadHotel(ctx context.Context, id int64) (Hotel, error)
	// ConditionalSave persists h only if the stored version equals
	// expectedVersion, otherwise it returns ErrVersionConflict.
	ConditionalSave(ctx context.Context, h Hotel, expectedVersion int64) error
	// QueryByCity lists hotels in a city (case-insensitive) with at least
	// MinAvailableRooms free, ordered by price then id. Items is never nil.
	QueryByCity(ctx context.Context, q CityQuery) (HotelRecordsPage, error)
}

type ReservationStore interface {
	// Insert assigns ID and CreatedAt and returns the stored record.
	Insert(ctx context.Context, r Reservation) (Reservation, error)
}

// Transactor is implemented by stores whose inventory and reservation writes
// share one transactional boundary. Store calls made with the ctx passed to
// fn run inside the transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// HotelWriter creates or refreshes catalog data. Existing hotels keep their
// AvailableRooms; their Version is bumped.
type HotelWriter interface {
	UpsertHotel(ctx context.Context, h Hotel) (Hotel, error)
}

// ReservationObserver receives reservation path events, typically to feed
// metrics. Implementations must be safe for concurrent use.
type ReservationObserver interface {
	Outcome(outcome string)
	VersionConflict()
	Compensation(ok bool)
}

type CatalogClient interface {
	GetHotel(ctx context.Context, id int64) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type CityQuery struct {
	City              string
	MinAvailableRooms int
	Page              int
	Size              int
}

type HotelRecordsPage struct {
	Items []Hotel
	Total int64
}
