package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"travel_booking/internal/clock"
	"travel_booking/internal/domain"
)

// Repo is the MySQL inventory and reservation store. Inventory and
// reservation writes made through one WithTx callback commit together.
type Repo struct {
	db    *sql.DB
	clock clock.Clock
}

type Option func(*Repo)

// WithClock sets the clock used for updated_at and created_at.
func WithClock(c clock.Clock) Option {
	return func(r *Repo) {
		if c != nil {
			r.clock = c
		}
	}
}

func New(db *sql.DB, opts ...Option) *Repo {
	r := &Repo{db: db, clock: clock.NewSystem()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	var desc sql.NullString
	if err := s.Scan(
		&h.ID,
		&h.Name,
		&h.City,
		&h.PricePerNight,
		&h.Rating,
		&desc,
		&h.TotalRooms,
		&h.AvailableRooms,
		&h.Version,
		&h.UpdatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}
	h.Description = desc.String
	h.UpdatedAt = h.UpdatedAt.UTC()
	return h, nil
}

func (r *Repo) LoadHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.q(ctx).QueryRowContext(ctx, loadHotelSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, fmt.Errorf("load hotel %d: %w", id, err)
	}
	return h, nil
}

func (r *Repo) ConditionalSave(ctx context.Context, h domain.Hotel, expectedVersion int64) error {
	res, err := r.q(ctx).ExecContext(ctx, conditionalSaveSQL,
		h.AvailableRooms,
		expectedVersion+1,
		r.clock.Now(),
		h.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("save hotel %d: %w", h.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save hotel %d: %w", h.ID, err)
	}
	if n == 1 {
		return nil
	}

	var count int
	if err := r.q(ctx).QueryRowContext(ctx, hotelExistsSQL, h.ID).Scan(&count); err != nil {
		return fmt.Errorf("check hotel %d: %w", h.ID, err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrVersionConflict
}

func (r *Repo) QueryByCity(ctx context.Context, q domain.CityQuery) (domain.HotelRecordsPage, error) {
	var total int64
	if err := r.q(ctx).QueryRowContext(ctx, countByCitySQL, q.City, q.MinAvailableRooms).Scan(&total); err != nil {
		return domain.HotelRecordsPage{}, fmt.Errorf("count hotels in %q: %w", q.City, err)
	}

	out := domain.HotelRecordsPage{Items: []domain.Hotel{}, Total: total}
	if q.Size <= 0 || q.Page < 0 || int64(q.Page) >= (total+int64(q.Size)-1)/int64(q.Size) {
		return out, nil
	}
	offset := int64(q.Page) * int64(q.Size)

	rows, err := r.q(ctx).QueryContext(ctx, queryByCitySQL, q.City, q.MinAvailableRooms, q.Size, offset)
	if err != nil {
		return domain.HotelRecordsPage{}, fmt.Errorf("query hotels in %q: %w", q.City, err)
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return domain.HotelRecordsPage{}, err
		}
		out.Items = append(out.Items, h)
	}
	if err := rows.Err(); err != nil {
		return domain.HotelRecordsPage{}, err
	}
	return out, nil
}

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	var stored domain.Hotel
	err := r.WithTx(ctx, func(ctx context.Context) error {
		_, err := r.q(ctx).ExecContext(ctx, upsertHotelSQL,
			h.ID,
			h.Name,
			h.City,
			h.PricePerNight,
			h.Rating,
			h.Description,
			h.TotalRooms,
			h.TotalRooms,
			r.clock.Now(),
		)
		if err != nil {
			return fmt.Errorf("upsert hotel %d: %w", h.ID, err)
		}
		stored, err = r.LoadHotel(ctx, h.ID)
		return err
	})
	return stored, err
}

func (r *Repo) Insert(ctx context.Context, rv domain.Reservation) (domain.Reservation, error) {
	rv.CreatedAt = r.clock.Now()
	res, err := r.q(ctx).ExecContext(ctx, insertReservationSQL,
		rv.Reference,
		rv.HotelID,
		rv.GuestName,
		rv.GuestEmail,
		domain.Day(rv.CheckIn),
		domain.Day(rv.CheckOut),
		rv.Guests,
		rv.CreatedAt,
	)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("insert reservation for hotel %d: %w", rv.HotelID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Reservation{}, err
	}
	rv.ID = id
	return rv, nil
}

// CountReservations returns how many reservations reference hotelID.
func (r *Repo) CountReservations(ctx context.Context, hotelID int64) (int, error) {
	var n int
	err := r.q(ctx).QueryRowContext(ctx, countReservationsSQL, hotelID).Scan(&n)
	return n, err
}
