package domain

import "time"

const (
	MinGuests = 1
	MaxGuests = 10
)

type Reservation struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	HotelID    int64     `json:"hotelId"`
	GuestName  string    `json:"guestName"`
	GuestEmail string    `json:"guestEmail"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	Guests     int       `json:"guests"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ReservationRequest struct {
	HotelID    int64
	GuestName  string
	GuestEmail string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
}
