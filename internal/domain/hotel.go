package domain

import "time"

// Hotel is the inventory record. AvailableRooms and Version are the only
// fields the reservation path mutates; Version increases on every write.
type Hotel struct {
	ID             int64
	Name           string
	City           string
	PricePerNight  float64
	Rating         float64
	Description    string
	TotalRooms     int
	AvailableRooms int
	Version        int64
	UpdatedAt      time.Time
}

// HotelSummary is the search view of a hotel. It never carries Version or
// other storage bookkeeping.
type HotelSummary struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	City           string  `json:"city"`
	PricePerNight  float64 `json:"pricePerNight"`
	Rating         float64 `json:"rating"`
	Description    string  `json:"description"`
	AvailableRooms int     `json:"availableRooms"`
}

func (h Hotel) Summary() HotelSummary {
	return HotelSummary{
		ID:             h.ID,
		Name:           h.Name,
		City:           h.City,
		PricePerNight:  h.PricePerNight,
		Rating:         h.Rating,
		Description:    h.Description,
		AvailableRooms: h.AvailableRooms,
	}
}

// Decremented returns the next state of h after one room is taken.
func (h Hotel) Decremented() (Hotel, error) {
	if h.AvailableRooms < 1 {
		return Hotel{}, ErrNoAvailability
	}
	h.AvailableRooms--
	h.Version++
	return h, nil
}

// Incremented returns the next state of h after one room is given back.
func (h Hotel) Incremented() Hotel {
	h.AvailableRooms++
	h.Version++
	return h
}
