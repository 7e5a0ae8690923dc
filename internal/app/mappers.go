package app

import (
	"math"
	"strconv"
	"strings"

	"travel_booking/internal/domain"
)

/********** alias registry (single source of truth) **********/

var hotelAliases = map[string][]string{
	"name":        {"name", "hotel_name", "property_name"},
	"city":        {"address.city", "city", "location.city", "locality"},
	"description": {"description", "markdown_description", "summary"},
}

var (
	idPaths     = []string{"hotel_id", "id"}
	pricePaths  = []string{"price_per_night", "pricePerNight", "rates.nightly", "price"}
	ratingPaths = []string{"rating", "review_score", "stars"}
	roomsPaths  = []string{"total_rooms", "totalRooms", "room_count", "rooms"}
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstNonEmptyAlias: first non-empty trimmed string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s, ok := lookupAny(m, p).(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) (float64, bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

/********** hotel mapper **********/

// payloadID reports the id a payload claims for itself, if any. Non-integral
// or non-positive values are reported as invalid.
func payloadID(p map[string]any) (id int64, present, valid bool) {
	f, ok := getFloatFlexible(p, idPaths...)
	if !ok {
		return 0, false, false
	}
	if f <= 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, true, false
	}
	return int64(f), true, true
}

// mapHotel maps catalog fields only; the caller owns the id.

func mapHotel(p map[string]any) domain.Hotel {
	var h domain.Hotel
	h.Name = firstNonEmptyAlias(p, hotelAliases, "name")
	h.City = firstNonEmptyAlias(p, hotelAliases, "city")
	h.Description = firstNonEmptyAlias(p, hotelAliases, "description")
	if f, ok := getFloatFlexible(p, pricePaths...); ok {
		h.PricePerNight = f
	}
	if f, ok := getFloatFlexible(p, ratingPaths...); ok {
		h.Rating = f
	}
	if f, ok := getFloatFlexible(p, roomsPaths...); ok && f > 0 {
		h.TotalRooms = int(f)
	}
	// new hotels open with every room available
	h.AvailableRooms = h.TotalRooms
	return h
}
