package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"travel_booking/internal/domain"
)

const DefaultSearchTTL = 5 * time.Minute

// SearchService serves hotel searches cache-aside: cache first, then the
// inventory store, then populate the cache.
type SearchService struct {
	store    domain.InventoryStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewSearchService(s domain.InventoryStore, c domain.Cache, ttl time.Duration) *SearchService {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	return &SearchService{store: s, cache: c, cacheTTL: ttl}
}

func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) (domain.HotelPage, error) {
	if err := domain.ValidateRange(q.CheckIn, q.CheckOut); err != nil {
		return domain.HotelPage{}, err
	}
	q = q.Normalize()
	key := q.CacheKey()

	var page domain.HotelPage
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &page)
		if err != nil {
			return domain.HotelPage{}, err
		}
		if ok {
			return page, nil
		}
	}

	recs, err := s.store.QueryByCity(ctx, domain.CityQuery{
		City:              q.City,
		MinAvailableRooms: 1,
		Page:              q.Page,
		Size:              q.Size,
	})
	if err != nil {
		return domain.HotelPage{}, err
	}
	page = toHotelPage(recs, q)

	log.Debug().
		Str("city", q.City).
		Int("page", q.Page).
		Int64("total", page.Total).
		Msg("search cache miss")

	if s.cache != nil {
		// write failures are logged, never returned
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("search cache write failed")
		}
	}
	return page, nil
}

func toHotelPage(recs domain.HotelRecordsPage, q domain.SearchQuery) domain.HotelPage {
	items := make([]domain.HotelSummary, 0, len(recs.Items))
	for _, h := range recs.Items {
		items = append(items, h.Summary())
	}
	pages := 0
	if q.Size > 0 {
		pages = int((recs.Total + int64(q.Size) - 1) / int64(q.Size))
	}
	return domain.HotelPage{
		Items:      items,
		Total:      recs.Total,
		Page:       q.Page,
		Size:       q.Size,
		TotalPages: pages,
	}
}
