//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"travel_booking/internal/app"
	"travel_booking/internal/domain"
	mysqlrepo "travel_booking/internal/storage/mysql"
)

// startMySQL runs an isolated MySQL container, applies the embedded
// migrations and returns a connected pool.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=travel",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/travel?parseTime=true&charset=utf8mb4&loc=UTC", hostPort)

	pool.MaxWait = 2 * time.Minute
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, mysqlrepo.Migrate(db))
	// second run is a no-op
	require.NoError(t, mysqlrepo.Migrate(db))
	return db
}

func seedHotel(t *testing.T, repo *mysqlrepo.Repo, id int64, city string, price float64, rooms int) domain.Hotel {
	t.Helper()
	h, err := repo.UpsertHotel(context.Background(), domain.Hotel{
		ID:            id,
		Name:          fmt.Sprintf("Hotel %d", id),
		City:          city,
		PricePerNight: price,
		Rating:        4.1,
		TotalRooms:    rooms,
	})
	require.NoError(t, err)
	return h
}

func request(hotelID int64) domain.ReservationRequest {
	return domain.ReservationRequest{
		HotelID:    hotelID,
		GuestName:  "Ana Lima",
		GuestEmail: "ana@example.com",
		CheckIn:    time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC),
		Guests:     2,
	}
}

func TestRepo_MySQL(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	t.Run("upsert keeps availability and bumps version", func(t *testing.T) {
		h := seedHotel(t, repo, 100, "Lisbon", 120, 5)
		require.Equal(t, 5, h.AvailableRooms)
		require.Equal(t, int64(0), h.Version)

		next, err := h.Decremented()
		require.NoError(t, err)
		require.NoError(t, repo.ConditionalSave(ctx, next, h.Version))

		again := seedHotel(t, repo, 100, "Lisbon", 130, 5)
		require.Equal(t, 4, again.AvailableRooms)
		require.Equal(t, int64(2), again.Version)
		require.Equal(t, 130.0, again.PricePerNight)
	})

	t.Run("conditional save rejects stale version", func(t *testing.T) {
		h := seedHotel(t, repo, 200, "Porto", 80, 3)
		next, _ := h.Decremented()
		require.NoError(t, repo.ConditionalSave(ctx, next, h.Version))

		err := repo.ConditionalSave(ctx, next, h.Version)
		require.ErrorIs(t, err, domain.ErrVersionConflict)

		err = repo.ConditionalSave(ctx, domain.Hotel{ID: 999999}, 0)
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.LoadHotel(ctx, 999999)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("query by city orders by price then id", func(t *testing.T) {
		seedHotel(t, repo, 303, "Faro", 95, 2)
		seedHotel(t, repo, 301, "faro", 95, 1)
		seedHotel(t, repo, 302, "FARO", 40, 4)
		seedHotel(t, repo, 304, "Faro", 10, 0)

		page, err := repo.QueryByCity(ctx, domain.CityQuery{City: "faro", MinAvailableRooms: 1, Page: 0, Size: 2})
		require.NoError(t, err)
		require.Equal(t, int64(3), page.Total)
		require.Len(t, page.Items, 2)
		require.Equal(t, int64(302), page.Items[0].ID)
		require.Equal(t, int64(301), page.Items[1].ID)

		for _, p := range []int{5, math.MaxInt / 2} {
			page, err = repo.QueryByCity(ctx, domain.CityQuery{City: "faro", MinAvailableRooms: 1, Page: p, Size: 2})
			require.NoError(t, err)
			require.NotNil(t, page.Items)
			require.Empty(t, page.Items)
			require.Equal(t, int64(3), page.Total)
		}
	})

	t.Run("concurrent reservations never oversell", func(t *testing.T) {
		const rooms, callers = 5, 12
		seedHotel(t, repo, 400, "Braga", 70, rooms)
		coord := app.NewReservationCoordinator(repo, repo, app.WithMaxAttempts(callers+1))

		var wg sync.WaitGroup
		var mu sync.Mutex
		outcomes := map[string]int{}
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := coord.CreateReservation(ctx, request(400))
				key := "ok"
				switch {
				case err == nil:
				case errors.Is(err, domain.ErrNoAvailability):
					key = "full"
				default:
					key = err.Error()
				}
				mu.Lock()
				outcomes[key]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Equal(t, rooms, outcomes["ok"], "outcomes: %v", outcomes)
		require.Equal(t, callers-rooms, outcomes["full"], "outcomes: %v", outcomes)

		h, err := repo.LoadHotel(ctx, 400)
		require.NoError(t, err)
		require.Equal(t, 0, h.AvailableRooms)
		require.Equal(t, int64(rooms), h.Version)

		n, err := repo.CountReservations(ctx, 400)
		require.NoError(t, err)
		require.Equal(t, rooms, n)
	})

	t.Run("failed insert rolls back the decrement", func(t *testing.T) {
		seedHotel(t, repo, 500, "Evora", 60, 3)
		coord := app.NewReservationCoordinator(repo, repo,
			app.WithReferenceGenerator(func() string { return "00000000-0000-0000-0000-000000000500" }))

		_, err := coord.CreateReservation(ctx, request(500))
		require.NoError(t, err)

		// duplicate reference violates the unique key
		_, err = coord.CreateReservation(ctx, request(500))
		require.Error(t, err)

		h, err := repo.LoadHotel(ctx, 500)
		require.NoError(t, err)
		require.Equal(t, 2, h.AvailableRooms)
		require.Equal(t, int64(1), h.Version)

		n, err := repo.CountReservations(ctx, 500)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}
