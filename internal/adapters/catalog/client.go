// Package catalog talks to the upstream hotel content API used to seed inventory.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/domain"
)

const maxRetries = 3

var (
	ErrNotFound     = fmt.Errorf("catalog: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("catalog: unauthorized")
	ErrForbidden    = errors.New("catalog: forbidden")
)

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter

	// newBackOff builds the retry schedule of one request.
	newBackOff func() backoff.BackOff
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, errors.New("catalog base URL is required")
	}
	if key == "" {
		return nil, errors.New("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.RandomizationFactor = 0.5
			b.MaxInterval = 2 * time.Second
			return b
		},
	}, nil
}

// GetHotel fetches one hotel payload from /hotels/{id}, falling back to the
// legacy /property/{id} path when the first answers 404.
func (c *Client) GetHotel(ctx context.Context, id int64) (map[string]any, error) {
	var out map[string]any
	err := c.fetch(ctx, fmt.Sprintf("%s/hotels/%d", c.base, id), &out)
	if errors.Is(err, ErrNotFound) {
		err = c.fetch(ctx, fmt.Sprintf("%s/property/%d", c.base, id), &out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// fetch GETs url into out. Transport errors, 429 and 5xx are retried with
// exponential backoff; a Retry-After header is waited out first.
func (c *Client) fetch(ctx context.Context, url string, out any) error {
	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxRetries), ctx)

	err := backoff.Retry(func() error {
		if err := c.rl.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "travel-booking-seeder/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("catalog", "hotel", 0, time.Since(start))
			return err
		}
		defer resp.Body.Close()
		observability.ObserveExternal("catalog", "hotel", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			return backoff.Permanent(json.NewDecoder(resp.Body).Decode(out))
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusUnauthorized:
			return backoff.Permanent(ErrUnauthorized)
		case resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(ErrForbidden)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if d := retryAfter(resp.Header.Get("Retry-After")); d > 0 {
				t := time.NewTimer(d)
				defer t.Stop()
				select {
				case <-ctx.Done():
					return backoff.Permanent(ctx.Err())
				case <-t.C:
				}
			}
			return fmt.Errorf("catalog: remote %d", resp.StatusCode)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return backoff.Permanent(fmt.Errorf("catalog: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
	}, b)

	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// retryAfter reads the seconds form of Retry-After, capped at 30s.
func retryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, 30*time.Second)
}
