package providertoken

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetCachesUntilExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := New(
		WithClock(func() time.Time { return current }),
		WithSkew(time.Minute),
	)

	fetches := 0
	fetch := func(ctx context.Context) (string, time.Time, error) {
		fetches++
		return "token-1", current.Add(time.Hour), nil
	}

	for i := 0; i < 3; i++ {
		token, err := cache.Get(context.Background(), fetch)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if token != "token-1" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected a single fetch, got %d", fetches)
	}

	// Advance past expiry minus skew; next Get must refetch.
	current = current.Add(time.Hour)
	if _, err := cache.Get(context.Background(), fetch); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected refetch after expiry, got %d fetches", fetches)
	}
}

func TestGetPropagatesFetchError(t *testing.T) {
	cache := New()
	wantErr := errors.New("login rejected")

	_, err := cache.Get(context.Background(), func(ctx context.Context) (string, time.Time, error) {
		return "", time.Time{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := New(WithClock(func() time.Time { return current }))

	fetches := 0
	fetch := func(ctx context.Context) (string, time.Time, error) {
		fetches++
		return "token", current.Add(time.Hour), nil
	}

	if _, err := cache.Get(context.Background(), fetch); err != nil {
		t.Fatalf("get: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Get(context.Background(), fetch); err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected refetch after invalidate, got %d", fetches)
	}
}
