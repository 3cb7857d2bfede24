package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
)

func TestCachedGeocoder_ResolveOne(t *testing.T) {
	next := &mockGeocoder{}
	cache := newMockCache()
	g := usecases.NewCachedGeocoder(next, cache, 600)
	ctx := context.Background()

	first, err := g.ResolveOne(ctx, "Plaza Mayor", false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.ResolveOne(ctx, "plaza mayor", false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(next.queries) != 1 {
		t.Errorf("expected one upstream call, got %d", len(next.queries))
	}
	if second.DisplayName != first.DisplayName {
		t.Errorf("expected cached place, got %+v", second)
	}
	for _, ttl := range cache.ttls {
		if ttl != 600 {
			t.Errorf("expected ttl 600, got %d", ttl)
		}
	}
}

func TestCachedGeocoder_KeyIncludesModeAndViewbox(t *testing.T) {
	next := &mockGeocoder{}
	g := usecases.NewCachedGeocoder(next, newMockCache(), 0)
	ctx := context.Background()
	box := &domain.Viewbox{West: -3.8, South: 40.3, East: -3.6, North: 40.5}

	_, _ = g.ResolveOne(ctx, "Retiro", false, nil)
	_, _ = g.ResolveOne(ctx, "Retiro", true, nil)
	_, _ = g.ResolveOne(ctx, "Retiro", true, box)
	_, _ = g.ResolveMany(ctx, "Retiro", 5, box)
	_, _ = g.ResolveMany(ctx, "Retiro", 10, box)

	if len(next.queries) != 5 {
		t.Errorf("expected every variant to miss, got %d upstream calls", len(next.queries))
	}
}

func TestCachedGeocoder_NotFoundIsNotCached(t *testing.T) {
	next := &mockGeocoder{resolveOneFn: func(ctx context.Context, query string, _ bool, _ *domain.Viewbox) (*domain.GeocodedPlace, error) {
		return nil, domain.NotFound(query)
	}}
	cache := newMockCache()
	g := usecases.NewCachedGeocoder(next, cache, 60)

	for i := 0; i < 2; i++ {
		if _, err := g.ResolveOne(context.Background(), "Atlantis", false, nil); !domain.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if len(next.queries) != 2 || len(cache.data) != 0 {
		t.Errorf("expected no caching of misses, calls=%d cached=%d", len(next.queries), len(cache.data))
	}
}

func TestCachedGeocoder_CacheErrorsAreIgnored(t *testing.T) {
	next := &mockGeocoder{}
	cache := newMockCache()
	cache.getErr = errors.New("connection reset")
	g := usecases.NewCachedGeocoder(next, cache, 60)

	places, err := g.ResolveMany(context.Background(), "cafés", 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || len(next.queries) != 1 {
		t.Errorf("expected pass-through, got places=%d calls=%d", len(places), len(next.queries))
	}
}

func TestCachedGeocoder_NilCache(t *testing.T) {
	next := &mockGeocoder{}
	g := usecases.NewCachedGeocoder(next, nil, 60)

	for i := 0; i < 2; i++ {
		if _, err := g.ResolveOne(context.Background(), "Sol", false, nil); err != nil {
			t.Fatal(err)
		}
	}
	if len(next.queries) != 2 {
		t.Errorf("expected every call to reach the provider, got %d", len(next.queries))
	}
}
