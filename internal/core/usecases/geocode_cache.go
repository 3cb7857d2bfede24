package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
)

// CachedGeocoder wraps a Geocoder with a read-through cache.
// Cache failures are ignored; only successful lookups are stored, so a
// not-found answer is always asked again.
type CachedGeocoder struct {
	next       ports.Geocoder
	cache      ports.CacheService
	ttlSeconds int
}

// NewCachedGeocoder creates a new CachedGeocoder. A nil cache disables caching.
func NewCachedGeocoder(next ports.Geocoder, cache ports.CacheService, ttlSeconds int) *CachedGeocoder {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &CachedGeocoder{next: next, cache: cache, ttlSeconds: ttlSeconds}
}

// ResolveOne implements ports.Geocoder.
func (g *CachedGeocoder) ResolveOne(ctx context.Context, query string, includeGeometry bool, viewbox *domain.Viewbox) (*domain.GeocodedPlace, error) {
	key := fmt.Sprintf("geocode:one:%t:%s:%s", includeGeometry, viewboxKey(viewbox), strings.ToLower(query))

	var place domain.GeocodedPlace
	if g.lookup(ctx, "resolve_one", key, &place) {
		return &place, nil
	}

	res, err := g.next.ResolveOne(ctx, query, includeGeometry, viewbox)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, res)
	return res, nil
}

// ResolveMany implements ports.Geocoder.
func (g *CachedGeocoder) ResolveMany(ctx context.Context, query string, limit int, viewbox *domain.Viewbox) ([]domain.GeocodedPlace, error) {
	key := fmt.Sprintf("geocode:many:%d:%s:%s", limit, viewboxKey(viewbox), strings.ToLower(query))

	var places []domain.GeocodedPlace
	if g.lookup(ctx, "resolve_many", key, &places) && len(places) > 0 {
		return places, nil
	}

	res, err := g.next.ResolveMany(ctx, query, limit, viewbox)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, res)
	return res, nil
}

func (g *CachedGeocoder) lookup(ctx context.Context, op, key string, dst any) bool {
	if g.cache == nil {
		return false
	}
	data, err := g.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (g *CachedGeocoder) store(ctx context.Context, key string, v any) {
	if g.cache == nil || v == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = g.cache.Set(ctx, key, data, g.ttlSeconds)
	}
}

func viewboxKey(v *domain.Viewbox) string {
	if v == nil {
		return "-"
	}
	return v.Param()
}
