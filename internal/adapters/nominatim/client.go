package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/upstream"
)

const (
	provider = "nominatim"

	// geometryCandidates is how many candidates are requested when a shape is
	// wanted: the first match is often a bare node while the way or relation
	// with the outline ranks lower.
	geometryCandidates = 5
	maxLimit           = 50
)

// Client implements ports.Geocoder against a Nominatim /search endpoint.
type Client struct {
	http     *upstream.Client
	endpoint string
}

// New creates a new Nominatim client. userAgent is mandatory under the
// provider's usage policy.
func New(endpoint, userAgent string, timeout time.Duration) *Client {
	return &Client{
		http:     upstream.New(provider, timeout, userAgent),
		endpoint: endpoint,
	}
}

type candidate struct {
	DisplayName string           `json:"display_name"`
	Lat         coordinate       `json:"lat"`
	Lon         coordinate       `json:"lon"`
	GeoJSON     *domain.Geometry `json:"geojson,omitempty"`
	BoundingBox []string         `json:"boundingbox,omitempty"`
}

// coordinate accepts both the quoted and the bare numeric form.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("coordinate %s: %w", data, err)
	}
	*c = coordinate(f)
	return nil
}

// ResolveOne returns the best candidate for query. With includeGeometry the
// first candidate carrying a Polygon, MultiPolygon or LineString wins, else the
// first candidate is returned as is.
func (c *Client) ResolveOne(ctx context.Context, query string, includeGeometry bool, viewbox *domain.Viewbox) (*domain.GeocodedPlace, error) {
	limit := 1
	if includeGeometry {
		limit = geometryCandidates
	}

	candidates, err := c.search(ctx, query, limit, includeGeometry, viewbox)
	if err != nil {
		return nil, err
	}

	best := candidates[0]
	if includeGeometry {
		for _, cand := range candidates {
			if cand.GeoJSON.HasShape() {
				best = cand
				break
			}
		}
	}
	place := best.toPlace(query)
	return &place, nil
}

// ResolveMany returns up to limit candidates. limit is clamped to [1, 50].
func (c *Client) ResolveMany(ctx context.Context, query string, limit int, viewbox *domain.Viewbox) ([]domain.GeocodedPlace, error) {
	limit = min(max(limit, 1), maxLimit)

	candidates, err := c.search(ctx, query, limit, false, viewbox)
	if err != nil {
		return nil, err
	}

	places := make([]domain.GeocodedPlace, 0, len(candidates))
	for _, cand := range candidates {
		places = append(places, cand.toPlace(query))
	}
	return places, nil
}

func (c *Client) search(ctx context.Context, query string, limit int, includeGeometry bool, viewbox *domain.Viewbox) ([]candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	if includeGeometry {
		params.Set("polygon_geojson", "1")
	}
	// No "bounded": the viewbox only biases ranking.
	if viewbox != nil && viewbox.Valid() {
		params.Set("viewbox", viewbox.Param())
	}

	resp, err := c.http.Get(ctx, c.endpoint, params)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, domain.UpstreamStatus(provider, resp.Status)
	}

	var candidates []candidate
	if err := json.Unmarshal(resp.Body, &candidates); err != nil {
		return nil, domain.Protocol(provider, err)
	}
	if len(candidates) == 0 {
		return nil, domain.NotFound(query)
	}
	return candidates, nil
}

func (c candidate) toPlace(query string) domain.GeocodedPlace {
	p := domain.GeocodedPlace{
		Query:       query,
		DisplayName: c.DisplayName,
		Lat:         float64(c.Lat),
		Lon:         float64(c.Lon),
		GeoJSON:     c.GeoJSON,
	}
	if len(c.BoundingBox) == 4 {
		p.BoundingBox = c.BoundingBox
	}
	return p
}
