package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/pkg/upstream"
)

const provider = "osrm"

// Public demo backends. The main OSRM server only serves the car profile
// reliably, so foot and bike go to the openstreetmap.de instances.
const (
	DefaultDrivingURL = "https://router.project-osrm.org/route/v1/driving"
	DefaultWalkingURL = "https://routing.openstreetmap.de/routed-foot/route/v1/foot"
	DefaultCyclingURL = "https://routing.openstreetmap.de/routed-bike/route/v1/cycling"
)

// Backends maps each profile to the route service base URL.
type Backends map[domain.Profile]string

// DefaultBackends returns the public backends.
func DefaultBackends() Backends {
	return Backends{
		domain.ProfileDriving: DefaultDrivingURL,
		domain.ProfileWalking: DefaultWalkingURL,
		domain.ProfileCycling: DefaultCyclingURL,
	}
}

// Client implements ports.Router. Endpoints are geocoded first, then routed.
type Client struct {
	http     *upstream.Client
	geocoder ports.Geocoder
	backends Backends
}

// New creates a new OSRM client. Missing profiles in backends take the defaults.
func New(geocoder ports.Geocoder, backends Backends, userAgent string, timeout time.Duration) *Client {
	merged := DefaultBackends()
	for p, u := range backends {
		if u != "" {
			merged[p] = strings.TrimRight(u, "/")
		}
	}
	return &Client{
		http:     upstream.New(provider, timeout, userAgent),
		geocoder: geocoder,
		backends: merged,
	}
}

type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64          `json:"distance"`
	Duration float64          `json:"duration"`
	Geometry *domain.Geometry `json:"geometry"`
	Legs     []leg            `json:"legs"`
}

type leg struct {
	Summary string `json:"summary"`
	Steps   []step `json:"steps"`
}

type step struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Maneuver struct {
		Type        string `json:"type"`
		Instruction string `json:"instruction"`
	} `json:"maneuver"`
}

// Route geocodes origin and destination without geometry or viewbox bias and
// returns the first route between them.
func (c *Client) Route(ctx context.Context, origin, destination string, profile domain.Profile) (*domain.RouteResult, error) {
	start, err := c.geocoder.ResolveOne(ctx, origin, false, nil)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	end, err := c.geocoder.ResolveOne(ctx, destination, false, nil)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	base, ok := c.backends[profile]
	if !ok {
		profile = domain.ProfileDriving
		base = c.backends[profile]
	}

	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "geojson")
	params.Set("alternatives", "false")
	params.Set("steps", "true")

	resp, err := c.http.Get(ctx, base+"/"+coordinates(start, end), params)
	if err != nil {
		return nil, err
	}

	var body routeResponse
	decodeErr := json.Unmarshal(resp.Body, &body)

	// OSRM answers 400 with a code for unroutable pairs.
	if decodeErr == nil && (body.Code == "NoRoute" || body.Code == "NoSegment") {
		return nil, domain.RouteNotFound(origin, destination)
	}
	if !resp.OK() {
		return nil, domain.UpstreamStatus(provider, resp.Status)
	}
	if decodeErr != nil {
		return nil, domain.Protocol(provider, decodeErr)
	}
	if len(body.Routes) == 0 {
		return nil, domain.RouteNotFound(origin, destination)
	}

	primary := body.Routes[0]
	result := &domain.RouteResult{
		Origin:          *start,
		Destination:     *end,
		Profile:         profile,
		DistanceMeters:  primary.Distance,
		DurationSeconds: primary.Duration,
		Geometry:        primary.Geometry,
		Steps:           []domain.Step{},
	}

	var summaries []string
	for _, l := range primary.Legs {
		if l.Summary != "" {
			summaries = append(summaries, l.Summary)
		}
		for _, s := range l.Steps {
			instruction := s.Maneuver.Instruction
			if instruction == "" {
				instruction = s.Name
			}
			result.Steps = append(result.Steps, domain.Step{
				Instruction:     instruction,
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
				ManeuverType:    s.Maneuver.Type,
			})
		}
	}
	result.Summary = strings.Join(summaries, ", ")

	return result, nil
}

// coordinates renders "lon,lat;lon,lat".
func coordinates(a, b *domain.GeocodedPlace) string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	return f(a.Lon) + "," + f(a.Lat) + ";" + f(b.Lon) + "," + f(b.Lat)
}
