package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geometry tags returned by the geocoder.
const (
	GeometryPoint        = "Point"
	GeometryLineString   = "LineString"
	GeometryPolygon      = "Polygon"
	GeometryMultiPolygon = "MultiPolygon"
)

// Geometry is a GeoJSON geometry. Coordinates are kept raw because their nesting
// depth depends on Type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// IsLinear reports a LineString.
func (g *Geometry) IsLinear() bool {
	return g != nil && g.Type == GeometryLineString
}

// IsAreal reports a Polygon or MultiPolygon.
func (g *Geometry) IsAreal() bool {
	return g != nil && (g.Type == GeometryPolygon || g.Type == GeometryMultiPolygon)
}

// HasShape reports whether the geometry describes a line or an area rather than a point.
func (g *Geometry) HasShape() bool {
	return g.IsLinear() || g.IsAreal()
}

// GeocodedPlace is one geocoding candidate.
type GeocodedPlace struct {
	Query       string    `json:"query"`
	DisplayName string    `json:"displayName"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	GeoJSON     *Geometry `json:"geojson,omitempty"`
	BoundingBox []string  `json:"bounding_box,omitempty"` // south, north, west, east
}

// Point returns the place centroid.
func (p GeocodedPlace) Point() GeoPoint {
	return GeoPoint{Lat: p.Lat, Lon: p.Lon}
}

// Viewbox is a soft spatial bias for geocoding. It never excludes results.
type Viewbox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Valid reports whether the box has a non-degenerate extent inside WGS 84 bounds.
func (v Viewbox) Valid() bool {
	return v.West >= -180 && v.East <= 180 && v.South >= -90 && v.North <= 90 &&
		v.West < v.East && v.South < v.North
}

// Param renders the box as the geocoder's x1,y1,x2,y2 parameter.
func (v Viewbox) Param() string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	return f(v.West) + "," + f(v.South) + "," + f(v.East) + "," + f(v.North)
}

// UnmarshalJSON accepts either an object or the map client's "x1,y1,x2,y2" string.
func (v *Viewbox) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		box, err := ParseViewbox(s)
		if err != nil {
			return err
		}
		*v = box
		return nil
	}
	type plain Viewbox
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Viewbox(p)
	return nil
}

// ParseViewbox parses "lon1,lat1,lon2,lat2" in any corner order.
func ParseViewbox(s string) (Viewbox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Viewbox{}, fmt.Errorf("viewbox must have 4 comma-separated numbers, got %q", s)
	}
	var n [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Viewbox{}, fmt.Errorf("viewbox component %d: %w", i, err)
		}
		n[i] = f
	}
	return Viewbox{
		West:  min(n[0], n[2]),
		East:  max(n[0], n[2]),
		South: min(n[1], n[3]),
		North: max(n[1], n[3]),
	}, nil
}

// MapContext is what the map client knows about its current view.
type MapContext struct {
	Viewbox      *Viewbox  `json:"viewbox,omitempty"`
	Center       *GeoPoint `json:"center,omitempty"`
	RadiusMeters float64   `json:"radius_m,omitempty"`
}

// Profile is a travel mode.
type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileCycling Profile = "cycling"
	ProfileWalking Profile = "walking"
)

var profileAliases = map[string]Profile{
	"car":       ProfileDriving,
	"coche":     ProfileDriving,
	"auto":      ProfileDriving,
	"driving":   ProfileDriving,
	"voiture":   ProfileDriving,
	"drive":     ProfileDriving,
	"bike":      ProfileCycling,
	"bici":      ProfileCycling,
	"bicicleta": ProfileCycling,
	"cycling":   ProfileCycling,
	"vélo":      ProfileCycling,
	"walk":      ProfileWalking,
	"walking":   ProfileWalking,
	"andar":     ProfileWalking,
	"a pie":     ProfileWalking,
	"foot":      ProfileWalking,
	"à pied":    ProfileWalking,
}

// ParseProfile maps a free-text travel mode onto a Profile. Unknown input means driving.
func ParseProfile(raw string) Profile {
	if p, ok := profileAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return ProfileDriving
}

// Step is one turn-by-turn instruction.
type Step struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"duration"`
	ManeuverType    string  `json:"type"`
}

// RouteResult is a computed path between two geocoded endpoints.
type RouteResult struct {
	Origin          GeocodedPlace `json:"origin"`
	Destination     GeocodedPlace `json:"destination"`
	Profile         Profile       `json:"profile"`
	DistanceMeters  float64       `json:"distance"`
	DurationSeconds float64       `json:"duration"`
	Geometry        *Geometry     `json:"geometry,omitempty"`
	Steps           []Step        `json:"steps"`
	Summary         string        `json:"summary"`
}
