package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{"same point", 40.4168, -3.7038, 40.4168, -3.7038, 0, 0.001},
		{"Sol to Prado", 40.4168, -3.7038, 40.4138, -3.6921, 1050, 50},
		{"Madrid to Paris", 40.4168, -3.7038, 48.8566, 2.3522, 1053000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Haversine() = %.1f, want %.1f ± %.1f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(40.4168, -3.7038, 1000)

	if !(minLat < 40.4168 && maxLat > 40.4168 && minLon < -3.7038 && maxLon > -3.7038) {
		t.Fatalf("box does not contain its center: %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
	// the box edges are radius away from the center
	if d := Haversine(40.4168, -3.7038, maxLat, -3.7038); math.Abs(d-1000) > 5 {
		t.Errorf("north edge is %.1f m away, want ~1000", d)
	}
	if d := Haversine(40.4168, -3.7038, 40.4168, maxLon); math.Abs(d-1000) > 5 {
		t.Errorf("east edge is %.1f m away, want ~1000", d)
	}
}

func TestBoundingBox_Clamped(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(89.999, 10, 50000)
	if maxLat != 90 {
		t.Errorf("expected maxLat clamped to 90, got %v", maxLat)
	}
	if minLon != -180 || maxLon != 180 {
		t.Errorf("expected full longitude span near the pole, got %v..%v", minLon, maxLon)
	}
	if minLat >= 89.999 {
		t.Errorf("expected minLat below center, got %v", minLat)
	}

	_, minLon, _, maxLon = BoundingBox(0, 179.99, 5000)
	if maxLon != 180 || minLon >= 179.99 {
		t.Errorf("expected east edge clamped at the antimeridian, got %v..%v", minLon, maxLon)
	}
}
