package geo

import "math"

const earthRadiusMeters = 6371008.8

// Location represents a geographic coordinate in degrees.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// IsZero reports whether no position was configured.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0
}

// DistanceTo returns the great circle distance to o in meters.
func (l Location) DistanceTo(o Location) float64 {
	lat1 := l.Latitude * math.Pi / 180
	lat2 := o.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (o.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Provider defines the interface for obtaining the receiver location.
type Provider interface {
	GetLocation() Location
}

// StaticProvider implements Provider with a fixed location.
type StaticProvider struct {
	Lat float64
	Lng float64
}

// NewStaticProvider creates a provider that always returns the same location.
func NewStaticProvider(lat, lng float64) *StaticProvider {
	return &StaticProvider{
		Lat: lat,
		Lng: lng,
	}
}

// GetLocation returns the fixed location.
func (s *StaticProvider) GetLocation() Location {
	return Location{
		Latitude:  s.Lat,
		Longitude: s.Lng,
	}
}
