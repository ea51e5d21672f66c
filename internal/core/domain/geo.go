package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within latitude [-90,90] and longitude [-180,180].
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// RoutePoint is a vertex of a route path.
type RoutePoint = GeoPoint

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
}
