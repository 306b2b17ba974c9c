package entities

// GeoCoordinate is a point in decimal degrees as stored in the coordinate table.
type GeoCoordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// IsOrigin reports whether the point is exactly (0,0), which callers use as "unset".
func (c GeoCoordinate) IsOrigin() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// InRange reports whether latitude and longitude are within their valid ranges.
func (c GeoCoordinate) InRange() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// MapCoordinates is the lat/lng shape returned to map clients.
type MapCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
