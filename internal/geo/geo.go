// Package geo holds coordinate types and the text scanner that recovers a
// coordinate pair from map-search response bodies.
package geo

import "fmt"

// Coordinates is a WGS 84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the pair as "lat,lng".
func (c Coordinates) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lng)
}

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether c lies inside the box, edges included.
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}
