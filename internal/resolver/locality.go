package resolver

import (
	"strconv"
	"strings"

	"sjsage522/bonoworker/internal/geo"
)

// Locality biases searches toward one city and rejects results outside it.
type Locality struct {
	// Mention is the text whose presence in a query means it is already qualified.
	Mention string
	// Qualifier is appended to unqualified queries.
	Qualifier string
	Center    geo.Coordinates
	Zoom      int
	Bounds    geo.BoundingBox
}

// ValenciaLocality covers the city of Valencia, Spain.
var ValenciaLocality = Locality{
	Mention:   "Valencia",
	Qualifier: "Valencia, España",
	Center:    geo.Coordinates{Lat: 39.4699, Lng: -0.3763},
	Zoom:      12,
	Bounds: geo.BoundingBox{
		MinLat: 39.3,
		MaxLat: 39.6,
		MinLng: -0.5,
		MaxLng: -0.2,
	},
}

// Qualify appends the locality qualifier unless the query already mentions the city.
func (l Locality) Qualify(query string) string {
	if l.Mention == "" || strings.Contains(query, l.Mention) {
		return query
	}
	return query + ", " + l.Qualifier
}

// viewport renders the "@lat,lng,zoomz" path segment centred on the locality.
func (l Locality) viewport() string {
	return "@" + strconv.FormatFloat(l.Center.Lat, 'f', -1, 64) +
		"," + strconv.FormatFloat(l.Center.Lng, 'f', -1, 64) +
		"," + strconv.Itoa(l.Zoom) + "z"
}
