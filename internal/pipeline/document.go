package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/bonoworker/internal/crawler"
	"sjsage522/bonoworker/internal/geo"
)

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

// FinalDocument is the result of one run. It is not modified after Run returns.
type FinalDocument struct {
	GeneratedAt     time.Time
	TotalMerchants  int
	Classifications []string
	Groups          []crawler.CategoryGroup
}

type wireDocument struct {
	Meta       wireMeta    `json:"meta"`
	Categorias []string    `json:"categorias"`
	Data       []wireGroup `json:"data"`
}

type wireMeta struct {
	LastUpdated    int64  `json:"lastUpdated"`
	TotalComercios int    `json:"totalComercios"`
	GeneratedAt    string `json:"generatedAt"`
}

type wireGroup struct {
	Categoria string         `json:"categoria"`
	Comercios []wireComercio `json:"comercios"`
}

// Absent links serialize as null; coordinates are omitted when unresolved.
type wireComercio struct {
	Nombre          string   `json:"nombre"`
	Web             *string  `json:"web"`
	Direccion       string   `json:"direccion"`
	MapsURL         *string  `json:"maps_url"`
	Logo            *string  `json:"logo"`
	CustomCategoria string   `json:"customCategoria"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
}

// MarshalJSON writes the document in the format read by the map front end.
func (d *FinalDocument) MarshalJSON() ([]byte, error) {
	generated := d.GeneratedAt.UTC()
	w := wireDocument{
		Meta: wireMeta{
			LastUpdated:    generated.UnixMilli(),
			TotalComercios: d.TotalMerchants,
			GeneratedAt:    generated.Format(isoMillis),
		},
		Categorias: d.Classifications,
		Data:       make([]wireGroup, 0, len(d.Groups)),
	}
	if w.Categorias == nil {
		w.Categorias = []string{}
	}

	for _, g := range d.Groups {
		wg := wireGroup{Categoria: g.Label, Comercios: make([]wireComercio, 0, len(g.Merchants))}
		for _, m := range g.Merchants {
			wc := wireComercio{
				Nombre:          m.Name,
				Web:             optional(m.Website),
				Direccion:       m.Address,
				MapsURL:         optional(m.MapsURL),
				Logo:            optional(m.Logo),
				CustomCategoria: m.Classification,
			}
			if m.Coordinates != nil {
				lat, lng := m.Coordinates.Lat, m.Coordinates.Lng
				wc.Lat, wc.Lng = &lat, &lng
			}
			wg.Comercios = append(wg.Comercios, wc)
		}
		w.Data = append(w.Data, wg)
	}

	return json.Marshal(w)
}

// UnmarshalJSON reads a document written by MarshalJSON.
func (d *FinalDocument) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	generated := time.UnixMilli(w.Meta.LastUpdated).UTC()
	if w.Meta.GeneratedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, w.Meta.GeneratedAt)
		if err != nil {
			return fmt.Errorf("invalid generatedAt: %w", err)
		}
		generated = t
	}

	groups := make([]crawler.CategoryGroup, 0, len(w.Data))
	for _, wg := range w.Data {
		g := crawler.CategoryGroup{Label: wg.Categoria, Merchants: make([]crawler.Merchant, 0, len(wg.Comercios))}
		for _, wc := range wg.Comercios {
			m := crawler.Merchant{
				Name:           wc.Nombre,
				Website:        deref(wc.Web),
				Address:        wc.Direccion,
				MapsURL:        deref(wc.MapsURL),
				Logo:           deref(wc.Logo),
				Classification: wc.CustomCategoria,
			}
			if wc.Lat != nil && wc.Lng != nil {
				m.Coordinates = &geo.Coordinates{Lat: *wc.Lat, Lng: *wc.Lng}
			}
			g.Merchants = append(g.Merchants, m)
		}
		groups = append(groups, g)
	}

	*d = FinalDocument{
		GeneratedAt:     generated,
		TotalMerchants:  w.Meta.TotalComercios,
		Classifications: w.Categorias,
		Groups:          groups,
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
