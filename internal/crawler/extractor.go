package crawler

import (
	"io"
	"strings"

	"sjsage522/bonoworker/helpers"
	"sjsage522/bonoworker/logger"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns a directory page into category groups.
type Extractor struct {
	config DirectoryConfig
	log    *logger.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(config DirectoryConfig) *Extractor {
	if config.DefaultLabel == "" {
		config.DefaultLabel = DefaultPanelLabel
	}
	return &Extractor{
		config: config,
		log:    logger.ForExtractor(),
	}
}

// Extract parses the page read from r. It never fails: unreadable input
// yields no groups, and malformed panels or rows are skipped.
func (e *Extractor) Extract(r io.Reader) []CategoryGroup {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to parse directory page")
		return nil
	}
	return e.ExtractDocument(doc)
}

// ExtractString parses an HTML string.
func (e *Extractor) ExtractString(html string) []CategoryGroup {
	return e.Extract(strings.NewReader(html))
}

// ExtractDocument walks the panels of an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document) []CategoryGroup {
	var groups []CategoryGroup
	var dropped int

	doc.Find(e.config.Selectors.Panel).Each(func(_ int, panel *goquery.Selection) {
		label := e.panelLabel(panel)

		var merchants []Merchant
		panel.Find(e.config.Selectors.Row).Each(func(_ int, row *goquery.Selection) {
			m, ok := e.processRow(row)
			if !ok {
				dropped++
				return
			}
			merchants = append(merchants, m)
		})

		if len(merchants) == 0 {
			e.log.Debug().Str("panel", label).Msg("Skipping panel without merchants")
			return
		}
		groups = append(groups, CategoryGroup{Label: label, Merchants: merchants})
	})

	e.log.Info().
		Int("groups", len(groups)).
		Int("dropped_rows", dropped).
		Msg("Extracted directory")

	return groups
}

// panelLabel uses the panel title, then the panel id, then the default label
func (e *Extractor) panelLabel(panel *goquery.Selection) string {
	if title := strings.TrimSpace(panel.Find(e.config.Selectors.PanelTitle).First().Text()); title != "" {
		return title
	}
	if id, exists := panel.Attr("id"); exists && id != "" {
		return id
	}
	return e.config.DefaultLabel
}

// processRow reads name/website/logo, address and map link from the first three cells
func (e *Extractor) processRow(row *goquery.Selection) (Merchant, bool) {
	cells := row.Find(e.config.Selectors.Cell)
	if cells.Length() < 3 {
		return Merchant{}, false
	}

	nameCell := cells.Eq(0)
	nameLink := nameCell.Find(e.config.Selectors.NameLink).First()
	name := strings.TrimSpace(nameLink.Text())
	if name == "" {
		name = strings.TrimSpace(nameCell.Text())
	}

	m := Merchant{
		Name:    name,
		Website: e.attrURL(nameLink, "href"),
		Logo:    e.attrURL(nameCell.Find(e.config.Selectors.Logo).First(), "src"),
		Address: helpers.NormalizeSpace(cells.Eq(1).Text()),
		MapsURL: e.attrURL(cells.Eq(2).Find(e.config.Selectors.MapsLink).First(), "href"),
	}

	if m.IsEmpty() {
		return Merchant{}, false
	}
	return m, true
}

func (e *Extractor) attrURL(s *goquery.Selection, attr string) string {
	value, exists := s.Attr(attr)
	if !exists {
		return ""
	}
	return ResolveURL(e.config.Origin, value)
}
