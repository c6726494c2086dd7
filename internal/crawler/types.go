package crawler

import "sjsage522/bonoworker/internal/geo"

// Merchant is one affiliated business listed in the directory. Empty strings
// mean the field was absent in the source document.
type Merchant struct {
	Name           string
	Website        string
	Address        string
	MapsURL        string
	Logo           string
	Classification string
	Coordinates    *geo.Coordinates
}

// IsEmpty reports whether the merchant carries no usable information.
func (m Merchant) IsEmpty() bool {
	return m.Name == "" && m.Address == "" && m.MapsURL == ""
}

// CategoryGroup is a panel of the directory page with its merchants in document order.
type CategoryGroup struct {
	Label     string
	Merchants []Merchant
}

// Selectors contains CSS selectors for the directory page layout
type Selectors struct {
	Panel      string
	PanelTitle string
	Row        string
	Cell       string
	NameLink   string
	Logo       string
	MapsLink   string
}

// DirectoryConfig contains configuration for extracting a directory page
type DirectoryConfig struct {
	// Origin absolutizes relative links, e.g. "https://bonocomerciovlc.com".
	Origin string
	// DefaultLabel names a panel with neither a title nor an id.
	DefaultLabel string
	Selectors    Selectors
}

// DefaultSelectors matches the collapsible tab/accordion markup of the directory page.
var DefaultSelectors = Selectors{
	Panel:      ".vc_tta-panel",
	PanelTitle: ".vc_tta-title-text",
	Row:        ".vc_tta-panel-body table tr",
	Cell:       "td",
	NameLink:   "a",
	Logo:       "img",
	MapsLink:   "a",
}

// DefaultPanelLabel is used when a panel has no title and no id.
const DefaultPanelLabel = "Sin categoría"

// NewDirectoryConfig returns the default configuration for a directory served from origin.
func NewDirectoryConfig(origin string) DirectoryConfig {
	return DirectoryConfig{
		Origin:       origin,
		DefaultLabel: DefaultPanelLabel,
		Selectors:    DefaultSelectors,
	}
}
