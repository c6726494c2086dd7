package geo

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Pattern names a coordinate encoding recognised by Extract.
type Pattern string

const (
	PatternDataBlob  Pattern = "data_blob"
	PatternPathAt    Pattern = "path_at"
	PatternLLParam   Pattern = "ll_param"
	PatternQParam    Pattern = "q_param"
	PatternNoneFound Pattern = ""
)

type coordinatePattern struct {
	name Pattern
	re   *regexp.Regexp
}

// Checked in order; the first pair that parses to finite numbers wins.
var coordinatePatterns = []coordinatePattern{
	{PatternDataBlob, regexp.MustCompile(`!3d([\-0-9.]+)!4d([\-0-9.]+)`)},
	{PatternPathAt, regexp.MustCompile(`/@([\-0-9.]+),([\-0-9.]+)[,/]`)},
	{PatternLLParam, regexp.MustCompile(`[?&]ll=([\-0-9.]+),([\-0-9.]+)`)},
	{PatternQParam, regexp.MustCompile(`[?&]q=([\-0-9.]+),([\-0-9.]+)`)},
}

var unicodeEscape = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

// Unescape reverses the JavaScript-style escaping found in embedded data blobs:
// \uXXXX sequences, escaped slashes and escaped quotes.
func Unescape(text string) string {
	if text == "" {
		return text
	}
	text = unicodeEscape.ReplaceAllStringFunc(text, func(m string) string {
		code, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
	text = strings.ReplaceAll(text, `\/`, "/")
	return strings.ReplaceAll(text, `\"`, `"`)
}

// Extract scans raw response text for a coordinate pair. The boolean is false
// when no pattern yields two finite numbers.
func Extract(text string) (Coordinates, bool) {
	c, p := ExtractWithPattern(text)
	return c, p != PatternNoneFound
}

// ExtractWithPattern is Extract that also reports which pattern matched.
func ExtractWithPattern(text string) (Coordinates, Pattern) {
	if text == "" {
		return Coordinates{}, PatternNoneFound
	}
	text = Unescape(text)

	for _, p := range coordinatePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		lat, latOK := parseFinite(m[1])
		lng, lngOK := parseFinite(m[2])
		if latOK && lngOK {
			return Coordinates{Lat: lat, Lng: lng}, p.name
		}
	}
	return Coordinates{}, PatternNoneFound
}

// parseFinite parses the longest numeric prefix of s, mirroring a lenient
// float parse: "39.47.1" yields 39.47, "-" or "." yield nothing.
func parseFinite(s string) (float64, bool) {
	for end := len(s); end > 0; end-- {
		v, err := strconv.ParseFloat(s[:end], 64)
		if err == nil {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}
