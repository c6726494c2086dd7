package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPriority(t *testing.T) {
	// Data blob beats a q= parameter carrying different values
	text := `href="/maps?q=40.1,-3.7" data="[null,\"!1m2!3d39.4702!4d-0.3768\"]"`
	c, p := ExtractWithPattern(text)
	assert.Equal(t, PatternDataBlob, p)
	assert.Equal(t, Coordinates{Lat: 39.4702, Lng: -0.3768}, c)
}

func TestExtractPatterns(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		want    Coordinates
		pattern Pattern
	}{
		{"escaped blob", `! !3d39.47!4d-0.38`, Coordinates{39.47, -0.38}, PatternDataBlob},
		{"path at comma", `https://www.google.com/maps/place/X/@39.4699,-0.3763,17z`, Coordinates{39.4699, -0.3763}, PatternPathAt},
		{"path at slash", `/@39.5,-0.4/data=`, Coordinates{39.5, -0.4}, PatternPathAt},
		{"escaped path", `https:\/\/www.google.com\/maps\/@39.46,-0.37,15z`, Coordinates{39.46, -0.37}, PatternPathAt},
		{"ll param", `https://maps.google.com/?ll=39.48,-0.35&z=12`, Coordinates{39.48, -0.35}, PatternLLParam},
		{"q param", `https://maps.google.com/maps?q=39.41,-0.41`, Coordinates{39.41, -0.41}, PatternQParam},
		{"q after other param", `?hl=es&q=39.42,-0.39`, Coordinates{39.42, -0.39}, PatternQParam},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, p := ExtractWithPattern(tc.text)
			assert.Equal(t, tc.pattern, p)
			assert.Equal(t, tc.want, c)
		})
	}
}

func TestExtractFallsThroughUnparseable(t *testing.T) {
	// The blob numbers are not numeric, so the q= parameter is used
	c, ok := Extract(`!3d-!4d. ... ?q=39.44,-0.36`)
	assert.True(t, ok)
	assert.Equal(t, Coordinates{39.44, -0.36}, c)
}

func TestExtractNoMatch(t *testing.T) {
	_, ok := Extract("")
	assert.False(t, ok)

	_, ok = Extract("<html>No results for Horno San Pablo</html>")
	assert.False(t, ok)

	// @ without trailing separator is not a path segment
	_, ok = Extract("/@39.47,-0.38")
	assert.False(t, ok)
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, `a/b "c" é`, Unescape(`a\/b \"c\" \u00e9`))
	assert.Equal(t, "", Unescape(""))
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLat: 39.3, MaxLat: 39.6, MinLng: -0.5, MaxLng: -0.2}
	assert.True(t, box.Contains(Coordinates{39.47, -0.38}))
	assert.True(t, box.Contains(Coordinates{39.3, -0.2}))
	assert.False(t, box.Contains(Coordinates{40.41, -3.70}))
	assert.False(t, box.Contains(Coordinates{39.47, -0.1}))
}
