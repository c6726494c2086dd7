package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sjsage522/bonoworker/internal/classifier"
	"sjsage522/bonoworker/internal/crawler"
	"sjsage522/bonoworker/internal/geo"
	"sjsage522/bonoworker/internal/resolver"
	apperrors "sjsage522/bonoworker/pkg/errors"
	"sjsage522/bonoworker/pkg/metrics"
	"sjsage522/bonoworker/services/cache"
	"sjsage522/bonoworker/services/worker"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryHTML = `<html><body>
<div class="vc_tta-panel" id="hosteleria">
  <span class="vc_tta-title-text">Hostelería</span>
  <div class="vc_tta-panel-body"><table>
    <tr>
      <td><a href="http://elsol.es">Bar El Sol</a></td>
      <td>Calle X 1</td>
      <td><a href="https://www.google.com/maps/search/?api=1&q=Bar+El+Sol">Mapa</a></td>
    </tr>
    <tr><td></td><td></td><td></td></tr>
    <tr>
      <td>Bar Lejos</td>
      <td>Calle Y 2</td>
      <td><a href="https://www.google.com/maps/search/?api=1&q=Bar+Lejos">Mapa</a></td>
    </tr>
  </table></div>
</div>
<div class="vc_tta-panel">
  <span class="vc_tta-title-text">Comercio</span>
  <div class="vc_tta-panel-body"><table>
    <tr>
      <td><a href="/tienda">Farmacia Central</a></td>
      <td>Plaza Z 3</td>
      <td></td>
    </tr>
  </table></div>
</div>
</body></html>`

// newSearchServer answers in-bounds for "Sol" and out-of-bounds otherwise
func newSearchServer(t *testing.T) *httptest.Server {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "Sol") {
			fmt.Fprint(w, `<script>var a="!3d39.47!4d-0.38";</script>`)
			return
		}
		fmt.Fprint(w, `<script>var a="!3d40.4168!4d-3.7038";</script>`)
	}))
	t.Cleanup(s.Close)
	return s
}

// countingClassifier records how often each merchant is classified
type countingClassifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingClassifier) Classify(name, website string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
	return classifier.Classify(name, website)
}

func newTestPipeline(t *testing.T, cls Classifier) (*Pipeline, *metrics.Metrics) {
	s := newSearchServer(t)
	m := metrics.New()

	cfg := resolver.DefaultConfig()
	cfg.SearchBaseURL = s.URL + "/maps/search/"
	cfg.Timeout = time.Second
	res := resolver.New(cfg, cache.NewLookupCache(), resolver.WithMetrics(m))

	extractor := crawler.NewExtractor(crawler.NewDirectoryConfig("https://bonocomerciovlc.com"))
	return New(extractor, cls, worker.NewWorker(res, 2, m), m), m
}

func TestRun(t *testing.T) {
	p, m := newTestPipeline(t, nil)

	doc, stats := p.Run(context.Background(), directoryHTML)
	require.Len(t, doc.Groups, 2)

	hosteleria := doc.Groups[0]
	assert.Equal(t, "Hostelería", hosteleria.Label)
	require.Len(t, hosteleria.Merchants, 2, "empty row is dropped")

	sol := hosteleria.Merchants[0]
	assert.Equal(t, "Bar El Sol", sol.Name)
	assert.Equal(t, "Calle X 1", sol.Address)
	assert.Equal(t, classifier.LabelBares, sol.Classification)
	require.NotNil(t, sol.Coordinates)
	assert.Equal(t, geo.Coordinates{Lat: 39.47, Lng: -0.38}, *sol.Coordinates)

	lejos := hosteleria.Merchants[1]
	assert.Equal(t, "Bar Lejos", lejos.Name)
	assert.Nil(t, lejos.Coordinates, "out-of-bounds result is discarded")

	farmacia := doc.Groups[1].Merchants[0]
	assert.Equal(t, "https://bonocomerciovlc.com/tienda", farmacia.Website)
	assert.Equal(t, classifier.LabelSalud, farmacia.Classification)
	assert.Nil(t, farmacia.Coordinates)

	assert.Equal(t, 3, doc.TotalMerchants)
	assert.Equal(t, []string{classifier.LabelBares, classifier.LabelSalud}, doc.Classifications)

	assert.Equal(t, Stats{Groups: 2, Merchants: 3, Requested: 2, Resolved: 1, Elapsed: stats.Elapsed}, stats)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MerchantsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GroupsTotal))
}

func TestRunClassifiesEachMerchantOnce(t *testing.T) {
	cls := &countingClassifier{}
	p, _ := newTestPipeline(t, cls)

	p.Run(context.Background(), directoryHTML)

	assert.Equal(t, map[string]int{
		"Bar El Sol":       1,
		"Bar Lejos":        1,
		"Farmacia Central": 1,
	}, cls.calls)
}

func TestRunDuplicateNamesRoutedByPosition(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	groups := []crawler.CategoryGroup{{
		Label: "A",
		Merchants: []crawler.Merchant{
			{Name: "Bar", MapsURL: "https://maps/?q=Lejos"},
			{Name: "Bar"},
			{Name: "Bar", MapsURL: "https://maps/?q=Sol"},
		},
	}}

	doc, stats := p.RunDocument(context.Background(), groups)
	merchants := doc.Groups[0].Merchants
	assert.Nil(t, merchants[0].Coordinates)
	assert.Nil(t, merchants[1].Coordinates)
	require.NotNil(t, merchants[2].Coordinates)
	assert.Equal(t, 2, stats.Requested)
	assert.Equal(t, 1, stats.Resolved)
}

func TestRunEmptyPage(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	doc, stats := p.Run(context.Background(), "<html><body>nothing here</body></html>")
	assert.Empty(t, doc.Groups)
	assert.Empty(t, doc.Classifications)
	assert.Equal(t, 0, doc.TotalMerchants)
	assert.Equal(t, 0, stats.Requested)
}

func TestDistinctLabelsSorted(t *testing.T) {
	groups := []crawler.CategoryGroup{
		{Merchants: []crawler.Merchant{{Classification: "Otros"}, {Classification: "Bares y restauración"}}},
		{Merchants: []crawler.Merchant{{Classification: "Óptica"}, {Classification: "Otros"}}},
	}
	assert.Equal(t, []string{"Bares y restauración", "Otros", "Óptica"}, distinctLabels(groups))
}

type stubSource struct {
	body string
	err  error
}

func (s stubSource) Fetch(ctx context.Context) (io.Reader, error) {
	if s.err != nil {
		return nil, s.err
	}
	return strings.NewReader(s.body), nil
}

func TestGenerate(t *testing.T) {
	p, m := newTestPipeline(t, nil)

	doc, stats, err := p.Generate(context.Background(), stubSource{body: directoryHTML})
	require.NoError(t, err)
	assert.Equal(t, 3, doc.TotalMerchants)
	assert.Equal(t, 3, stats.Merchants)
	assert.Equal(t, float64(doc.GeneratedAt.UnixMilli()), testutil.ToFloat64(m.LastSuccessUnixMs))
}

func TestGenerateFetchFailure(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	fetchErr := apperrors.NewNetwork("source", "connection refused", errors.New("dial tcp"))
	doc, _, err := p.Generate(context.Background(), stubSource{err: fetchErr})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
}

func TestGenerateEmptyDirectory(t *testing.T) {
	p, m := newTestPipeline(t, nil)

	doc, _, err := p.Generate(context.Background(), stubSource{body: "<html></html>"})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeParsing))
	assert.Zero(t, testutil.ToFloat64(m.LastSuccessUnixMs))
}

func TestHTTPSource(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, directoryHTML)
	}))
	defer s.Close()

	src := &HTTPSource{URL: s.URL, Client: s.Client(), MaxBytes: 1 << 20}
	r, err := src.Fetch(context.Background())
	require.NoError(t, err)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Bar El Sol")
}

func TestFinalDocumentJSON(t *testing.T) {
	generated := time.Date(2024, 5, 1, 10, 30, 0, 123000000, time.UTC)
	doc := &FinalDocument{
		GeneratedAt:     generated,
		TotalMerchants:  2,
		Classifications: []string{classifier.LabelBares, classifier.DefaultLabel},
		Groups: []crawler.CategoryGroup{{
			Label: "Hostelería",
			Merchants: []crawler.Merchant{
				{
					Name:           "Bar El Sol",
					Website:        "http://elsol.es",
					Address:        "Calle X 1",
					MapsURL:        "https://maps/?q=Sol",
					Classification: classifier.LabelBares,
					Coordinates:    &geo.Coordinates{Lat: 39.47, Lng: -0.38},
				},
				{Name: "Sin Web", Address: "Calle Y", Classification: classifier.DefaultLabel},
			},
		}},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	meta := raw["meta"].(map[string]any)
	assert.Equal(t, float64(generated.UnixMilli()), meta["lastUpdated"])
	assert.Equal(t, "2024-05-01T10:30:00.123Z", meta["generatedAt"])
	assert.Equal(t, float64(2), meta["totalComercios"])

	comercios := raw["data"].([]any)[0].(map[string]any)["comercios"].([]any)
	second := comercios[1].(map[string]any)
	assert.Contains(t, second, "web")
	assert.Nil(t, second["web"])
	assert.Nil(t, second["logo"])
	assert.NotContains(t, second, "lat")
	assert.NotContains(t, second, "lng")
	assert.Equal(t, 39.47, comercios[0].(map[string]any)["lat"])

	var back FinalDocument
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, generated.Equal(back.GeneratedAt))
	assert.Equal(t, doc.TotalMerchants, back.TotalMerchants)
	assert.Equal(t, doc.Classifications, back.Classifications)
	assert.Equal(t, doc.Groups, back.Groups)
}

func TestFinalDocumentJSONEmpty(t *testing.T) {
	data, err := json.Marshal(&FinalDocument{GeneratedAt: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"categorias":[]`)
	assert.Contains(t, string(data), `"data":[]`)
}

func TestGenerateCancelled(t *testing.T) {
	p, m := newTestPipeline(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, stats, err := p.Generate(ctx, stubSource{body: directoryHTML})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, doc)
	assert.Equal(t, 0, stats.Resolved)
	assert.Zero(t, testutil.ToFloat64(m.LastSuccessUnixMs))
}
