// Package pipeline composes extraction, classification and coordinate
// resolution into one run that produces the merchant document.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"sjsage522/bonoworker/helpers"
	"sjsage522/bonoworker/internal/classifier"
	"sjsage522/bonoworker/internal/crawler"
	"sjsage522/bonoworker/logger"
	apperrors "sjsage522/bonoworker/pkg/errors"
	"sjsage522/bonoworker/pkg/metrics"
	"sjsage522/bonoworker/services/worker"
)

// Stats summarizes a run
type Stats struct {
	Groups    int
	Merchants int
	Requested int
	Resolved  int
	Elapsed   time.Duration
}

// Source supplies the directory page
type Source interface {
	Fetch(ctx context.Context) (io.Reader, error)
}

// HTTPSource fetches the directory page over HTTP
type HTTPSource struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

// Fetch downloads the page with browser-like headers
func (s *HTTPSource) Fetch(ctx context.Context) (io.Reader, error) {
	return helpers.FetchWithBrowserHeaders(ctx, s.Client, s.URL, s.MaxBytes)
}

// Classifier assigns a label to a merchant
type Classifier interface {
	Classify(name, website string) string
}

// Pipeline runs extract → classify → resolve → merge
type Pipeline struct {
	extractor  *crawler.Extractor
	classifier Classifier
	worker     *worker.Worker
	metrics    *metrics.Metrics
	now        func() time.Time
	log        *logger.Logger
}

// New creates a pipeline. A nil classifier uses the default taxonomy.
func New(extractor *crawler.Extractor, cls Classifier, w *worker.Worker, m *metrics.Metrics) *Pipeline {
	if cls == nil {
		cls = classifier.New(classifier.DefaultRules, classifier.DefaultLabel)
	}
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{
		extractor:  extractor,
		classifier: cls,
		worker:     w,
		metrics:    m,
		now:        time.Now,
		log:        logger.ForPipeline(),
	}
}

// Generate fetches the page from src and runs the pipeline. A page that cannot
// be fetched, a page that lists no merchants, or a context cancelled before
// resolution finishes fails the run: no partial document is produced.
func (p *Pipeline) Generate(ctx context.Context, src Source) (*FinalDocument, Stats, error) {
	body, err := src.Fetch(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("fetch directory: %w", err)
	}

	doc, stats := p.RunReader(ctx, body)
	if err := ctx.Err(); err != nil {
		return nil, stats, fmt.Errorf("run interrupted: %w", err)
	}
	if doc.TotalMerchants == 0 {
		return nil, stats, apperrors.NewParsing("pipeline", "directory page lists no merchants", nil)
	}

	p.metrics.LastSuccessUnixMs.Set(float64(doc.GeneratedAt.UnixMilli()))
	return doc, stats, nil
}

// Run processes an HTML string
func (p *Pipeline) Run(ctx context.Context, html string) (*FinalDocument, Stats) {
	return p.RunDocument(ctx, p.extractor.ExtractString(html))
}

// RunReader processes HTML read from r
func (p *Pipeline) RunReader(ctx context.Context, r io.Reader) (*FinalDocument, Stats) {
	return p.RunDocument(ctx, p.extractor.Extract(r))
}

// position locates a merchant in the group tree
type position struct {
	group, merchant int
}

// RunDocument classifies, resolves and merges already extracted groups.
// Group and merchant order are preserved.
func (p *Pipeline) RunDocument(ctx context.Context, groups []crawler.CategoryGroup) (*FinalDocument, Stats) {
	start := p.now()

	// Classify, and flatten to a dense index over every merchant
	var positions []position
	var requests []worker.Request
	for gi := range groups {
		for mi := range groups[gi].Merchants {
			m := &groups[gi].Merchants[mi]
			m.Classification = p.classifier.Classify(m.Name, m.Website)

			index := len(positions)
			positions = append(positions, position{group: gi, merchant: mi})
			if m.MapsURL != "" {
				requests = append(requests, worker.Request{Index: index, MapsURL: m.MapsURL})
			}
		}
	}

	p.log.Info().
		Int("with_maps", len(requests)).
		Int("merchants", len(positions)).
		Msg("Resolving coordinates")

	// Route each result back by index: names repeat and addresses may be empty
	var resolved int
	for _, r := range p.worker.ResolveAll(ctx, requests) {
		if r.Coordinates == nil {
			continue
		}
		pos := positions[r.Index]
		c := *r.Coordinates
		groups[pos.group].Merchants[pos.merchant].Coordinates = &c
		resolved++
	}

	generated := p.now()
	doc := &FinalDocument{
		GeneratedAt:     generated,
		TotalMerchants:  len(positions),
		Classifications: distinctLabels(groups),
		Groups:          groups,
	}

	stats := Stats{
		Groups:    len(groups),
		Merchants: len(positions),
		Requested: len(requests),
		Resolved:  resolved,
		Elapsed:   generated.Sub(start),
	}

	p.metrics.GroupsTotal.Set(float64(stats.Groups))
	p.metrics.MerchantsTotal.Set(float64(stats.Merchants))
	p.metrics.RunDuration.Set(stats.Elapsed.Seconds())

	p.log.Info().
		Int("groups", stats.Groups).
		Int("merchants", stats.Merchants).
		Int("resolved", stats.Resolved).
		Int("requested", stats.Requested).
		Strs("classifications", doc.Classifications).
		Dur("elapsed", stats.Elapsed).
		Msg("Document generated")

	return doc, stats
}

// distinctLabels returns the sorted set of classification labels in groups
func distinctLabels(groups []crawler.CategoryGroup) []string {
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, m := range g.Merchants {
			seen[m.Classification] = struct{}{}
		}
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
