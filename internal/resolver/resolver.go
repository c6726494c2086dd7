// Package resolver turns map-search links into validated coordinates by
// querying an external search endpoint and scanning the response text.
package resolver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"sjsage522/bonoworker/helpers"
	"sjsage522/bonoworker/internal/geo"
	"sjsage522/bonoworker/logger"
	apperrors "sjsage522/bonoworker/pkg/errors"
	"sjsage522/bonoworker/pkg/metrics"
	"sjsage522/bonoworker/services/cache"
)

const component = "resolver"

// Config controls how the resolver talks to the search endpoint
type Config struct {
	SearchBaseURL  string
	Timeout        time.Duration
	MaxRedirects   int
	MaxBodyBytes   int64
	RetryTransient bool
	// DebugFirst logs the first N resolutions of a run in detail.
	DebugFirst int
	Locality   Locality
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		SearchBaseURL: "https://www.google.com/maps/search/",
		Timeout:       7 * time.Second,
		MaxRedirects:  3,
		MaxBodyBytes:  8 << 20,
		DebugFirst:    3,
		Locality:      ValenciaLocality,
	}
}

// Resolver resolves map-search URLs to coordinates. It is safe for concurrent use.
type Resolver struct {
	config  Config
	client  *http.Client
	cache   *cache.LookupCache
	metrics *metrics.Metrics
	log     *logger.Logger
	started atomic.Int64
}

// Option configures the resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the default client built from Config
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithMetrics records resolution outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New creates a resolver memoizing into lookup
func New(config Config, lookup *cache.LookupCache, opts ...Option) *Resolver {
	if lookup == nil {
		lookup = cache.NewLookupCache()
	}
	r := &Resolver{
		config: config,
		client: helpers.NewClient(config.Timeout, config.MaxRedirects),
		cache:  lookup,
		log:    logger.ForResolver(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

// Cache returns the lookup cache the resolver writes to
func (r *Resolver) Cache() *cache.LookupCache {
	return r.cache
}

// Resolve returns validated coordinates for mapsURL, or nil. Every failure
// is cached as an absence so the URL is not requested again in this run;
// request failures are kept out of the backing store.
func (r *Resolver) Resolve(ctx context.Context, mapsURL string) *geo.Coordinates {
	if mapsURL == "" {
		return nil
	}

	debug := r.started.Add(1) <= int64(r.config.DebugFirst)
	log := r.log.WithField("maps_url", mapsURL)

	if entry, ok := r.cache.Get(mapsURL); ok {
		r.metrics.CacheHitsTotal.Inc()
		if debug {
			log.Debug().Bool("found", entry.Found()).Msg("Cache hit")
		}
		return entry.Coordinates
	}
	r.metrics.CacheMissesTotal.Inc()

	coords, outcome, err := r.lookup(ctx, mapsURL)
	r.metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()

	if outcome == metrics.OutcomeError && ctx.Err() != nil {
		// Cancelled by the caller: not a verdict about this URL.
		log.Debug().Err(err).Msg("Resolution cancelled")
		return nil
	}

	if debug {
		event := log.Debug().Str("outcome", outcome)
		if coords != nil {
			event = event.Float64("lat", coords.Lat).Float64("lng", coords.Lng)
		}
		event.Err(err).Msg("Resolved map link")
	} else if err != nil && outcome == metrics.OutcomeError {
		log.Debug().Err(err).Msg("Search request failed")
	}

	if outcome == metrics.OutcomeError {
		return r.cache.PutLocal(mapsURL, coords).Coordinates
	}
	return r.cache.Put(mapsURL, coords).Coordinates
}

// lookup queries the search endpoint and validates the result without touching the cache
func (r *Resolver) lookup(ctx context.Context, mapsURL string) (*geo.Coordinates, string, error) {
	query := SearchQuery(mapsURL)
	if query == "" {
		return nil, metrics.OutcomeNoQuery, apperrors.NewNotFound(component, "no search query in map link")
	}

	body, err := r.search(ctx, r.SearchURL(query))
	if err != nil && r.config.RetryTransient && apperrors.IsRetryable(err) && ctx.Err() == nil {
		r.log.Debug().Err(err).Str("query", query).Msg("Retrying transient failure")
		body, err = r.search(ctx, r.SearchURL(query))
	}
	if err != nil {
		return nil, metrics.OutcomeError, err
	}

	coords, pattern := geo.ExtractWithPattern(body)
	if pattern == geo.PatternNoneFound {
		return nil, metrics.OutcomeNotFound, apperrors.NewNotFound(component, "no coordinates for "+query)
	}

	if !r.config.Locality.Bounds.Contains(coords) {
		r.log.Debug().
			Str("query", query).
			Str("coords", coords.String()).
			Msg("Discarding coordinates outside bounding box")
		return nil, metrics.OutcomeOutOfBounds, apperrors.NewValidation(component, "coordinates outside bounding box: "+coords.String())
	}

	return &coords, metrics.OutcomeResolved, nil
}

// SearchQuery returns the free-text q parameter of a map-search link
func SearchQuery(mapsURL string) string {
	u, err := url.Parse(mapsURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("q")
}

// SearchURL builds the search request for query, qualified with the locality
// and centred on its reference point.
func (r *Resolver) SearchURL(query string) string {
	base := r.config.SearchBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + escapeComponent(r.config.Locality.Qualify(query)) + "/" + r.config.Locality.viewport()
}

// componentUnescaper restores the marks a URI component leaves literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes s as a URI component: everything except letters,
// digits and - _ . ! ~ * ' ( ) is percent-encoded.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// search issues one upstream request and returns the body as text
func (r *Resolver) search(ctx context.Context, searchURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", apperrors.NewValidation(component, "invalid search url: "+err.Error())
	}
	helpers.SetBrowserHeaders(req)

	start := time.Now()
	resp, err := r.client.Do(req)
	r.metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.UpstreamRequests.WithLabelValues(metrics.StatusClass(0)).Inc()
		return "", apperrors.NewNetwork(component, "search request failed", err)
	}
	defer resp.Body.Close()
	r.metrics.UpstreamRequests.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return "", apperrors.NewUpstream(component, resp.StatusCode)
	}

	data, err := helpers.ReadLimited(resp.Body, r.config.MaxBodyBytes)
	if err != nil {
		return "", apperrors.NewNetwork(component, "search response unreadable", err)
	}
	return string(data), nil
}
