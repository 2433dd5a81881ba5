// Package geocode resolves free-text location strings to coordinates through
// a persistent cache in front of a single rate-limited external lookup.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/friend-map/internal/model"
	"github.com/sells-group/friend-map/internal/store"
)

// CacheSlot is the store slot holding the serialized cache.
const CacheSlot = "geocoding_cache"

// FallbackCoordinates is returned whenever a location cannot be resolved. It
// is the geographic center of the contiguous USA and doubles as the default
// map center.
var FallbackCoordinates = model.Coordinates{-98.5795, 39.8283}

// Lookup queries an external geocoding service. found is false when the
// service answered but had no candidate for the query.
type Lookup interface {
	Lookup(ctx context.Context, query string) (coords model.Coordinates, found bool, err error)
}

// CacheEntry is one resolved location. Timestamp is in Unix milliseconds.
type CacheEntry struct {
	Coordinates model.Coordinates `json:"coordinates"`
	Timestamp   int64             `json:"timestamp"`
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLookup replaces the default Nominatim lookup.
func WithLookup(l Lookup) Option {
	return func(r *Resolver) {
		r.lookup = l
	}
}

// WithHTTPClient sets a custom HTTP client for Nominatim requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.nominatim.httpClient = hc
	}
}

// WithBaseURL points the Nominatim lookup at a different search endpoint.
func WithBaseURL(u string) Option {
	return func(r *Resolver) {
		if u != "" {
			r.nominatim.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim.
func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		if ua != "" {
			r.nominatim.userAgent = ua
		}
	}
}

// WithRateLimit sets the requests-per-second rate limit for lookups.
func WithRateLimit(rps float64) Option {
	return func(r *Resolver) {
		if rps <= 0 {
			r.nominatim.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		r.nominatim.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSlot overrides the store slot name.
func WithSlot(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.slot = name
		}
	}
}

// WithClock sets the time source used for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithProgress registers a callback invoked after each person in ResolveAll.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Resolver) {
		r.progress = fn
	}
}

// Resolver maps location strings to coordinates. It owns the in-memory cache
// and writes it through to the store on every new entry. A Resolver is not
// safe for concurrent use; batch resolution is sequential.
type Resolver struct {
	store     store.Store
	slot      string
	cache     map[string]CacheEntry
	lookup    Lookup
	nominatim *NominatimLookup
	now       func() time.Time
	progress  func(done, total int)
}

// NewResolver loads the cache from st and returns a ready Resolver. A nil
// store keeps the cache in memory only. An unreadable store is an error; a
// slot that does not parse is logged and replaced by an empty cache.
func NewResolver(ctx context.Context, st store.Store, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		store:     st,
		slot:      CacheSlot,
		cache:     make(map[string]CacheEntry),
		nominatim: newNominatimLookup(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lookup == nil {
		r.lookup = r.nominatim
	}

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resolver) load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	data, ok, err := r.store.Get(ctx, r.slot)
	if err != nil {
		return eris.Wrap(err, "geocode: load cache")
	}
	if !ok || len(data) == 0 {
		return nil
	}

	var cache map[string]CacheEntry
	if err := json.Unmarshal(data, &cache); err != nil {
		zap.L().Warn("geocode: discarding unreadable cache",
			zap.String("slot", r.slot),
			zap.Error(err),
		)
		return nil
	}
	if cache != nil {
		r.cache = cache
	}
	zap.L().Debug("geocode: cache loaded", zap.Int("entries", len(r.cache)))
	return nil
}

func (r *Resolver) persist(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	data, err := json.Marshal(r.cache)
	if err != nil {
		return eris.Wrap(err, "geocode: marshal cache")
	}
	return eris.Wrap(r.store.Put(ctx, r.slot, data), "geocode: persist cache")
}

// Resolve returns the coordinates for text. Cached locations return
// immediately. Otherwise one lookup is made; a hit is cached and persisted,
// while any failure or empty answer yields FallbackCoordinates and leaves the
// cache untouched so the next call retries.
func (r *Resolver) Resolve(ctx context.Context, text string) model.Coordinates {
	if entry, ok := r.cache[text]; ok {
		zap.L().Debug("geocode cache hit", zap.String("location", text))
		return entry.Coordinates
	}

	coords, found, err := r.lookup.Lookup(ctx, text)
	if err != nil {
		zap.L().Warn("geocode: lookup failed, using fallback",
			zap.String("location", text),
			zap.Error(err),
		)
		return FallbackCoordinates
	}
	if !found {
		zap.L().Info("geocode: no match, using fallback", zap.String("location", text))
		return FallbackCoordinates
	}

	r.cache[text] = CacheEntry{Coordinates: coords, Timestamp: r.now().UnixMilli()}
	if err := r.persist(ctx); err != nil {
		zap.L().Error("geocode: cache write failed",
			zap.String("location", text),
			zap.Error(err),
		)
	}
	return coords
}

// ResolveAll resolves each person's location in order, one at a time, and
// returns copies carrying the coordinates. Input people are not modified.
func (r *Resolver) ResolveAll(ctx context.Context, people []model.Person) []model.Person {
	out := make([]model.Person, len(people))
	for i, p := range people {
		out[i] = p.Located(r.Resolve(ctx, p.Location))
		if r.progress != nil {
			r.progress(i+1, len(people))
		}
	}
	return out
}

// Cached returns the cache entry for text, if any.
func (r *Resolver) Cached(text string) (CacheEntry, bool) {
	e, ok := r.cache[text]
	return e, ok
}

// Len returns the number of cached locations.
func (r *Resolver) Len() int { return len(r.cache) }

// Entries returns a copy of the cache.
func (r *Resolver) Entries() map[string]CacheEntry {
	out := make(map[string]CacheEntry, len(r.cache))
	for k, v := range r.cache {
		out[k] = v
	}
	return out
}

// IsFallback reports whether c is the fallback sentinel.
func IsFallback(c model.Coordinates) bool {
	return c == FallbackCoordinates
}
