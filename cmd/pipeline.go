package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/sells-group/friend-map/internal/config"
	"github.com/sells-group/friend-map/internal/locations"
	"github.com/sells-group/friend-map/internal/model"
	"github.com/sells-group/friend-map/internal/roster"
	"github.com/sells-group/friend-map/internal/store"
	"github.com/sells-group/friend-map/pkg/geocode"
)

// mapEnv holds the cache store and resolver shared by build, resolve, serve
// and cache.
type mapEnv struct {
	Store    store.Store
	Resolver *geocode.Resolver
}

// Close releases the cache store.
func (e *mapEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close cache store", zap.Error(err))
		}
	}
}

// initEnv opens the configured cache store and loads the resolver from it.
func initEnv(ctx context.Context, c *config.Config, extra ...geocode.Option) (*mapEnv, error) {
	st, err := store.Open(ctx, c.Cache.StoreConfig())
	if err != nil {
		return nil, eris.Wrap(err, "open cache store")
	}

	opts := append(resolverOptions(c), extra...)
	r, err := geocode.NewResolver(ctx, st, opts...)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load geocoding cache")
	}

	return &mapEnv{Store: st, Resolver: r}, nil
}

func resolverOptions(c *config.Config) []geocode.Option {
	opts := []geocode.Option{
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithUserAgent(c.Geocode.UserAgent),
		geocode.WithRateLimit(c.Geocode.RateLimit),
		geocode.WithSlot(c.Cache.Slot),
	}
	if c.Geocode.TimeoutSecs > 0 {
		opts = append(opts, geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(c.Geocode.TimeoutSecs) * time.Second,
		}))
	}
	return opts
}

// progressOption renders a progress bar on stderr when it is a terminal.
func progressOption(desc string) geocode.Option {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return geocode.WithProgress(nil)
	}
	var bar *progressbar.ProgressBar
	return geocode.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(desc),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	})
}

// buildMap loads the roster, resolves every person and aggregates the result.
func buildMap(ctx context.Context, source string, r *geocode.Resolver) ([]model.Person, []*model.LocationNode, error) {
	people, err := roster.Load(ctx, source)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load roster")
	}

	resolved := r.ResolveAll(ctx, people)
	roots := locations.Aggregate(resolved)

	sum := locations.Summarize(roots)
	zap.L().Info("map built",
		zap.Int("people", sum.People),
		zap.Int("countries", sum.Countries),
		zap.Int("states", sum.States),
		zap.Int("cities", sum.Cities),
		zap.Int("cached_locations", r.Len()),
	)

	return resolved, roots, nil
}
