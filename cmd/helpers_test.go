package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/friend-map/internal/config"
	"github.com/sells-group/friend-map/pkg/geocode"
)

// testConfig points the cache at a temp dir and the geocoder at srv.
func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Roster: config.RosterConfig{Source: filepath.Join(t.TempDir(), "friends.json")},
		Geocode: config.GeocodeConfig{
			BaseURL:     baseURL,
			UserAgent:   "friend-map-test",
			RateLimit:   0,
			TimeoutSecs: 5,
		},
		Cache: config.CacheConfig{Driver: "file", Dir: t.TempDir()},
		Log:   config.LogConfig{Level: "error", Format: "console"},
	}
}

// useConfig installs c as the package config for the duration of the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

// nominatimServer answers every search with one Boston candidate, or with
// an empty list for queries in misses.
func nominatimServer(t *testing.T, misses ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query().Get("q")
		for _, m := range misses {
			if q == m {
				_, _ = w.Write([]byte(`[]`))
				return
			}
		}
		_, _ = w.Write([]byte(`[{"lat":"42.3601","lon":"-71.0589","display_name":"Boston"}]`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeCacheSlot(t *testing.T, dir string, entries map[string]geocode.CacheEntry) {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, geocode.CacheSlot+".json"), data, 0o644))
}

func writeRoster(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// runCommand executes cmd's RunE with captured output.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}
