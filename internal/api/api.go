// Package api serves the aggregated location hierarchy over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/friend-map/internal/locations"
	"github.com/sells-group/friend-map/internal/model"
	"github.com/sells-group/friend-map/pkg/geocode"
)

// Snapshot is the latest resolved roster and its hierarchy. Readers get the
// values as stored; callers must not mutate them.
type Snapshot struct {
	mu      sync.RWMutex
	people  []model.Person
	roots   []*model.LocationNode
	builtAt time.Time
}

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{people: []model.Person{}, roots: []*model.LocationNode{}}
}

// Set replaces the snapshot contents.
func (s *Snapshot) Set(people []model.Person, roots []*model.LocationNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people = people
	s.roots = roots
	s.builtAt = time.Now().UTC()
}

func (s *Snapshot) get() ([]model.Person, []*model.LocationNode, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.people, s.roots, s.builtAt
}

// LocationsResponse is the body of GET /api/locations.
type LocationsResponse struct {
	Summary   locations.Summary      `json:"summary"`
	Center    model.Coordinates      `json:"center"`
	BuiltAt   time.Time              `json:"built_at"`
	Locations []*model.LocationNode `json:"locations"`
}

// NewRouter builds the HTTP handler for snap.
func NewRouter(snap *Snapshot) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/locations", func(w http.ResponseWriter, r *http.Request) {
			_, roots, builtAt := snap.get()
			filtered := locations.Filter(roots, r.URL.Query().Get("q"))
			writeJSON(w, http.StatusOK, LocationsResponse{
				Summary:   locations.Summarize(filtered),
				Center:    geocode.FallbackCoordinates,
				BuiltAt:   builtAt,
				Locations: filtered,
			})
		})

		r.Get("/locations.geojson", func(w http.ResponseWriter, _ *http.Request) {
			_, roots, _ := snap.get()
			fc, err := locations.FeatureCollection(roots)
			if err != nil {
				zap.L().Error("api: build geojson", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "geojson unavailable"})
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			w.WriteHeader(http.StatusOK)
			if err := json.NewEncoder(w).Encode(fc); err != nil {
				zap.L().Warn("api: write geojson", zap.Error(err))
			}
		})

		r.Get("/people", func(w http.ResponseWriter, _ *http.Request) {
			people, _, _ := snap.get()
			writeJSON(w, http.StatusOK, people)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
