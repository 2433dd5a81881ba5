package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/friend-map/internal/model"
)

const (
	nominatimSearchURL = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent   = "friend-map/1.0"
)

// nominatimCandidate is one element of the Nominatim search response. Lat and
// lon arrive as decimal strings.
type nominatimCandidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimLookup queries the OpenStreetMap Nominatim search API.
type NominatimLookup struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

func newNominatimLookup() *NominatimLookup {
	return &NominatimLookup{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    nominatimSearchURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(1, 1), // Nominatim usage policy: 1 req/s
	}
}

// Lookup implements Lookup using the first search candidate.
func (n *NominatimLookup) Lookup(ctx context.Context, query string) (model.Coordinates, bool, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return model.Coordinates{}, false, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"format": {"json"},
		"q":      {query},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, false, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return model.Coordinates{}, false, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.Coordinates{}, false, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Coordinates{}, false, eris.Wrap(err, "geocode: nominatim read body")
	}

	var candidates []nominatimCandidate
	if err := json.Unmarshal(body, &candidates); err != nil {
		return model.Coordinates{}, false, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(candidates) == 0 {
		return model.Coordinates{}, false, nil
	}

	first := candidates[0]
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return model.Coordinates{}, false, eris.Wrapf(err, "geocode: nominatim parse lon %q", first.Lon)
	}
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return model.Coordinates{}, false, eris.Wrapf(err, "geocode: nominatim parse lat %q", first.Lat)
	}
	return model.Coordinates{lon, lat}, true, nil
}
