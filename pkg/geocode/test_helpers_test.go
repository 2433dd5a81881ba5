package geocode

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sells-group/friend-map/internal/model"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient creates an HTTP client that rewrites requests to a test server URL.
// All requests matching the target prefix are redirected to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		suffix := origURL[len(t.targetPrefix):]
		newURL := t.testServer + suffix
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(newURL)
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}

// memStore is an in-memory store.Store that records writes.
type memStore struct {
	slots  map[string][]byte
	puts   int
	getErr error
	putErr error
}

func newMemStore() *memStore {
	return &memStore{slots: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.slots[name]
	return v, ok, nil
}

func (m *memStore) Put(_ context.Context, name string, value []byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.slots[name] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Close() error { return nil }

// fakeLookup answers from a fixed table and counts calls per query.
type fakeLookup struct {
	answers map[string]model.Coordinates
	errs    map[string]error
	calls   map[string]int
	order   []string
}

func newFakeLookup(answers map[string]model.Coordinates) *fakeLookup {
	return &fakeLookup{answers: answers, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeLookup) Lookup(_ context.Context, query string) (model.Coordinates, bool, error) {
	f.calls[query]++
	f.order = append(f.order, query)
	if err := f.errs[query]; err != nil {
		return model.Coordinates{}, false, err
	}
	c, ok := f.answers[query]
	return c, ok, nil
}
