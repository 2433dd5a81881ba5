// Package roster loads the raw person list from a local file or a URL.
package roster

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/friend-map/internal/model"
	"github.com/sells-group/friend-map/internal/resilience"
)

// Option configures Load.
type Option func(*loader)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(hc *http.Client) Option {
	return func(l *loader) {
		l.httpClient = hc
	}
}

// WithRetry sets the backoff for transient http(s) failures.
func WithRetry(b resilience.Backoff) Option {
	return func(l *loader) {
		l.backoff = b
	}
}

type loader struct {
	httpClient *http.Client
	backoff    resilience.Backoff
}

// Load reads people from source, a file path or http(s) URL. YAML is used for
// .yaml/.yml sources and JSON otherwise. People without an id get a UUID.
func Load(ctx context.Context, source string, opts ...Option) ([]model.Person, error) {
	l := &loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    resilience.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if source == "" {
		return nil, eris.New("roster: no source configured")
	}

	var (
		data []byte
		err  error
	)
	if isURL(source) {
		data, err = resilience.Retry(ctx, l.backoff, "roster fetch", func(ctx context.Context) ([]byte, error) {
			return l.fetch(ctx, source)
		})
		err = eris.Wrap(err, "roster: fetch")
	} else {
		data, err = os.ReadFile(source)
		err = eris.Wrapf(err, "roster: read %s", source)
	}
	if err != nil {
		return nil, err
	}

	people, err := decode(data, formatOf(source))
	if err != nil {
		return nil, eris.Wrapf(err, "roster: decode %s", source)
	}

	for i := range people {
		if people[i].ID == "" {
			people[i].ID = uuid.NewString()
		}
	}
	zap.L().Info("roster loaded", zap.String("source", source), zap.Int("people", len(people)))
	return people, nil
}

func (l *loader) fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, eris.Wrap(err, "roster: build request")
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.StatusError{Code: resp.StatusCode, URL: source}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "roster: read body")
	}
	return body, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func formatOf(source string) string {
	p := source
	if i := strings.IndexAny(p, "?#"); i >= 0 && isURL(p) {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func decode(data []byte, format string) ([]model.Person, error) {
	var people []model.Person
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &people)
	} else {
		err = json.Unmarshal(data, &people)
	}
	if err != nil {
		return nil, err
	}
	if people == nil {
		people = []model.Person{}
	}
	return people, nil
}
