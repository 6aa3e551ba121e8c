package persist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pmorrow/svgdeck/internal/annotation"
)

// DefaultFileName is the conventional annotation document fetched next
// to the slide set when no bundle was supplied.
const DefaultFileName = "annotations.json"

// maxDefaultFileBytes bounds the default-file response body.
const maxDefaultFileBytes = 16 << 20

// DefaultFetcher retrieves the conventional annotation document from a
// remote slide base URL. A failed or slow fetch falls through to the
// next persistence source instead of hanging the load.
type DefaultFetcher struct {
	baseURL    string
	log        *slog.Logger
	httpClient *http.Client
}

// NewDefaultFetcher creates a fetcher for baseURL. An empty baseURL
// disables fetching (Fetch always reports not-found).
func NewDefaultFetcher(baseURL string, log *slog.Logger) *DefaultFetcher {
	return &DefaultFetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Fetch retrieves and parses the default annotation document. The
// second return is false when the document is absent, unreachable, or
// malformed; those cases all fall through to the next source.
func (f *DefaultFetcher) Fetch(ctx context.Context) (annotation.Collection, bool) {
	if f.baseURL == "" {
		return nil, false
	}
	url := f.baseURL + "/" + DefaultFileName
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.log.Warn("default annotation fetch", "url", url, "error", err)
		return nil, false
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.log.Warn("default annotation fetch", "url", url, "error", err)
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		f.log.Warn("default annotation fetch", "url", url, "status", resp.StatusCode)
		return nil, false
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDefaultFileBytes))
	if err != nil {
		f.log.Warn("default annotation fetch", "url", url, "error", fmt.Errorf("read body: %w", err))
		return nil, false
	}
	coll, err := annotation.ParseCollection(data)
	if err != nil {
		f.log.Warn("default annotation document malformed", "url", url, "error", err)
		return nil, false
	}
	return coll, true
}
