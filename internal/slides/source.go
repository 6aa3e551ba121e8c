// Package slides provides the slide document sources and the navigator
// the annotation core subscribes to.
package slides

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Source supplies slide documents by 1-based index.
type Source interface {
	SlideCount() int
	Slide(ctx context.Context, n int) ([]byte, error)
}

var slideFile = regexp.MustCompile(`^slide-(\d+)\.svg$`)

// DirSource serves slides from a local directory following the
// slide-<N>.svg naming convention.
type DirSource struct {
	dir   string
	count int
}

// NewDirSource scans dir for slide documents.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read slides dir: %w", err)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := slideFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n > count {
			count = n
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("no slide-<N>.svg files in %s", dir)
	}
	return &DirSource{dir: dir, count: count}, nil
}

func (s *DirSource) SlideCount() int { return s.count }

func (s *DirSource) Slide(ctx context.Context, n int) ([]byte, error) {
	if n < 1 || n > s.count {
		return nil, fmt.Errorf("slide %d out of range (1-%d)", n, s.count)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, fmt.Sprintf("slide-%d.svg", n)))
	if err != nil {
		return nil, fmt.Errorf("read slide %d: %w", n, err)
	}
	return data, nil
}

// HTTPSource fetches slides from a remote base URL.
type HTTPSource struct {
	baseURL    string
	count      int
	httpClient *http.Client
}

// NewHTTPSource creates a remote source. When count is zero the slide
// count is discovered by probing slide-<N>.svg until the first miss.
func NewHTTPSource(ctx context.Context, baseURL string, count int) (*HTTPSource, error) {
	s := &HTTPSource{
		baseURL: baseURL,
		count:   count,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	if s.count <= 0 {
		n, err := s.discover(ctx)
		if err != nil {
			return nil, err
		}
		s.count = n
	}
	return s, nil
}

// discover probes head requests until a slide is missing.
func (s *HTTPSource) discover(ctx context.Context) (int, error) {
	const probeLimit = 500
	for n := 1; n <= probeLimit; n++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.slideURL(n), nil)
		if err != nil {
			return 0, fmt.Errorf("probe slide %d: %w", n, err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("probe slide %d: %w", n, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			if n == 1 {
				return 0, fmt.Errorf("no slides at %s", s.baseURL)
			}
			return n - 1, nil
		}
	}
	return probeLimit, nil
}

func (s *HTTPSource) slideURL(n int) string {
	return fmt.Sprintf("%s/slide-%d.svg", s.baseURL, n)
}

func (s *HTTPSource) SlideCount() int { return s.count }

func (s *HTTPSource) Slide(ctx context.Context, n int) ([]byte, error) {
	if n < 1 || n > s.count {
		return nil, fmt.Errorf("slide %d out of range (1-%d)", n, s.count)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.slideURL(n), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch slide %d: %w", n, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch slide %d: %w", n, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch slide %d: status %d", n, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("fetch slide %d: %w", n, err)
	}
	return data, nil
}
