// Package bundle reads externally supplied deck archives and writes the
// downloadable export archive.
//
// A bundle is a zip holding the slide documents (slide-<N>.svg) and
// optionally an annotation collection under the fixed name
// annotations.json. Bundles are read-only inputs for a session; they are
// never written back to.
package bundle

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/pmorrow/svgdeck/internal/annotation"
)

// AnnotationFileName is the fixed name of the annotation payload inside
// a bundle and inside the exported archive.
const AnnotationFileName = "annotations.json"

var slideName = regexp.MustCompile(`^slide-(\d+)\.svg$`)

// maxEntryBytes bounds a single bundle entry once decompressed.
const maxEntryBytes = 32 << 20

// Bundle is a fully loaded deck archive. All content is read into
// memory at open time, so accessors are synchronous.
type Bundle struct {
	slides map[int][]byte
	count  int
	coll   annotation.Collection
}

// Open reads a bundle from a zip file on disk.
func Open(path string, log *slog.Logger) (*Bundle, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer r.Close()
	return load(&r.Reader, log)
}

// FromReader reads a bundle from an in-memory or seekable source.
func FromReader(r io.ReaderAt, size int64, log *slog.Logger) (*Bundle, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	return load(zr, log)
}

func load(zr *zip.Reader, log *slog.Logger) (*Bundle, error) {
	b := &Bundle{slides: make(map[int][]byte)}
	for _, f := range zr.File {
		switch {
		case f.Name == AnnotationFileName:
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f.Name, err)
			}
			coll, err := annotation.ParseCollection(data)
			if err != nil {
				// Malformed payload counts as no payload from this
				// source; the load chain falls through to the cache.
				log.Warn("bundle annotation payload malformed, ignoring", "error", err)
				continue
			}
			b.coll = coll
		case slideName.MatchString(f.Name):
			n, _ := strconv.Atoi(slideName.FindStringSubmatch(f.Name)[1])
			if n < 1 {
				continue
			}
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f.Name, err)
			}
			b.slides[n] = data
			if n > b.count {
				b.count = n
			}
		}
	}
	if len(b.slides) == 0 {
		return nil, fmt.Errorf("bundle contains no slides")
	}
	return b, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	return readZipEntry(f, maxEntryBytes)
}

func readZipEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, limit)
	}
	return data, nil
}

// SlideCount returns the highest slide index present in the bundle.
func (b *Bundle) SlideCount() int {
	return b.count
}

// Slide returns the raw document for a 1-based slide index.
func (b *Bundle) Slide(ctx context.Context, n int) ([]byte, error) {
	data, ok := b.slides[n]
	if !ok {
		return nil, fmt.Errorf("bundle has no slide %d", n)
	}
	return data, nil
}

// AnnotationCollection returns the bundle's annotation payload, or nil
// when the bundle carried none. A present-but-empty payload is a valid
// non-nil empty collection; the persistence loader treats the two cases
// differently.
func (b *Bundle) AnnotationCollection() annotation.Collection {
	return b.coll
}
