// Package persist reconciles the three candidate sources of the
// annotation collection at startup and keeps the active collection
// durable for the rest of the session.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pmorrow/svgdeck/internal/annotation"
)

// Load source names, reported for logging and the deck info endpoint.
const (
	SourceBundle      = "bundle"
	SourceDefaultFile = "default-file"
	SourceCache       = "cache"
	SourceEmpty       = "empty"
)

// BundleSource supplies the annotation payload of an externally loaded
// bundle. AnnotationCollection returns nil when the bundle carried no
// annotation document at all; a present-but-empty document is a valid,
// non-nil empty collection.
type BundleSource interface {
	AnnotationCollection() annotation.Collection
}

// CollectionFetcher retrieves the conventional default annotation
// document. Absent, unreachable and malformed all report false.
type CollectionFetcher interface {
	Fetch(ctx context.Context) (annotation.Collection, bool)
}

// Loader evaluates the source priority chain once at startup.
type Loader struct {
	log     *slog.Logger
	fetcher CollectionFetcher
	cache   *Cache
}

// NewLoader wires the loader. fetcher and cache may be nil, in which
// case those sources are skipped.
func NewLoader(log *slog.Logger, fetcher CollectionFetcher, cache *Cache) *Loader {
	return &Loader{log: log, fetcher: fetcher, cache: cache}
}

// Load picks the annotation collection for the session. Fixed priority,
// first available source wins, content is never blended across sources:
//
//  1. The bundle's collection, when a bundle was supplied and carries an
//     annotation payload. When a bundle was supplied WITHOUT a payload,
//     the default file is skipped entirely and only the durable cache
//     is consulted; a shared bundle's intended empty state must not be
//     mixed with a previous session's local default file.
//  2. The default annotation document (no bundle supplied only).
//  3. The durable local cache.
//  4. An empty collection.
func (l *Loader) Load(ctx context.Context, bundle BundleSource) (annotation.Collection, string) {
	if bundle != nil {
		if coll := bundle.AnnotationCollection(); coll != nil {
			l.log.Info("annotations loaded", "source", SourceBundle, "slides", len(coll))
			return coll, SourceBundle
		}
		l.log.Info("bundle carries no annotation payload, consulting cache")
		return l.fromCache(ctx)
	}

	if l.fetcher != nil {
		if coll, ok := l.fetcher.Fetch(ctx); ok {
			l.log.Info("annotations loaded", "source", SourceDefaultFile, "slides", len(coll))
			return coll, SourceDefaultFile
		}
	}
	return l.fromCache(ctx)
}

func (l *Loader) fromCache(ctx context.Context) (annotation.Collection, string) {
	if l.cache != nil {
		raw, found, err := l.cache.Get(ctx, CacheKey)
		if err != nil {
			l.log.Warn("cache read failed", "error", err)
		} else if found {
			coll, perr := annotation.ParseCollection([]byte(raw))
			if perr != nil {
				l.log.Warn("cached collection malformed, discarding", "error", perr)
			} else {
				l.log.Info("annotations loaded", "source", SourceCache, "slides", len(coll))
				return coll, SourceCache
			}
		}
	}
	l.log.Info("annotations loaded", "source", SourceEmpty)
	return annotation.Collection{}, SourceEmpty
}

// Saver writes the full collection through to the durable cache after
// every durable store mutation. Rapid sequences (a drag in progress)
// coalesce into one write, but the value written is always the latest
// snapshot, so the drag-release position is never lost. A write failure
// is a logged warning only; in-memory state stays authoritative so the
// user can still download a correct export.
type Saver struct {
	log   *slog.Logger
	cache *Cache
	store *annotation.Store
	delay time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

// NewSaver wires the saver to the store's change hook.
func NewSaver(log *slog.Logger, cache *Cache, store *annotation.Store) *Saver {
	s := &Saver{
		log:   log,
		cache: cache,
		store: store,
		delay: 250 * time.Millisecond,
	}
	store.SetOnChange(s.Schedule)
	return s
}

// Schedule requests a write of the current collection, coalescing with
// any write already pending.
func (s *Saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Reset(s.delay)
		return
	}
	s.pending = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		s.write()
	})
}

// Flush writes immediately, cancelling any pending timer. Used at
// shutdown and after drag-release commits.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()
	s.write()
}

func (s *Saver) write() {
	if s.cache == nil {
		return
	}
	data, err := s.store.Serialize().Marshal()
	if err != nil {
		s.log.Warn("serialize collection for cache", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, CacheKey, string(data)); err != nil {
		s.log.Warn("cache write failed, in-memory state remains authoritative", "error", err)
	}
}
