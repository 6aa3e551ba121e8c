package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmorrow/svgdeck/internal/annotation"
	"github.com/pmorrow/svgdeck/internal/api"
	"github.com/pmorrow/svgdeck/internal/bundle"
	"github.com/pmorrow/svgdeck/internal/config"
	"github.com/pmorrow/svgdeck/internal/persist"
	"github.com/pmorrow/svgdeck/internal/slides"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	cache, err := persist.OpenCache(cfg.CachePath)
	if err != nil {
		log.Error("open cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer loadCancel()

	// Slide source: bundle first, then directory, then remote. A failed
	// bundle load is surfaced to the client and the viewer retries
	// without it.
	var (
		src       slides.Source
		bundleSrc persist.BundleSource
		loadErr   string
	)
	if cfg.BundlePath != "" {
		b, err := bundle.Open(cfg.BundlePath, log)
		if err != nil {
			log.Error("bundle load failed, continuing without bundle", "path", cfg.BundlePath, "error", err)
			loadErr = "bundle load failed: " + err.Error()
		} else {
			src = b
			bundleSrc = b
		}
	}
	if src == nil && cfg.SlidesDir != "" {
		d, err := slides.NewDirSource(cfg.SlidesDir)
		if err != nil {
			log.Error("slides dir unavailable", "dir", cfg.SlidesDir, "error", err)
		} else {
			src = d
			loadErr = ""
		}
	}
	if src == nil && cfg.SlidesURL != "" {
		h, err := slides.NewHTTPSource(loadCtx, cfg.SlidesURL, cfg.SlideCount)
		if err != nil {
			log.Error("remote slides unavailable", "url", cfg.SlidesURL, "error", err)
		} else {
			src = h
			loadErr = ""
		}
	}
	if src == nil && loadErr == "" {
		loadErr = "no slide source available"
	}

	// Annotation collection: fixed source priority, then write-through
	// persistence for the rest of the session.
	var fetcher persist.CollectionFetcher
	if cfg.SlidesURL != "" {
		fetcher = persist.NewDefaultFetcher(cfg.SlidesURL, log)
	}
	loader := persist.NewLoader(log, fetcher, cache)
	coll, annotationSource := loader.Load(loadCtx, bundleSrc)

	store := annotation.NewStore(log)
	store.Replace(coll)
	saver := persist.NewSaver(log, cache, store)

	var nav *slides.Navigator
	if src != nil {
		nav = slides.NewNavigator(src)
	} else {
		nav = slides.NewNavigator(emptySource{})
	}
	// Keep the store's current-slide cursor in step with navigation and
	// make sure outgoing edits are durable before the document swaps.
	nav.On(slides.BeforeSlideChange, func(old, next int) {
		saver.Flush()
	})
	nav.On(slides.AfterSlideChange, func(_, next int) {
		store.SetSlide(next)
	})

	srv := api.NewServer(log, cfg, store, saver, src, nav, annotationSource, loadErr)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		saver.Flush()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting svgdeck", "port", cfg.Port, "annotation_source", annotationSource)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// emptySource stands in when no slide source loaded; the API serves the
// error state instead of slides.
type emptySource struct{}

func (emptySource) SlideCount() int { return 0 }
func (emptySource) Slide(ctx context.Context, n int) ([]byte, error) {
	return nil, fmt.Errorf("no slide source available")
}
