package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pmorrow/svgdeck/internal/annotation"
	"github.com/pmorrow/svgdeck/internal/config"
	"github.com/pmorrow/svgdeck/internal/editor"
	"github.com/pmorrow/svgdeck/internal/overlay"
	"github.com/pmorrow/svgdeck/internal/persist"
	"github.com/pmorrow/svgdeck/internal/slides"
)

// Server is the HTTP surface of the viewer: slide documents, overlay
// projections, annotation mutation and exports.
type Server struct {
	router   chi.Router
	log      *slog.Logger
	cfg      config.Config
	store    *annotation.Store
	saver    *persist.Saver
	src      slides.Source
	nav      *slides.Navigator
	renderer *overlay.Renderer
	editor   *editor.Editor

	// annotationSource names the persistence source that won at load.
	annotationSource string
	// loadErr is set when the configured bundle failed to load; the
	// slide endpoints surface it instead of content.
	loadErr string
}

// NewServer creates and configures the HTTP server. src may be nil when
// the slide source failed to load; the server then serves the error
// state instead of slides.
func NewServer(
	log *slog.Logger,
	cfg config.Config,
	store *annotation.Store,
	saver *persist.Saver,
	src slides.Source,
	nav *slides.Navigator,
	annotationSource string,
	loadErr string,
) *Server {
	s := &Server{
		log:              log,
		cfg:              cfg,
		store:            store,
		saver:            saver,
		src:              src,
		nav:              nav,
		renderer:         overlay.NewRenderer(log),
		editor:           editor.New(),
		annotationSource: annotationSource,
		loadErr:          loadErr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Viewing endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/deck", s.handleDeck)
	r.Get("/api/slides/{n}", s.handleSlide)
	r.Get("/api/slides/{n}/overlay", s.handleOverlay)
	r.Get("/api/annotations", s.handleListAnnotations)
	r.Get("/api/export/annotations.json", s.handleExportAnnotations)
	r.Get("/api/export/bundle.zip", s.handleExportBundle)

	// Editing-mode endpoints. Navigation lives here too: it moves the
	// store's current-slide cursor, which scopes the mutation endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.AdminToken, s.log))

		r.Post("/api/navigate", s.handleNavigate)
		r.Post("/api/slides/{n}/annotations", s.handleCreateAnnotation)
		r.Post("/api/slides/{n}/removals", s.handleCreateRemoval)
		r.Patch("/api/annotations/{created}", s.handleUpdateAnnotation)
		r.Delete("/api/annotations/{created}", s.handleDeleteAnnotation)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"current":          s.nav.Current(),
		"annotationSource": s.annotationSource,
		"editing":          s.cfg.AdminToken != "",
	}
	if s.src != nil {
		resp["slides"] = s.src.SlideCount()
	}
	if s.loadErr != "" {
		resp["error"] = s.loadErr
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
