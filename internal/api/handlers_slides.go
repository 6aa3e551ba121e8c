package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pmorrow/svgdeck/internal/overlay"
	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

// slideParam parses the {n} path parameter.
func slideParam(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid slide index")
	}
	return n, nil
}

// viewport reads the client-reported container size from vw/vh query
// parameters, falling back to the configured default.
func (s *Server) viewport(r *http.Request) overlay.Viewport {
	vp := overlay.Viewport{Width: s.cfg.ViewportWidth, Height: s.cfg.ViewportHeight}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("vw"), 64); err == nil && v > 0 {
		vp.Width = v
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("vh"), 64); err == nil && v > 0 {
		vp.Height = v
	}
	return vp
}

// requireSource rejects the request when the slide source failed to
// load; the error body is the viewer's visible error state.
func (s *Server) requireSource(w http.ResponseWriter) bool {
	if s.src == nil {
		msg := s.loadErr
		if msg == "" {
			msg = "no slide source available"
		}
		jsonError(w, msg, http.StatusServiceUnavailable)
		return false
	}
	return true
}

// slideDoc fetches and parses a slide document. The document is rebuilt
// on every call; annotation bindings never outlive a parse.
func (s *Server) slideDoc(r *http.Request, n int) (*svgdoc.Document, error) {
	data, err := s.src.Slide(r.Context(), n)
	if err != nil {
		return nil, err
	}
	return svgdoc.Parse(bytes.NewReader(data))
}

func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	if !s.requireSource(w) {
		return
	}
	n, err := slideParam(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := s.src.Slide(r.Context(), n)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(data)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if !s.requireSource(w) {
		return
	}
	n, err := slideParam(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.slideDoc(r, n)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	vp := s.viewport(r)
	bindings := s.renderer.Rebind(doc, s.store.ForSlide(n), vp)
	writeJSON(w, http.StatusOK, map[string]any{
		"slide":    n,
		"viewport": map[string]float64{"width": vp.Width, "height": vp.Height},
		"bindings": bindings,
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if !s.requireSource(w) {
		return
	}
	var req struct {
		To int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := s.nav.GoTo(r.Context(), req.To); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"current": s.nav.Current()})
}
