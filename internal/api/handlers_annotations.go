package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"

	"github.com/pmorrow/svgdeck/internal/annotation"
	"github.com/pmorrow/svgdeck/internal/locator"
	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

// targetRef identifies an element in a request body, by id or by
// structural path.
type targetRef struct {
	ElementID   string `json:"elementId,omitempty"`
	ElementPath string `json:"elementPath,omitempty"`
}

func (t targetRef) isSet() bool {
	return t.ElementID != "" || t.ElementPath != ""
}

// findTarget resolves a request's element reference inside the slide
// document.
func findTarget(doc *svgdoc.Document, ref targetRef) *html.Node {
	if ref.ElementID != "" {
		if el := doc.GetElementByID(ref.ElementID); el != nil {
			return el
		}
	}
	if ref.ElementPath != "" {
		path, err := locator.DecodePath(ref.ElementPath)
		if err == nil {
			return locator.Resolve(doc.Root, locator.Descriptor{Path: path})
		}
	}
	return nil
}

func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Serialize())
}

func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	if !s.requireSource(w) {
		return
	}
	n, err := slideParam(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req struct {
		Text     string `json:"text,omitempty"`
		Markdown string `json:"markdown,omitempty"`
		targetRef
		Position *annotation.Position `json:"position,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	content, isMarkdown := req.Text, false
	if req.Markdown != "" {
		content, isMarkdown = req.Markdown, true
	}
	sess := s.editor.Open("", nil)
	clean, ok := sess.Save(content, isMarkdown)
	if !ok {
		jsonError(w, "empty note content", http.StatusUnprocessableEntity)
		return
	}

	var pos *annotation.Position
	if req.Position != nil {
		norm, ok := req.Position.Normalize()
		if !ok {
			jsonError(w, "position offsets must be pixel values", http.StatusUnprocessableEntity)
			return
		}
		pos = &norm
	}

	var target *locator.Descriptor
	if req.isSet() {
		doc, err := s.slideDoc(r, n)
		if err != nil {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		el := findTarget(doc, req.targetRef)
		if el == nil {
			jsonError(w, "target element not found", http.StatusNotFound)
			return
		}
		desc := locator.Describe(doc.Root, el)
		target = &desc
		if pos == nil {
			if p, ok := s.renderer.DefaultNotePosition(doc, el, s.viewport(r)); ok {
				pos = &p
			}
		}
	}

	s.store.SetSlide(n)
	rec, err := s.store.CreateNote(clean, target, pos)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleCreateRemoval(w http.ResponseWriter, r *http.Request) {
	if !s.requireSource(w) {
		return
	}
	n, err := slideParam(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req targetRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.isSet() {
		jsonError(w, "element reference is required", http.StatusBadRequest)
		return
	}
	doc, err := s.slideDoc(r, n)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	el := findTarget(doc, req)
	if el == nil {
		jsonError(w, "target element not found", http.StatusNotFound)
		return
	}

	s.store.SetSlide(n)
	rec, novel := s.store.MarkRemoved(locator.Describe(doc.Root, el))
	status := http.StatusCreated
	if !novel {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"record": rec, "novel": novel})
}

func (s *Server) handleUpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	created := chi.URLParam(r, "created")

	var req struct {
		Position *annotation.Position `json:"position,omitempty"`
		Text     string               `json:"text,omitempty"`
		Markdown string               `json:"markdown,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated := false
	if req.Position != nil {
		pos, ok := req.Position.Normalize()
		if !ok {
			jsonError(w, "position offsets must be pixel values", http.StatusUnprocessableEntity)
			return
		}
		if s.store.UpdatePosition(created, pos.Left, pos.Top) {
			updated = true
			// A position patch is a drag release: the final value must
			// land in the cache now, not on the debounce timer.
			s.saver.Flush()
		}
	}
	if req.Text != "" || req.Markdown != "" {
		content, isMarkdown := req.Text, false
		if req.Markdown != "" {
			content, isMarkdown = req.Markdown, true
		}
		sess := s.editor.Open("", nil)
		clean, ok := sess.Save(content, isMarkdown)
		if !ok {
			jsonError(w, "empty note content", http.StatusUnprocessableEntity)
			return
		}
		if s.store.UpdateText(created, clean) {
			updated = true
		}
	}

	if !updated {
		jsonError(w, "no matching note on the current slide", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	created := chi.URLParam(r, "created")
	if !s.store.DeleteNote(created) {
		jsonError(w, "no matching note on the current slide", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
