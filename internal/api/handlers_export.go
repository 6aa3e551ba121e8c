package api

import (
	"archive/zip"
	"net/http"

	"github.com/pmorrow/svgdeck/internal/bundle"
)

func (s *Server) handleExportAnnotations(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Serialize().Marshal()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="annotations.json"`)
	w.Write(data)
}

func (s *Server) handleExportBundle(w http.ResponseWriter, r *http.Request) {
	if !s.requireSource(w) {
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="deck-bundle.zip"`)

	zw := zip.NewWriter(w)
	if err := bundle.WriteExport(r.Context(), zw, s.src, s.store.Serialize()); err != nil {
		// Headers are already on the wire; log and abort the stream.
		s.log.Error("bundle export failed", "error", err)
		return
	}
	if err := zw.Close(); err != nil {
		s.log.Error("bundle export close failed", "error", err)
	}
}
