package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/go-chi/chi/v5"
)

// handleListStored lists the section records stored in pathstore for a lesson.
func (s *Server) handleListStored(w http.ResponseWriter, r *http.Request) {
	base, ok := s.storedLessonKey(w, r)
	if !ok {
		return
	}

	children, err := s.pathstore.ListChildren(r.Context(), base+"/sections", 1000)
	if err != nil {
		jsonError(w, "failed to list sections: "+err.Error(), http.StatusBadGateway)
		return
	}
	meta, err := s.pathstore.GetNode(r.Context(), base+"/meta")
	if err != nil {
		jsonError(w, "failed to read meta: "+err.Error(), http.StatusBadGateway)
		return
	}
	if meta == nil && len(children) == 0 {
		jsonError(w, "lesson not stored", http.StatusNotFound)
		return
	}

	sections := make([]map[string]any, 0, len(children))
	for _, child := range children {
		sections = append(sections, map[string]any{
			"key":   child.Key,
			"value": child.Value,
		})
	}
	var metaValue any
	if meta != nil {
		metaValue = meta.Value
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":      base,
		"meta":     metaValue,
		"sections": sections,
	})
}

// handleDeleteStored removes a lesson and all of its records from pathstore.
func (s *Server) handleDeleteStored(w http.ResponseWriter, r *http.Request) {
	base, ok := s.storedLessonKey(w, r)
	if !ok {
		return
	}
	if err := s.pathstore.DeleteNode(r.Context(), base, true); err != nil {
		jsonError(w, "failed to delete lesson: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("stored lesson deleted", "key", base)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storedLessonKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.pathstore == nil {
		jsonError(w, "pathstore sink is not configured", http.StatusNotImplemented)
		return "", false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "lessonID"))
	if err != nil {
		jsonError(w, fmt.Sprintf("lesson id must be an integer: %v", err), http.StatusBadRequest)
		return "", false
	}
	return export.LessonKey(s.cfg.PathstorePrefix, id), true
}
