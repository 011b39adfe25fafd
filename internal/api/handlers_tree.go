package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/gedgraph/internal/graph"
)

// maxJSONBody caps POST /tree and GEDCOM X imports.
const maxJSONBody = 32 << 20

func (s *Server) handleSaveTree(w http.ResponseWriter, r *http.Request) {
	var tree graph.Tree
	if !decodeJSON(w, r, &tree) {
		return
	}
	s.saveTree(w, r, tree)
}

func (s *Server) handleImportGedcomX(w http.ResponseWriter, r *http.Request) {
	var doc graph.GedcomX
	if !decodeJSON(w, r, &doc) {
		return
	}
	s.saveTree(w, r, doc.Tree())
}

func (s *Server) saveTree(w http.ResponseWriter, r *http.Request, tree graph.Tree) {
	if err := s.orchestrator.Store().SaveTree(r.Context(), tree); err != nil {
		var invalid *graph.InvalidTreeError
		if errors.As(err, &invalid) {
			jsonError(w, strings.Join(invalid.Problems, "; "), http.StatusBadRequest)
			return
		}
		s.log.Error("save tree failed", "error", err)
		jsonError(w, "failed to save tree: "+err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.orchestrator.Store().LoadTree(r.Context())
	if err != nil {
		s.log.Error("load tree failed", "error", err)
		jsonError(w, "failed to load tree: "+err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, tree.Normalize())
}

func storeErrorStatus(err error) int {
	var retry *graph.RetryableError
	if errors.As(err, &retry) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
