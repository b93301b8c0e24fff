package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/yamloutline/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists the published outlines of a user.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		jsonError(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	prefix := fmt.Sprintf("outlines/users/%s/documents", userID)
	children, err := s.docs.ListChildren(r.Context(), prefix, 10000)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}

	// Only meta nodes describe documents; the rest are entries.
	docs := []map[string]any{}
	for _, child := range children {
		if !strings.HasSuffix(child.Key, "/meta") {
			continue
		}
		docs = append(docs, map[string]any{
			"key":   strings.TrimSuffix(child.Key, "/meta"),
			"value": child.Value,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a published outline and all its entries.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		jsonError(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	prefix := pathstore.DocumentPrefix(userID, docID)
	err := s.docs.DeleteNode(r.Context(), prefix, true)
	if errors.Is(err, pathstore.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusBadGateway)
		return
	}

	s.log.Info("deleted document", "user_id", userID, "doc_id", docID)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": prefix})
}
