package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleGetNetwork describes the deployment this server talks to
func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":          s.network.Name,
		"rpc_url":       s.network.RPCURL,
		"package_id":    s.network.PackageID,
		"collection_id": s.network.CollectionID,
		"counter_id":    s.network.CounterID,
		"explorer_url":  s.network.ExplorerURL,
		"custodial":     s.signer != nil,
	})
}

// handleGetCollection returns the collection and its derived view
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	view, err := s.queries.CollectionView(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleGetCollectionItems returns recently minted items from the local index
func (s *Server) handleGetCollectionItems(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.GetItems(s.network.CollectionID, queryLimit(r, 50))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch items")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// handleGetItem returns one item with its attributes
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "objectID")
	if err := validate.Var(objectID, objectIDRule); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid object id")
		return
	}

	item, err := s.queries.Item(r.Context(), objectID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func queryLimit(r *http.Request, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > 200 {
		return 200
	}
	return n
}
