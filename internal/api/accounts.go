package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// addresses and object ids share the 0x-prefixed hex format
const objectIDRule = "required,startswith=0x,max=66,hexadecimal"

var validate = validator.New()

func addressParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	address := chi.URLParam(r, "address")
	if err := validate.Var(address, objectIDRule); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid address")
		return "", false
	}
	return strings.ToLower(address), true
}

// handleGetAccountItems returns the collection items owned by an address
func (s *Server) handleGetAccountItems(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	items, err := s.queries.OwnedItems(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items":       items,
		"total_count": len(items),
	})
}

// handleGetAccountCoins returns the SUI coins of an address
func (s *Server) handleGetAccountCoins(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	coins, err := s.queries.Coins(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, coins)
}
