package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/models"
)

// multipart overhead allowed on top of the image limit
const formOverhead = 1 << 20

type submitRequest struct {
	Signature string `json:"signature"`
}

// handlePrepareMint pins the image and returns unsigned tx bytes for a browser wallet
func (s *Server) handlePrepareMint(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	sender := strings.TrimSpace(r.FormValue("sender"))
	if err := validate.Var(sender, objectIDRule); err != nil {
		respondError(w, http.StatusBadRequest, "sender must be a 0x address")
		return
	}

	prepared, err := s.minter.Prepare(r.Context(), form, strings.ToLower(sender))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, prepared)
}

// handleSubmitMint executes a prepared mint with the wallet's signature
func (s *Server) handleSubmitMint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "signature is required")
		return
	}

	receipt, err := s.minter.Submit(r.Context(), id, req.Signature, s.logSuccess())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// handleCustodialMint mints with the server's own key
func (s *Server) handleCustodialMint(w http.ResponseWriter, r *http.Request) {
	if s.signer == nil {
		respondError(w, http.StatusNotImplemented, "Server signing key is not configured")
		return
	}
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}

	receipt, err := s.minter.Mint(r.Context(), form, s.signer, s.logSuccess())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// handleListMints returns local mint history, newest first
func (s *Server) handleListMints(w http.ResponseWriter, r *http.Request) {
	mints, err := s.store.ListMints(strings.ToLower(r.URL.Query().Get("sender")), queryLimit(r, 50))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch mints")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"mints":       mints,
		"total_count": len(mints),
	})
}

// handleGetMint returns one mint record
func (s *Server) handleGetMint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := s.store.GetMint(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch mint")
		return
	}
	if m == nil {
		respondError(w, http.StatusNotFound, "Mint not found")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) logSuccess() mint.CallOption {
	return mint.OnSuccess(func(rc models.Receipt) {
		s.logger.Info("api.mint.succeeded",
			zap.String("mint_id", rc.MintID),
			zap.String("object_id", rc.ObjectID))
	})
}

// readForm parses the multipart mint form; the image is read up to one byte
// past the limit so the validator can report oversize files.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (*mint.Form, bool) {
	limit := s.minter.Validator().MaxImageBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		respondError(w, http.StatusBadRequest, "Expected a multipart form")
		return nil, false
	}

	attrs, err := parseAttributes(r.FormValue("attributes"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	form := &mint.Form{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Attributes:  attrs,
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to read image")
			return nil, false
		}
		form.Image = &mint.Image{Filename: header.Filename, Data: data}
	}
	return form, true
}

// parseAttributes accepts [{"key":..,"value":..}] or {"key":"value"}
func parseAttributes(raw string) ([]mint.Attribute, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var list []mint.Attribute
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("attributes: %w", err)
		}
		return list, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]mint.Attribute, 0, len(keys))
	for _, k := range keys {
		list = append(list, mint.Attribute{Key: k, Value: m[k]})
	}
	return list, nil
}
