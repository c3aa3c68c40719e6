package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/chain"
	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/pinning"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var rpcErr *chain.RPCError
	var apiErr *pinning.APIError
	switch {
	case errors.Is(err, mint.ErrValidation), errors.Is(err, mint.ErrSignerMismatch):
		return http.StatusBadRequest
	case errors.Is(err, mint.ErrMissingCapability):
		return http.StatusForbidden
	case errors.Is(err, mint.ErrMintNotFound), errors.Is(err, chain.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, mint.ErrNotEligible),
		errors.Is(err, mint.ErrInsufficientBalance),
		errors.Is(err, mint.ErrNeedGasCoin),
		errors.Is(err, mint.ErrMintState):
		return http.StatusConflict
	case errors.Is(err, pinning.ErrNoCredentials):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, chain.ErrTransactionFailed),
		errors.Is(err, chain.ErrBadField),
		errors.As(err, &rpcErr),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err as JSON and logs server-side failures
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("api.request.failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	var verr *mint.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, status, map[string]any{
			"error":  "Invalid mint form",
			"fields": verr.Fields,
		})
		return
	}
	respondError(w, status, err.Error())
}
