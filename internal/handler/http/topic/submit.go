package topic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hretheum/vectorwave.io-sub009/internal/domain/entity"
	"github.com/hretheum/vectorwave.io-sub009/internal/handler/http/respond"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/embedder"
	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
)

// SubmitHandler handles candidate topic submissions.
type SubmitHandler struct{ Svc *gate.Service }

// ServeHTTP submits a candidate through the novelty gate. The caller
// must supply an Idempotency-Key header; resubmitting the same key
// returns the originally committed outcome with the same status code.
func (h SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		key = req.IdempotencyKey
	}

	result, err := h.Svc.Submit(r.Context(), key, req.toEntity())
	if err != nil {
		writeGateError(w, err)
		return
	}

	code := http.StatusOK
	switch result.Status {
	case entity.StatusAccepted:
		code = http.StatusCreated
	case entity.StatusQueued:
		// Another submission with the same key is still being scored.
		code = http.StatusAccepted
	}
	respond.JSON(w, code, result)
}

// writeGateError maps gate errors onto HTTP status codes.
func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gate.ErrMissingIdempotencyKey):
		respond.Error(w, http.StatusBadRequest, errors.New("Idempotency-Key header is required"))
	case errors.Is(err, entity.ErrValidationFailed), errors.Is(err, entity.ErrInvalidInput):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, embedder.ErrUnavailable):
		respond.Error(w, http.StatusServiceUnavailable, errors.New("scoring temporarily unavailable"))
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
