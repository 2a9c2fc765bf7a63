package topic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hretheum/vectorwave.io-sub009/internal/handler/http/respond"
	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
)

// NoveltyHandler handles read-only novelty checks.
type NoveltyHandler struct{ Svc *gate.Service }

// ServeHTTP scores a candidate without submitting it. The check is pure:
// no idempotency record is created and the index is never modified, so
// callers may probe freely before committing a submission.
func (h NoveltyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	report, err := h.Svc.CheckNovelty(r.Context(), req.toEntity())
	if err != nil {
		writeGateError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, report)
}
