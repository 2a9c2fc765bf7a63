package topic

import (
	"net/http"

	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
)

// Register registers topic-related HTTP handlers with the given mux.
func Register(mux *http.ServeMux, svc *gate.Service) {
	mux.Handle("POST /topics", SubmitHandler{svc})
	mux.Handle("POST /topics/novelty-check", NoveltyHandler{svc})
}
