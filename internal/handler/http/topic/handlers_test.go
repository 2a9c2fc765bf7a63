package topic_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hretheum/vectorwave.io-sub009/internal/handler/http/topic"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/adapter/persistence/memory"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/embedder"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/idempotency"
	"github.com/hretheum/vectorwave.io-sub009/internal/pkg/clock"
	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	store := idempotency.NewStore(idempotency.Config{Clock: clock.NewMock(time.Now())})
	svc := gate.NewService(embedder.NewDeterministic(64), memory.NewTopicIndexRepo(), store, gate.Config{})
	mux := http.NewServeMux()
	topic.Register(mux, svc)
	return mux
}

func postJSON(mux *http.ServeMux, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(topic.IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmitHandler_Accepts(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(mux, "/topics", `{"title": "Zero-downtime schema migrations"}`, "key-1")

	require.Equal(t, http.StatusCreated, rec.Code)

	var result gate.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Accepted)
	assert.Equal(t, "accepted", string(result.Status))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1.0, result.NoveltyScore)
}

func TestSubmitHandler_ReplaySameKey(t *testing.T) {
	mux := newTestMux(t)
	body := `{"title": "Zero-downtime schema migrations"}`

	first := postJSON(mux, "/topics", body, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := postJSON(mux, "/topics", body, "key-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
}

func TestSubmitHandler_RejectsDuplicateContent(t *testing.T) {
	mux := newTestMux(t)
	body := `{"title": "Zero-downtime schema migrations"}`

	first := postJSON(mux, "/topics", body, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(mux, "/topics", body, "key-2")
	require.Equal(t, http.StatusOK, second.Code)

	var result gate.SubmitResult
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &result))
	assert.False(t, result.Accepted)
	assert.Equal(t, "rejected", string(result.Status))
	assert.Empty(t, result.ID)
}

func TestSubmitHandler_MissingKey(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(mux, "/topics", `{"title": "some topic"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Idempotency-Key")
}

func TestSubmitHandler_KeyFromBody(t *testing.T) {
	mux := newTestMux(t)
	body := `{"title": "Zero-downtime schema migrations", "idempotency_key": "key-1"}`

	first := postJSON(mux, "/topics", body, "")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := postJSON(mux, "/topics", body, "")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
}

func TestSubmitHandler_InvalidBody(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(mux, "/topics", `{not json`, "key-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitHandler_EmptyTitle(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(mux, "/topics", `{"title": "   "}`, "key-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The key was not consumed by the invalid payload.
	valid := postJSON(mux, "/topics", `{"title": "a real topic"}`, "key-1")
	assert.Equal(t, http.StatusCreated, valid.Code)
}

func TestNoveltyHandler_EmptyIndex(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(mux, "/topics/novelty-check", `{"title": "anything"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var report gate.NoveltyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1.0, report.NoveltyScore)
	assert.Empty(t, report.Neighbors)
}

func TestNoveltyHandler_SeenContent(t *testing.T) {
	mux := newTestMux(t)
	body := `{"title": "Zero-downtime schema migrations"}`

	submit := postJSON(mux, "/topics", body, "key-1")
	require.Equal(t, http.StatusCreated, submit.Code)

	rec := postJSON(mux, "/topics/novelty-check", body, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report gate.NoveltyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 0.0, report.NoveltyScore, 1e-6)
	assert.Len(t, report.Neighbors, 1)
}

func TestNoveltyHandler_Invalid(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(mux, "/topics/novelty-check", `{"title": ""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
