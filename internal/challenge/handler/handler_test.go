package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bastion/internal/challenge"
	"bastion/internal/challenge/service"
	"bastion/internal/challenge/store"
	"bastion/internal/platform/metrics"
)

func newTestRouter(t *testing.T) (http.Handler, *metrics.Metrics) {
	t.Helper()

	issuer, err := challenge.NewTokenIssuer("test-signing-key-with-enough-entropy", "bastion", 5*time.Minute)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	svc, err := service.New(store.NewInMemoryStore(), issuer,
		service.WithDifficulty(4, 8),
		service.WithMetrics(m),
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, m
}

func post(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/challenge", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleChallenge_Generate(t *testing.T) {
	router, _ := newTestRouter(t)

	w := post(t, router, map[string]any{"action": "generate"})
	require.Equal(t, http.StatusOK, w.Code)

	var ch challenge.Challenge
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ch))
	assert.NotEmpty(t, ch.ID)
	assert.NotEmpty(t, ch.Seed)
	assert.Equal(t, 4, ch.Difficulty)
}

func TestHandleChallenge_GenerateClampsDifficulty(t *testing.T) {
	router, _ := newTestRouter(t)

	w := post(t, router, map[string]any{"action": "generate", "difficulty": 200})
	require.Equal(t, http.StatusOK, w.Code)

	var ch challenge.Challenge
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ch))
	assert.Equal(t, 8, ch.Difficulty)
}

// Full round trip over HTTP: issue a puzzle, solve it, trade the solution
// for a scoped work token.
func TestHandleChallenge_GenerateSolveVerify(t *testing.T) {
	router, m := newTestRouter(t)

	w := post(t, router, map[string]any{"action": "generate"})
	require.Equal(t, http.StatusOK, w.Code)

	var ch challenge.Challenge
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ch))

	sol, err := challenge.Solve(context.Background(), &ch, challenge.SolveOptions{})
	require.NoError(t, err)
	sol.ElapsedMs = 1200

	w = post(t, router, map[string]any{"action": "verify", "scope": "payments", "solution": sol})
	require.Equal(t, http.StatusOK, w.Code)

	var token challenge.WorkToken
	require.NoError(t, json.NewDecoder(w.Body).Decode(&token))
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "payments", token.Scope)
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.PowSolveTime))
}

func TestHandleChallenge_VerifyUnknownChallenge(t *testing.T) {
	router, _ := newTestRouter(t)

	w := post(t, router, map[string]any{
		"action":   "verify",
		"solution": &challenge.Solution{ChallengeID: "ghost", Nonce: 7},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "challenge_invalid", body["error"])
}

func TestHandleChallenge_VerifyWithoutSolution(t *testing.T) {
	router, _ := newTestRouter(t)

	w := post(t, router, map[string]any{"action": "verify"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChallenge_UnknownAction(t *testing.T) {
	router, _ := newTestRouter(t)

	w := post(t, router, map[string]any{"action": "mine"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChallenge_MalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/challenge", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
