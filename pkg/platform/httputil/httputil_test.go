package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bastion/pkg/domain-errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError_InternalOmitsDescription(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "internal", body["error"])
	assert.NotContains(t, body, "error_description")
}

func TestWriteError_BadRequestKeepsDescription(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "bad_request", body["error"])
	assert.Equal(t, "invalid input", body["error_description"])
}

// Honeypot, timing, and token rejections all surface the same response so
// the wire never reveals which check tripped.
func TestWriteError_GatingCodesCollapse(t *testing.T) {
	for _, code := range []dErrors.Code{
		dErrors.CodeHoneypotTriggered,
		dErrors.CodeTimingTooFast,
		dErrors.CodeTokenMissing,
	} {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(code, "specific internal detail"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, genericSecurityCode, body["error"])
		assert.Equal(t, genericSecurityMessage, body["error_description"])
	}
}

func TestWriteError_RetryAfterHeader(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeRateLimited, "rate limit exceeded").
		WithRetryAfter(42*time.Second))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
}

func TestWriteError_RetryAfterRoundsUp(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeCooldownActive, "cooling down").
		WithRetryAfter(300*time.Millisecond))

	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	_, err := Decode[payload](r)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	v, err := Decode[payload](r)
	require.NoError(t, err)
	assert.Equal(t, "a", v.Name)
}
