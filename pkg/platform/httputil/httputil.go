// Package httputil centralizes JSON encoding and domain error translation
// for HTTP handlers, so every endpoint returns the same error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	dErrors "bastion/pkg/domain-errors"
)

// genericSecurityMessage deliberately hides which gating check failed.
// Disclosing "honeypot" or "too fast" coaches automated callers on what to
// fix; legitimate users only ever see this on a broken client.
const genericSecurityMessage = "security validation failed"

// genericSecurityCode replaces the specific gating codes on the wire.
const genericSecurityCode = "security_validation_failed"

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeInvariantViolation: http.StatusUnprocessableEntity,
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeForbidden:          http.StatusForbidden,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeUnavailable:        http.StatusServiceUnavailable,
	dErrors.CodeInternal:           http.StatusInternalServerError,

	dErrors.CodeHoneypotTriggered: http.StatusBadRequest,
	dErrors.CodeTimingTooFast:     http.StatusBadRequest,
	dErrors.CodeTokenMissing:      http.StatusBadRequest,
	dErrors.CodeRateLimited:       http.StatusTooManyRequests,
	dErrors.CodeRiskBlocked:       http.StatusForbidden,
	dErrors.CodeCooldownActive:    http.StatusTooManyRequests,
	dErrors.CodeChallengeExpired:  http.StatusGone,
	dErrors.CodeChallengeInvalid:  http.StatusBadRequest,
	dErrors.CodeCircuitOpen:       http.StatusServiceUnavailable,
}

// collapsedCodes are gating rejections that must not reveal which check
// tripped.
var collapsedCodes = map[dErrors.Code]bool{
	dErrors.CodeHoneypotTriggered: true,
	dErrors.CodeTimingTooFast:     true,
	dErrors.CodeTokenMissing:      true,
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Rate-limit and cooldown rejections carry a Retry-After header; internal
// errors omit the description so storage details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := ToHTTPStatus(code)

	if retryAfter := dErrors.RetryAfterOf(err); retryAfter > 0 {
		seconds := int(retryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	body := map[string]string{"error": string(code)}
	switch {
	case collapsedCodes[code]:
		body["error"] = genericSecurityCode
		body["error_description"] = genericSecurityMessage
	case code == dErrors.CodeInternal:
		// description omitted
	default:
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) && domainErr.Message != "" {
			body["error_description"] = domainErr.Message
		}
	}
	WriteJSON(w, status, body)
}

// Decode parses a JSON request body into T, rejecting unknown fields.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return v, nil
}
