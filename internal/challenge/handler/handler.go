// Package handler exposes the proof-of-work endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bastion/internal/challenge"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/httputil"
)

// Service defines the challenge operations the handler needs.
type Service interface {
	Generate(ctx context.Context, difficulty int) (*challenge.Challenge, error)
	Verify(ctx context.Context, sol *challenge.Solution, scope string) (*challenge.WorkToken, error)
}

// Handler wires challenge endpoints to the challenge service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a challenge handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts challenge endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/challenge", h.HandleChallenge)
}

type challengeRequest struct {
	Action     string              `json:"action"`
	Difficulty int                 `json:"difficulty,omitempty"`
	Scope      string              `json:"scope,omitempty"`
	Solution   *challenge.Solution `json:"solution,omitempty"`
}

// HandleChallenge handles POST /v1/challenge. One endpoint serves both
// halves of the round trip: action "generate" issues a puzzle, action
// "verify" consumes a solution and returns a work token.
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[challengeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	switch req.Action {
	case "generate":
		ch, err := h.service.Generate(ctx, req.Difficulty)
		if err != nil {
			h.logger.ErrorContext(ctx, "challenge generation failed", "error", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, ch)

	case "verify":
		if req.Solution == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "solution is required for verify"))
			return
		}
		token, err := h.service.Verify(ctx, req.Solution, req.Scope)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, token)

	default:
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown action %q", req.Action))
	}
}
