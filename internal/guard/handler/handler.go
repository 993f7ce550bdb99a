// Package handler exposes the guarded form endpoints: token issuance at
// render time and the gated submission itself.
package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bastion/internal/gate"
	"bastion/internal/guard"
	"bastion/pkg/platform/httputil"
)

// TokenIssuer issues action tokens for form renders.
type TokenIssuer interface {
	IssueToken(ctx context.Context, route string) (*guard.Issued, error)
}

// Gate runs the submission pipeline.
type Gate interface {
	SubmitWithGate(ctx context.Context, req *gate.Request, op func(context.Context) error) (*gate.Decision, error)
}

// Handler wires form endpoints to the guard and gate services.
type Handler struct {
	issuer TokenIssuer
	gate   Gate
	logger *slog.Logger
}

// New constructs a form handler.
func New(issuer TokenIssuer, g Gate, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, gate: g, logger: logger}
}

// Register mounts form endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/forms/{route}/token", h.HandleIssueToken)
	r.Post("/v1/forms/{route}", h.HandleSubmit)
}

// HandleIssueToken handles GET /v1/forms/{route}/token. The response tells
// the client which field to render hidden and which token to echo back.
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	route := chi.URLParam(r, "route")

	issued, err := h.issuer.IssueToken(ctx, route)
	if err != nil {
		h.logger.ErrorContext(ctx, "form token issuance failed", "route", route, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issued)
}

type submitRequest struct {
	Token  string            `json:"form_token"`
	Fields map[string]string `json:"fields"`
}

type submitResponse struct {
	Status string `json:"status"`
}

// HandleSubmit handles POST /v1/forms/{route}. The downstream work for an
// accepted form (notification delivery) runs behind the email breaker.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	route := chi.URLParam(r, "route")

	req, err := httputil.Decode[submitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	_, err = h.gate.SubmitWithGate(ctx, &gate.Request{
		Route: route,
		Submission: guard.Submission{
			Route:     route,
			Token:     req.Token,
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Fields:    req.Fields,
		},
		Dependency: gate.EmailBreakerName,
	}, func(ctx context.Context) error {
		// Notification dispatch hangs off this hook; acceptance is the
		// contract, delivery is asynchronous.
		return nil
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, submitResponse{Status: "accepted"})
}

// clientIP strips the port when present; middleware.RealIP already rewrote
// RemoteAddr to the forwarded address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
