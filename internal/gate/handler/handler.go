// Package handler exposes the gated payment endpoint.
package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bastion/internal/fraud"
	"bastion/internal/gate"
	"bastion/internal/guard"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/httputil"
)

// Route is the gate scope for payment submissions. Work tokens must be
// minted for this scope to satisfy a payment step-up.
const Route = "payments"

// Gate runs the payment pipeline.
type Gate interface {
	SubmitPayment(ctx context.Context, req *gate.Request) (*gate.Decision, error)
}

// Handler wires the payment endpoint to the gate.
type Handler struct {
	gate   Gate
	logger *slog.Logger
}

// New constructs a payment handler.
func New(g Gate, logger *slog.Logger) *Handler {
	return &Handler{gate: g, logger: logger}
}

// Register mounts the payment endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/payments", h.HandleSubmitPayment)
}

type paymentRequest struct {
	UserID        string            `json:"user_id"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	FormToken     string            `json:"form_token"`
	Fields        map[string]string `json:"fields,omitempty"`
	WorkToken     string            `json:"work_token,omitempty"`
	CaptchaToken  string            `json:"captcha_token,omitempty"`
}

// HandleSubmitPayment handles POST /v1/payments. A step-up demand returns
// 202 with the required gate type; the client completes the challenge and
// resubmits with the earned token.
func (h *Handler) HandleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[paymentRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Amount <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive"))
		return
	}

	ip := clientIP(r)
	decision, err := h.gate.SubmitPayment(ctx, &gate.Request{
		Route: Route,
		Submission: guard.Submission{
			Route:     Route,
			Token:     req.FormToken,
			IP:        ip,
			UserAgent: r.UserAgent(),
			Fields:    req.Fields,
		},
		Attempt: &fraud.PaymentAttempt{
			UserID:        req.UserID,
			Amount:        req.Amount,
			Currency:      req.Currency,
			PaymentMethod: req.PaymentMethod,
			IPAddress:     ip,
			UserAgent:     r.UserAgent(),
			Metadata:      req.Metadata,
		},
		WorkToken:    req.WorkToken,
		CaptchaToken: req.CaptchaToken,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if decision.GateRequired {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, decision)
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
