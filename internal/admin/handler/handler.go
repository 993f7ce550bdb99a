// Package handler exposes the operator endpoints: breaker inspection and
// control, and the recent audit trail. Every state change is itself
// audited with the acting operator.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bastion/internal/audit"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/circuit"
	"bastion/pkg/platform/httputil"
)

const defaultAuditLimit = 50

// AuditReader lists recent audit entries.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Handler wires admin endpoints to the breaker registry and audit trail.
type Handler struct {
	breakers *circuit.Registry
	reader   AuditReader
	audit    *audit.Publisher
	logger   *slog.Logger
}

// New constructs an admin handler.
func New(breakers *circuit.Registry, reader AuditReader, publisher *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{breakers: breakers, reader: reader, audit: publisher, logger: logger}
}

// Register mounts admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/admin/breakers", h.HandleListBreakers)
	r.Post("/v1/admin/breakers/{name}/reset", h.HandleResetBreaker)
	r.Post("/v1/admin/breakers/{name}/trip", h.HandleTripBreaker)
	r.Get("/v1/admin/audit/recent", h.HandleRecentAudit)
}

// HandleListBreakers handles GET /v1/admin/breakers.
func (h *Handler) HandleListBreakers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"breakers": h.breakers.Status(),
	})
}

// HandleResetBreaker handles POST /v1/admin/breakers/{name}/reset. Reset
// forces the breaker closed regardless of its failure history.
func (h *Handler) HandleResetBreaker(w http.ResponseWriter, r *http.Request) {
	h.mutateBreaker(w, r, audit.ActionBreakerReset, func(b *circuit.Breaker) { b.Reset() })
}

// HandleTripBreaker handles POST /v1/admin/breakers/{name}/trip. Trip
// forces the breaker open, shedding traffic to the dependency.
func (h *Handler) HandleTripBreaker(w http.ResponseWriter, r *http.Request) {
	h.mutateBreaker(w, r, audit.ActionBreakerTripped, func(b *circuit.Breaker) { b.Trip() })
}

func (h *Handler) mutateBreaker(w http.ResponseWriter, r *http.Request, action string, mutate func(*circuit.Breaker)) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	if name == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "breaker name is required"))
		return
	}

	breaker := h.breakers.Get(name)
	mutate(breaker)

	h.audit.Emit(ctx, audit.Entry{
		Actor:  operator(r),
		Action: action,
		Target: "breaker:" + name,
	})
	h.logger.InfoContext(ctx, "breaker state changed", "breaker", name, "action", action)
	httputil.WriteJSON(w, http.StatusOK, breaker.Status())
}

// HandleRecentAudit handles GET /v1/admin/audit/recent?limit=N.
func (h *Handler) HandleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.reader.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit listing failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "audit trail unavailable", err))
		return
	}
	h.audit.DataAccess(ctx, "audit_read", operator(r), "audit_entries", map[string]any{"limit": limit})
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// operator identifies the acting admin from the forwarded identity header.
// Authentication happens upstream at the gateway.
func operator(r *http.Request) string {
	if op := r.Header.Get("X-Operator"); op != "" {
		return op
	}
	return "unknown"
}
