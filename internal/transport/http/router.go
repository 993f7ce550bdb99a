// Package httptransport assembles the chi router. Handlers live with their
// domains; this package only mounts them and owns the cross-cutting
// middleware and operational endpoints.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bastion/pkg/platform/httputil"
)

// Registrar mounts a domain's endpoints on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the full route table. The metrics registry is the
// process-local one handed to every component at startup.
func NewRouter(registry *prometheus.Registry, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", handleHealthz)
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
