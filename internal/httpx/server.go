package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

func NewRouter(handlers ...Registrar) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", metrics.Handler())
	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
