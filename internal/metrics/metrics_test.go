package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Get("/metrics", Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `route="/orders/{id}"`)
	assert.Contains(t, body, `status="418"`)
	assert.NotContains(t, body, "/orders/abc")
}

func TestObserveImport(t *testing.T) {
	before := testutil.ToFloat64(ImportRecords.WithLabelValues("failed"))
	ObserveImport(2, 1, 3)
	assert.Equal(t, before+3, testutil.ToFloat64(ImportRecords.WithLabelValues("failed")))
}
