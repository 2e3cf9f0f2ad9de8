package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/orders"
	"github.com/ariefcatur/go-backoffice/internal/schemadrift"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Service  *orders.Service
	Workflow *workflow.Workflow[orders.Status, *orders.Order]
	Guard    *schemadrift.Guard
}

type saveOrderReq struct {
	orders.Order
	// NumberEdited is set when the operator typed the order number by hand.
	NumberEdited bool `json:"number_edited"`
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/schema", h.schema)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.update)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Patch("/orders/{id}/status", h.setStatus)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req saveOrderReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o := req.Order
	o.ID = ""
	if err := h.Service.Create(ctx, &o, req.NumberEdited); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	var req saveOrderReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o := req.Order
	o.ID = chi.URLParam(r, "id")
	if err := h.Service.Update(ctx, &o); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Service.Status(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *OrdersHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	o, err := h.Service.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.Workflow.Transition(ctx, []*orders.Order{o}, id, orders.Status(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) schema(w http.ResponseWriter, r *http.Request) {
	if h.Guard == nil {
		writeJSON(w, http.StatusOK, schemadrift.Status{Table: "orders", Column: "tax_rate", Available: true})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.Guard.Status(ctx))
}
