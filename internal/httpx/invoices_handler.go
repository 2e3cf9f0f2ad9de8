package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/invoices"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
	"github.com/go-chi/chi/v5"
)

type InvoicesHandler struct {
	Service   *invoices.Service
	Converter *invoices.Converter
	Workflow  *workflow.Workflow[invoices.Status, *invoices.Invoice]
}

type draftReq struct {
	Draft   invoices.Invoice `json:"draft"`
	OrderID string           `json:"order_id"`
}

func (h *InvoicesHandler) Register(r chi.Router) {
	r.Get("/invoices", h.list)
	r.Post("/invoices", h.create)
	r.Post("/invoices/draft", h.draft)
	r.Get("/invoices/{id}", h.get)
	r.Put("/invoices/{id}", h.update)
	r.Patch("/invoices/{id}/status", h.setStatus)
}

func (h *InvoicesHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*invoices.Invoice{}
	}
	writeJSON(w, http.StatusOK, list)
}

// draft applies an order selection to the submitted draft and returns it.
// Nothing is stored.
func (h *InvoicesHandler) draft(w http.ResponseWriter, r *http.Request) {
	var req draftReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Converter.Select(ctx, &req.Draft, req.OrderID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req.Draft)
}

func (h *InvoicesHandler) create(w http.ResponseWriter, r *http.Request) {
	var inv invoices.Invoice
	if !decodeJSON(w, r, &inv) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv.ID = ""
	if err := h.Service.Create(ctx, &inv); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoicesHandler) update(w http.ResponseWriter, r *http.Request) {
	var inv invoices.Invoice
	if !decodeJSON(w, r, &inv) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv.ID = chi.URLParam(r, "id")
	if err := h.Service.Update(ctx, &inv); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoicesHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	inv, err := h.Service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoicesHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	inv, err := h.Service.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.Workflow.Transition(ctx, []*invoices.Invoice{inv}, id, invoices.Status(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
