package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/go-chi/chi/v5"
)

type NotificationsHandler struct {
	Acks *notify.AckState
}

func (h *NotificationsHandler) Register(r chi.Router) {
	r.Get("/notifications/acks", h.list)
	r.Post("/notifications/{id}/ack", h.ack)
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"acknowledged": h.Acks.IDs()})
}

func (h *NotificationsHandler) ack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Acks.Ack(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
