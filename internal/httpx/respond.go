package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/inventory"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return false
	}
	return true
}

func statusFor(err error) int {
	var (
		ve    *apperr.ValidationError
		dup   *apperr.DuplicateKeyError
		drift *apperr.SchemaDriftError
		pe    *inventory.ParseError
	)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve), errors.Is(err, workflow.ErrUnknownStatus):
		return http.StatusUnprocessableEntity
	case errors.As(err, &dup), errors.As(err, &drift), errors.Is(err, workflow.ErrTransitionNotAllowed):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &pe):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body["messages"] = ve.Messages
	}
	writeJSON(w, statusFor(err), body)
}
