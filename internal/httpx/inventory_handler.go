package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/inventory"
	"github.com/go-chi/chi/v5"
)

const maxImportBytes = 16 << 20

type InventoryHandler struct {
	Reconciler *inventory.Reconciler
}

type importResp struct {
	inventory.Summary
	Partial bool `json:"partial"`
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/inventory/export", h.export)
	r.Post("/inventory/import", h.importFile)
}

func (h *InventoryHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Reconciler.Catalog.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// export streams the catalog; ?format=csv|json, json by default.
func (h *InventoryHandler) export(w http.ResponseWriter, r *http.Request) {
	f := inventory.Format(r.URL.Query().Get("format"))
	if f == "" {
		f = inventory.FormatJSON
	}
	if f != inventory.FormatJSON && f != inventory.FormatCSV {
		writeError(w, fmt.Errorf("%w: %q", inventory.ErrUnsupportedFormat, f))
		return
	}

	var buf bytes.Buffer
	if err := h.Reconciler.Export(r.Context(), f, &buf); err != nil {
		writeError(w, err)
		return
	}
	ctype := "application/json"
	if f == inventory.FormatCSV {
		ctype = "text/csv; charset=utf-8"
	}
	name := fmt.Sprintf("inventory-%s.%s", time.Now().UTC().Format("20060102-150405"), f)
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// importFile accepts a multipart upload in field "file", or a raw body with
// the file name in ?filename=.
func (h *InventoryHandler) importFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var (
		name string
		data []byte
		err  error
	)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, hdr, ferr := r.FormFile("file")
		if ferr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file: " + ferr.Error()})
			return
		}
		defer file.Close()
		name = hdr.Filename
		data, err = io.ReadAll(file)
	} else {
		// Raw body. curl --data-binary labels it application/x-www-form-urlencoded.
		name = r.URL.Query().Get("filename")
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sum, err := h.Reconciler.Import(r.Context(), name, data)
	var pbe *apperr.PartialBatchError
	switch {
	case errors.As(err, &pbe):
		writeJSON(w, http.StatusOK, importResp{Summary: sum, Partial: true})
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusOK, importResp{Summary: sum})
	}
}
