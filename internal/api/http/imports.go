package apihttp

import (
	"errors"
	"fmt"
	"net/http"

	"power-assets/internal/audit"
	importer "power-assets/internal/importer/domain"
	"power-assets/internal/importer/infrastructure/xlsx"
)

const importFileField = "file"

// importWorkbook runs a reconciling import of an uploaded workbook. A
// batch failure still answers with the error and nothing is applied.
func (h *Handler) importWorkbook(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(importFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		h.fail(w, r, fmt.Errorf("%w: multipart field %q is required", errBadRequest, importFileField))
		return
	}
	defer file.Close()

	wb, err := xlsx.Read(file)
	if err != nil {
		if !errors.Is(err, xlsx.ErrEmptyWorkbook) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		h.fail(w, r, err)
		return
	}

	report, err := h.deps.Importer.Import(r.Context(), wb)
	if err != nil {
		var batchErr *importer.BatchError
		if errors.As(err, &batchErr) {
			h.logAudit(r, audit.ActionImport, audit.ResourceImportBatch, 0, map[string]string{
				"file":  header.Filename,
				"error": batchErr.Error(),
			})
		}
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionImport, audit.ResourceImportBatch, 0, map[string]any{
		"file":                header.Filename,
		"batch":               report.BatchID,
		"devices_created":     report.DevicesCreated,
		"devices_updated":     report.DevicesUpdated,
		"devices_skipped":     report.DevicesSkipped,
		"connections_created": report.ConnectionsCreated,
		"connections_skipped": report.ConnectionsSkipped,
	})
	writeJSON(w, http.StatusOK, report)
}
