package apihttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	lifecycleapp "power-assets/internal/lifecycle/application"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func (h *Handler) exportDevices(w http.ResponseWriter, r *http.Request) {
	data, err := h.deps.Exports.InventoryXLSX(r.Context(), deviceFilterFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.attachment(w, xlsxContentType, "devices", "xlsx", data)
}

func (h *Handler) exportLifecycle(w http.ResponseWriter, r *http.Request) {
	data, err := h.deps.Exports.LifecyclePDF(r.Context(), lifecycleapp.ReportFilter{
		Device: deviceFilterFrom(r),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.attachment(w, pdfContentType, "lifecycle", "pdf", data)
}

func (h *Handler) attachment(w http.ResponseWriter, contentType, name, ext string, data []byte) {
	filename := fmt.Sprintf("%s_%s.%s", name, h.now().Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
