package apihttp

import "net/http"

// graph returns the power chain around a device.
func (h *Handler) graph(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	graph, err := h.deps.Chains.Chain(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}
