package apihttp

import (
	"net/http"
	"strings"
	"time"

	"power-assets/internal/audit"
	inventoryapp "power-assets/internal/inventory/application"
	inventory "power-assets/internal/inventory/domain"
	lifecycleapp "power-assets/internal/lifecycle/application"
	lifecycle "power-assets/internal/lifecycle/domain"
)

type deviceRequest struct {
	AssetID        string `json:"asset_id" validate:"required,max=128"`
	Name           string `json:"name" validate:"required,max=255"`
	Station        string `json:"station" validate:"required,max=255"`
	DeviceType     string `json:"device_type" validate:"max=128"`
	Model          string `json:"model"`
	Location       string `json:"location"`
	PowerRating    string `json:"power_rating"`
	Vendor         string `json:"vendor"`
	CommissionDate string `json:"commission_date"`
	Remark         string `json:"remark"`
}

func (req deviceRequest) device() inventory.Device {
	return inventory.Device{
		AssetID:        req.AssetID,
		Name:           req.Name,
		Station:        req.Station,
		DeviceType:     req.DeviceType,
		Model:          req.Model,
		Location:       req.Location,
		PowerRating:    req.PowerRating,
		Vendor:         req.Vendor,
		CommissionDate: req.CommissionDate,
		Remark:         req.Remark,
	}
}

type deviceResponse struct {
	ID             int64                     `json:"id"`
	AssetID        string                    `json:"asset_id"`
	Name           string                    `json:"name"`
	Station        string                    `json:"station"`
	DeviceType     string                    `json:"device_type"`
	Category       string                    `json:"category"`
	Model          string                    `json:"model"`
	Location       string                    `json:"location"`
	PowerRating    string                    `json:"power_rating"`
	Vendor         string                    `json:"vendor"`
	CommissionDate string                    `json:"commission_date"`
	Remark         string                    `json:"remark"`
	Lifecycle      *lifecycle.Classification `json:"lifecycle,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

func toDeviceResponse(d inventory.Device) deviceResponse {
	return deviceResponse{
		ID:             d.ID,
		AssetID:        d.AssetID,
		Name:           d.Name,
		Station:        d.Station,
		DeviceType:     d.DeviceType,
		Category:       inventoryapp.DeviceTypeCategory(d.DeviceType),
		Model:          d.Model,
		Location:       d.Location,
		PowerRating:    d.PowerRating,
		Vendor:         d.Vendor,
		CommissionDate: d.CommissionDate,
		Remark:         d.Remark,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func deviceFilterFrom(r *http.Request) inventory.DeviceFilter {
	q := r.URL.Query()
	return inventory.DeviceFilter{
		Station:    strings.TrimSpace(q.Get("station")),
		DeviceType: strings.TrimSpace(q.Get("device_type")),
		Vendor:     strings.TrimSpace(q.Get("vendor")),
	}
}

// listDevices returns devices with their lifecycle classification. The
// lifecycle_status parameter keeps one status only.
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	want := strings.TrimSpace(r.URL.Query().Get("lifecycle_status"))
	var status lifecycle.Status
	if want != "" && want != "all" {
		parsed, ok := lifecycle.ParseStatus(want)
		if !ok {
			h.fail(w, r, lifecycleapp.ErrInvalidStatusFilter)
			return
		}
		status = parsed
	}

	devices, err := h.deps.Devices.List(r.Context(), deviceFilterFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	classes, err := h.deps.Status.ClassifyDevices(r.Context(), devices)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for i, d := range devices {
		if status != "" && classes[i].Status != status {
			continue
		}
		resp := toDeviceResponse(d)
		resp.Lifecycle = &classes[i]
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	device, err := h.deps.Devices.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := toDeviceResponse(*device)
	if classes, err := h.deps.Status.ClassifyDevices(r.Context(), []inventory.Device{*device}); err == nil {
		resp.Lifecycle = &classes[0]
	} else {
		h.deps.Logger.WithError(err).WithField("device_id", id).Warn("classify device failed")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	device, err := h.deps.Devices.Create(r.Context(), req.device())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionCreate, audit.ResourceDevice, device.ID, map[string]string{"asset_id": device.AssetID})
	writeJSON(w, http.StatusCreated, toDeviceResponse(*device))
}

func (h *Handler) updateDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	device, err := h.deps.Devices.Update(r.Context(), id, req.device())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionUpdate, audit.ResourceDevice, device.ID, map[string]string{"asset_id": device.AssetID})
	writeJSON(w, http.StatusOK, toDeviceResponse(*device))
}

func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	removed, err := h.deps.Devices.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionDelete, audit.ResourceDevice, id, map[string]int64{"connections_removed": removed})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id, "connections_removed": removed})
}

func (h *Handler) deviceFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.deps.Devices.Facets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

func (h *Handler) lifecycleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Status.Report(r.Context(), lifecycleapp.ReportFilter{
		Device: deviceFilterFrom(r),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type deviceTypeEntry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (h *Handler) deviceTypes(w http.ResponseWriter, _ *http.Request) {
	out := make([]deviceTypeEntry, 0, len(inventoryapp.StandardDeviceTypes))
	for _, t := range inventoryapp.StandardDeviceTypes {
		out = append(out, deviceTypeEntry{Name: t, Category: inventoryapp.DeviceTypeCategory(t)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deviceTypeSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inventoryapp.SuggestDeviceTypes(r.URL.Query().Get("q"), 10))
}
