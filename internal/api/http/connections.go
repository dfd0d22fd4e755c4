package apihttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"power-assets/internal/audit"
	inventory "power-assets/internal/inventory/domain"
	lifecycle "power-assets/internal/lifecycle/domain"
)

type connectionRequest struct {
	SourceDeviceID       int64    `json:"source_device_id" validate:"required,gt=0"`
	TargetDeviceID       int64    `json:"target_device_id" validate:"required,gt=0,nefield=SourceDeviceID"`
	SourcePort           string   `json:"source_port"`
	TargetPort           string   `json:"target_port"`
	SourceFuseNumber     string   `json:"source_fuse_number"`
	SourceFuseSpec       string   `json:"source_fuse_spec"`
	SourceBreakerNumber  string   `json:"source_breaker_number"`
	SourceBreakerSpec    string   `json:"source_breaker_spec"`
	TargetFuseNumber     string   `json:"target_fuse_number"`
	TargetFuseSpec       string   `json:"target_fuse_spec"`
	TargetBreakerNumber  string   `json:"target_breaker_number"`
	TargetBreakerSpec    string   `json:"target_breaker_spec"`
	TargetDeviceLocation string   `json:"target_device_location"`
	HierarchyRelation    string   `json:"hierarchy_relation"`
	UpstreamDownstream   string   `json:"upstream_downstream"`
	ConnectionType       string   `json:"connection_type" validate:"omitempty,oneof=cable busbar busway"`
	CableType            string   `json:"cable_type"`
	CableModel           string   `json:"cable_model"`
	CableSpecification   string   `json:"cable_specification"`
	ParallelCount        int      `json:"parallel_count" validate:"gte=0"`
	RatedCurrent         *float64 `json:"rated_current" validate:"omitempty,gte=0"`
	CableLength          *float64 `json:"cable_length" validate:"omitempty,gte=0"`
	SourceDevicePhoto    string   `json:"source_device_photo"`
	TargetDevicePhoto    string   `json:"target_device_photo"`
	Remark               string   `json:"remark"`
	InstallationDate     string   `json:"installation_date"`
}

func (req connectionRequest) connection() (inventory.Connection, error) {
	conn := inventory.Connection{
		SourceDeviceID:       req.SourceDeviceID,
		TargetDeviceID:       req.TargetDeviceID,
		SourcePort:           strings.TrimSpace(req.SourcePort),
		TargetPort:           strings.TrimSpace(req.TargetPort),
		SourceFuseNumber:     req.SourceFuseNumber,
		SourceFuseSpec:       req.SourceFuseSpec,
		SourceBreakerNumber:  req.SourceBreakerNumber,
		SourceBreakerSpec:    req.SourceBreakerSpec,
		TargetFuseNumber:     req.TargetFuseNumber,
		TargetFuseSpec:       req.TargetFuseSpec,
		TargetBreakerNumber:  req.TargetBreakerNumber,
		TargetBreakerSpec:    req.TargetBreakerSpec,
		TargetDeviceLocation: req.TargetDeviceLocation,
		HierarchyRelation:    req.HierarchyRelation,
		UpstreamDownstream:   req.UpstreamDownstream,
		ConnectionType:       inventory.ConnectionType(req.ConnectionType),
		CableType:            req.CableType,
		CableModel:           req.CableModel,
		CableSpecification:   req.CableSpecification,
		ParallelCount:        req.ParallelCount,
		RatedCurrent:         req.RatedCurrent,
		CableLength:          req.CableLength,
		SourceDevicePhoto:    req.SourceDevicePhoto,
		TargetDevicePhoto:    req.TargetDevicePhoto,
		Remark:               req.Remark,
	}
	if raw := strings.TrimSpace(req.InstallationDate); raw != "" {
		date, ok := lifecycle.NormalizeDate(raw)
		if !ok {
			return conn, fmt.Errorf("%w: installation_date %q not recognized", errBadRequest, raw)
		}
		conn.InstallationDate = &date
	}
	return conn, nil
}

type connectionResponse struct {
	ID                   int64     `json:"id"`
	SourceDeviceID       int64     `json:"source_device_id"`
	TargetDeviceID       int64     `json:"target_device_id"`
	SourcePort           string    `json:"source_port"`
	TargetPort           string    `json:"target_port"`
	SourceFuseNumber     string    `json:"source_fuse_number"`
	SourceFuseSpec       string    `json:"source_fuse_spec"`
	SourceBreakerNumber  string    `json:"source_breaker_number"`
	SourceBreakerSpec    string    `json:"source_breaker_spec"`
	TargetFuseNumber     string    `json:"target_fuse_number"`
	TargetFuseSpec       string    `json:"target_fuse_spec"`
	TargetBreakerNumber  string    `json:"target_breaker_number"`
	TargetBreakerSpec    string    `json:"target_breaker_spec"`
	TargetDeviceLocation string    `json:"target_device_location"`
	HierarchyRelation    string    `json:"hierarchy_relation"`
	UpstreamDownstream   string    `json:"upstream_downstream"`
	ConnectionType       *string   `json:"connection_type"`
	CableType            string    `json:"cable_type"`
	CableModel           string    `json:"cable_model"`
	CableSpecification   string    `json:"cable_specification"`
	ParallelCount        int       `json:"parallel_count"`
	RatedCurrent         *float64  `json:"rated_current"`
	CableLength          *float64  `json:"cable_length"`
	SourceDevicePhoto    string    `json:"source_device_photo"`
	TargetDevicePhoto    string    `json:"target_device_photo"`
	Remark               string    `json:"remark"`
	InstallationDate     *string   `json:"installation_date"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toConnectionResponse(c inventory.Connection) connectionResponse {
	resp := connectionResponse{
		ID:                   c.ID,
		SourceDeviceID:       c.SourceDeviceID,
		TargetDeviceID:       c.TargetDeviceID,
		SourcePort:           c.SourcePort,
		TargetPort:           c.TargetPort,
		SourceFuseNumber:     c.SourceFuseNumber,
		SourceFuseSpec:       c.SourceFuseSpec,
		SourceBreakerNumber:  c.SourceBreakerNumber,
		SourceBreakerSpec:    c.SourceBreakerSpec,
		TargetFuseNumber:     c.TargetFuseNumber,
		TargetFuseSpec:       c.TargetFuseSpec,
		TargetBreakerNumber:  c.TargetBreakerNumber,
		TargetBreakerSpec:    c.TargetBreakerSpec,
		TargetDeviceLocation: c.TargetDeviceLocation,
		HierarchyRelation:    c.HierarchyRelation,
		UpstreamDownstream:   c.UpstreamDownstream,
		CableType:            c.CableType,
		CableModel:           c.CableModel,
		CableSpecification:   c.CableSpecification,
		ParallelCount:        c.ParallelCount,
		RatedCurrent:         c.RatedCurrent,
		CableLength:          c.CableLength,
		SourceDevicePhoto:    c.SourceDevicePhoto,
		TargetDevicePhoto:    c.TargetDevicePhoto,
		Remark:               c.Remark,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	// An idle port serializes its type as null.
	if c.ConnectionType != inventory.ConnectionIdle {
		t := string(c.ConnectionType)
		resp.ConnectionType = &t
	}
	if c.InstallationDate != nil {
		d := c.InstallationDate.Format("2006-01-02")
		resp.InstallationDate = &d
	}
	return resp
}

// listConnections returns every connection, or those touching device_id.
func (h *Handler) listConnections(w http.ResponseWriter, r *http.Request) {
	var (
		conns []inventory.Connection
		err   error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("device_id")); raw != "" {
		deviceID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || deviceID <= 0 {
			h.fail(w, r, fmt.Errorf("%w: invalid device_id", errBadRequest))
			return
		}
		conns, err = h.deps.Connections.ListForDevice(r.Context(), deviceID)
	} else {
		conns, err = h.deps.Connections.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]connectionResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, toConnectionResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	conn, err := h.deps.Connections.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConnectionResponse(*conn))
}

func (h *Handler) createConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	input, err := req.connection()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	conn, err := h.deps.Connections.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionCreate, audit.ResourceConnection, conn.ID, map[string]int64{
		"source_device_id": conn.SourceDeviceID,
		"target_device_id": conn.TargetDeviceID,
	})
	writeJSON(w, http.StatusCreated, toConnectionResponse(*conn))
}

func (h *Handler) deleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Connections.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionDelete, audit.ResourceConnection, id, nil)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}
