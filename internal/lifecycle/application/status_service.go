package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycle "power-assets/internal/lifecycle/domain"
	"power-assets/internal/observability/metrics"
)

// ErrInvalidStatusFilter indicates an unknown status filter value.
var ErrInvalidStatusFilter = errors.New("invalid lifecycle status filter")

// DeviceStatus is one row of the lifecycle report.
type DeviceStatus struct {
	DeviceID       int64  `json:"id"`
	AssetID        string `json:"asset_id"`
	Name           string `json:"name"`
	Station        string `json:"station"`
	DeviceType     string `json:"device_type"`
	Vendor         string `json:"vendor"`
	CommissionDate string `json:"commission_date"`
	lifecycle.Classification
}

// Report is a classified device listing with statistics over every
// device matching the device filter.
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Statistics  lifecycle.Statistics `json:"statistics"`
	Devices     []DeviceStatus       `json:"devices"`
}

// ReportFilter narrows a report. Status "" or "all" keeps every status.
type ReportFilter struct {
	Device inventory.DeviceFilter
	Status string
}

// StatusService classifies stored devices.
type StatusService struct {
	store *sqlstore.Store
	rules *RuleService
	now   func() time.Time
}

// StatusOption configures the service.
type StatusOption func(*StatusService)

// WithStatusClock overrides the reference time.
func WithStatusClock(now func() time.Time) StatusOption {
	return func(s *StatusService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStatusService constructs a status service.
func NewStatusService(store *sqlstore.Store, rules *RuleService, opts ...StatusOption) (*StatusService, error) {
	if store == nil {
		return nil, errors.New("status service: nil store")
	}
	if rules == nil {
		return nil, errors.New("status service: nil rule service")
	}
	s := &StatusService{store: store, rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Report classifies devices matching the filter.
func (s *StatusService) Report(ctx context.Context, filter ReportFilter) (*Report, error) {
	var want lifecycle.Status
	if filter.Status != "" && filter.Status != "all" {
		status, ok := lifecycle.ParseStatus(filter.Status)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatusFilter, filter.Status)
		}
		want = status
	}

	devices, err := s.store.Devices().List(ctx, filter.Device)
	if err != nil {
		return nil, err
	}
	classes, now, err := s.classify(ctx, devices)
	if err != nil {
		return nil, err
	}

	report := &Report{GeneratedAt: now, Devices: make([]DeviceStatus, 0, len(devices))}
	for i, d := range devices {
		c := classes[i]
		report.Statistics.Add(c.Status)
		if want != "" && c.Status != want {
			continue
		}
		report.Devices = append(report.Devices, DeviceStatus{
			DeviceID:       d.ID,
			AssetID:        d.AssetID,
			Name:           d.Name,
			Station:        d.Station,
			DeviceType:     d.DeviceType,
			Vendor:         d.Vendor,
			CommissionDate: d.CommissionDate,
			Classification: c,
		})
	}

	if filter.Device == (inventory.DeviceFilter{}) {
		st := report.Statistics
		metrics.SetLifecycleCounts(map[string]int{
			string(lifecycle.StatusNormal):  st.Normal,
			string(lifecycle.StatusWarning): st.Warning,
			string(lifecycle.StatusExpired): st.Expired,
			string(lifecycle.StatusUnknown): st.Unknown,
		})
	}
	return report, nil
}

// ClassifyDevices classifies devices against the current rules. The
// result is index-aligned with devices.
func (s *StatusService) ClassifyDevices(ctx context.Context, devices []inventory.Device) ([]lifecycle.Classification, error) {
	classes, _, err := s.classify(ctx, devices)
	return classes, err
}

func (s *StatusService) classify(ctx context.Context, devices []inventory.Device) ([]lifecycle.Classification, time.Time, error) {
	rules, err := s.rules.RuleSet(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	now := s.now()
	classes := make([]lifecycle.Classification, len(devices))
	for i, d := range devices {
		classes[i] = lifecycle.Classify(d.DeviceType, d.CommissionDate, rules, now)
	}
	return classes, now, nil
}
