package export

import (
	"context"
	"errors"

	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycleapp "power-assets/internal/lifecycle/application"
	"power-assets/internal/observability/metrics"
)

// Formats counted by the export metric.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Service assembles exports from the store.
type Service struct {
	store  *sqlstore.Store
	status *lifecycleapp.StatusService
	pdf    PDFOptions
}

// NewService constructs an export service.
func NewService(store *sqlstore.Store, status *lifecycleapp.StatusService, pdf PDFOptions) (*Service, error) {
	if store == nil || status == nil {
		return nil, errors.New("export: nil dependency")
	}
	return &Service{store: store, status: status, pdf: pdf}, nil
}

// InventoryXLSX exports devices matching the filter and every connection
// between them.
func (s *Service) InventoryXLSX(ctx context.Context, filter inventory.DeviceFilter) ([]byte, error) {
	data, err := s.inventoryXLSX(ctx, filter)
	observe(FormatXLSX, err)
	return data, err
}

func (s *Service) inventoryXLSX(ctx context.Context, filter inventory.DeviceFilter) ([]byte, error) {
	devices, err := s.store.Devices().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Connections().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	included := make(map[int64]bool, len(devices))
	for _, d := range devices {
		included[d.ID] = true
	}
	conns := make([]inventory.Connection, 0, len(all))
	for _, c := range all {
		if included[c.SourceDeviceID] && included[c.TargetDeviceID] {
			conns = append(conns, c)
		}
	}
	return BuildInventoryXLSX(devices, conns)
}

// LifecyclePDF renders the lifecycle report for the filter.
func (s *Service) LifecyclePDF(ctx context.Context, filter lifecycleapp.ReportFilter) ([]byte, error) {
	report, err := s.status.Report(ctx, filter)
	if err != nil {
		observe(FormatPDF, err)
		return nil, err
	}
	data, err := BuildLifecyclePDF(report, s.pdf)
	observe(FormatPDF, err)
	return data, err
}

func observe(format string, err error) {
	if err != nil {
		metrics.IncExport(format, metrics.ResultError)
		return
	}
	metrics.IncExport(format, metrics.ResultSuccess)
}
