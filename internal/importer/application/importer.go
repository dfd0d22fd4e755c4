package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	importer "power-assets/internal/importer/domain"
	inventoryapp "power-assets/internal/inventory/application"
	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycle "power-assets/internal/lifecycle/domain"
	"power-assets/internal/observability/metrics"
)

const (
	// PlaceholderStation is used for auto-created devices whose station is unknown.
	PlaceholderStation = "待补充"
	// PlaceholderRemark marks auto-created devices that need manual completion.
	PlaceholderRemark = "自动创建：待补充设备信息"

	rowSavepoint = "import_row"
)

// Service reconciles a workbook against the store.
type Service struct {
	store    *sqlstore.Store
	logger   logrus.FieldLogger
	maxRows  int
	newID    func() string
	onChange inventoryapp.ChangeHook
}

// Option configures the importer.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRows bounds the number of data rows accepted per batch. Zero
// disables the bound.
func WithMaxRows(n int) Option {
	return func(s *Service) {
		s.maxRows = n
	}
}

// WithPlaceholderIDs overrides the asset id generator for auto-created devices.
func WithPlaceholderIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithChangeHook registers a hook run after a committed batch.
func WithChangeHook(hook inventoryapp.ChangeHook) Option {
	return func(s *Service) {
		s.onChange = hook
	}
}

// NewService constructs the importer.
func NewService(store *sqlstore.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("importer: nil store")
	}
	s := &Service{
		store:  store,
		logger: logrus.StandardLogger(),
		newID:  placeholderAssetID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func placeholderAssetID() string {
	return "AUTO-" + strings.ToUpper(uuid.NewString()[:8])
}

// batch carries per-import state.
type batch struct {
	tx       *sqlstore.Tx
	report   *importer.Report
	logger   logrus.FieldLogger
	byAsset  map[string]*inventory.Device
	accepted map[int]bool
	touched  []int64
}

// Import applies a workbook in one transaction. Row-level problems are
// reported as diagnostics; any other failure rolls the batch back and is
// returned as *importer.BatchError.
func (s *Service) Import(ctx context.Context, wb importer.Workbook) (*importer.Report, error) {
	if missing := missingColumns(wb.Devices); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", importer.ErrMissingColumns, strings.Join(missing, ", "))
	}
	if s.maxRows > 0 && wb.RowCount() > s.maxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", importer.ErrTooManyRows, wb.RowCount(), s.maxRows)
	}

	start := time.Now()
	report := &importer.Report{BatchID: uuid.NewString()}
	logger := s.logger.WithField("batch", report.BatchID)

	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		b := &batch{
			tx:       tx,
			report:   report,
			logger:   logger,
			byAsset:  make(map[string]*inventory.Device),
			accepted: make(map[int]bool),
		}
		if err := s.importDevices(ctx, b, wb.Devices); err != nil {
			return err
		}
		removed, err := tx.Connections.DeleteTouching(ctx, b.touched)
		if err != nil {
			return fmt.Errorf("remove stale connections: %w", err)
		}
		report.ConnectionsRemoved = removed
		if err := s.importLinks(ctx, b, wb.Devices); err != nil {
			return err
		}
		if wb.Connections != nil {
			if err := s.importConnections(ctx, b, *wb.Connections); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.ObserveImport(metrics.ResultError, time.Since(start))
		logger.WithError(err).Error("import batch rolled back")
		return nil, &importer.BatchError{Cause: err}
	}

	metrics.ObserveImport(metrics.ResultSuccess, time.Since(start))
	metrics.AddImportRows(importer.SheetDevices, "created", report.DevicesCreated)
	metrics.AddImportRows(importer.SheetDevices, "updated", report.DevicesUpdated)
	metrics.AddImportRows(importer.SheetDevices, "skipped", report.DevicesSkipped)
	metrics.AddImportRows(importer.SheetConnections, "created", report.ConnectionsCreated)
	metrics.AddImportRows(importer.SheetConnections, "skipped", report.ConnectionsSkipped)
	logger.WithFields(logrus.Fields{
		"devices_created":     report.DevicesCreated,
		"devices_updated":     report.DevicesUpdated,
		"devices_skipped":     report.DevicesSkipped,
		"connections_created": report.ConnectionsCreated,
		"connections_skipped": report.ConnectionsSkipped,
		"connections_removed": report.ConnectionsRemoved,
	}).Info("import batch committed")

	if s.onChange != nil {
		s.onChange(ctx)
	}
	return report, nil
}

func missingColumns(sheet importer.Sheet) []string {
	var missing []string
	for _, col := range importer.RequiredDeviceColumns {
		if !sheet.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func (s *Service) importDevices(ctx context.Context, b *batch, sheet importer.Sheet) error {
	for i, row := range sheet.Rows {
		assetID := row.Value(importer.ColAssetID)
		if assetID == "" {
			b.report.SkipDevice(row.Number, "missing asset id")
			continue
		}
		name := row.Value(importer.ColName)
		if name == "" {
			b.report.SkipDevice(row.Number, "missing device name")
			continue
		}
		if _, dup := b.byAsset[assetID]; dup {
			b.report.SkipDevice(row.Number, fmt.Sprintf("duplicate asset id %s in file", assetID))
			continue
		}
		station := row.Value(importer.ColStation)
		if station == "" {
			b.report.SkipDevice(row.Number, "missing station")
			continue
		}

		device := inventory.Device{
			AssetID:        assetID,
			Name:           name,
			Station:        station,
			DeviceType:     row.Value(importer.ColDeviceType),
			Model:          row.Value(importer.ColModel),
			Location:       row.Value(importer.ColLocation),
			PowerRating:    row.Value(importer.ColPowerRating),
			Vendor:         row.Value(importer.ColVendor),
			CommissionDate: row.Value(importer.ColCommissionDate),
			Remark:         row.Value(importer.ColRemark),
		}
		created := false
		err := b.tx.Savepoint(ctx, rowSavepoint, func() error {
			existing, err := b.tx.Devices.GetByAssetID(ctx, assetID)
			if err != nil {
				return err
			}
			if existing != nil {
				device.ID = existing.ID
				device.CreatedAt = existing.CreatedAt
			} else {
				created = true
			}
			return b.tx.Devices.Save(ctx, &device)
		})
		if err != nil {
			if errors.Is(err, sqlstore.ErrTxBroken) {
				return err
			}
			b.logger.WithError(err).WithFields(logrus.Fields{"row": row.Number, "asset_id": assetID}).Warn("device row skipped")
			b.report.SkipDevice(row.Number, err.Error())
			continue
		}
		if created {
			b.report.DevicesCreated++
		} else {
			b.report.DevicesUpdated++
		}
		stored := device
		b.byAsset[assetID] = &stored
		b.accepted[i] = true
		b.touched = append(b.touched, device.ID)
	}
	return nil
}

// importLinks creates the parent links of the device sheet. Rows without
// a parent are not links and are passed over without a diagnostic.
func (s *Service) importLinks(ctx context.Context, b *batch, sheet importer.Sheet) error {
	if !sheet.HasColumn(importer.ColParentAssetID) {
		return nil
	}
	for i, row := range sheet.Rows {
		parentID := row.Value(importer.ColParentAssetID)
		if parentID == "" {
			continue
		}
		if !b.accepted[i] {
			b.report.SkipConnection(importer.SheetLinks, row.Number, "device row was skipped")
			continue
		}
		selfID := row.Value(importer.ColAssetID)
		if parentID == selfID {
			b.report.SkipConnection(importer.SheetLinks, row.Number, "device cannot feed itself")
			continue
		}
		parent, ok := b.byAsset[parentID]
		if !ok {
			b.report.SkipConnection(importer.SheetLinks, row.Number, fmt.Sprintf("parent %s not in this import", parentID))
			continue
		}
		self, ok := b.byAsset[selfID]
		if !ok {
			b.report.SkipConnection(importer.SheetLinks, row.Number, fmt.Sprintf("device %s not in this import", selfID))
			continue
		}

		conn := inventory.Connection{
			SourceDeviceID: parent.ID,
			TargetDeviceID: self.ID,
			SourcePort:     row.Value(importer.ColParentPort),
			TargetPort:     row.Value(importer.ColOwnPort),
			CableType:      row.Value(importer.ColCableType),
			ConnectionType: inventory.ConnectionTypeFromLabel(row.Value(importer.ColCableType)),
			ParallelCount:  1,
		}
		if err := s.createConnection(ctx, b, importer.SheetLinks, row.Number, &conn, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) importConnections(ctx context.Context, b *batch, sheet importer.Sheet) error {
	for _, row := range sheet.Rows {
		sourceName := row.Value(importer.ColSourceName)
		targetName := row.Value(importer.ColTargetName)
		switch {
		case sourceName == "" && targetName == "":
			b.report.SkipConnection(importer.SheetConnections, row.Number, "empty row")
			continue
		case sourceName == "" || targetName == "":
			b.report.SkipConnection(importer.SheetConnections, row.Number, "idle port: only one endpoint named")
			continue
		case sourceName == targetName:
			b.report.SkipConnection(importer.SheetConnections, row.Number, "device cannot feed itself")
			continue
		}

		conn, err := connectionFromRow(row)
		if err != nil {
			b.report.SkipConnection(importer.SheetConnections, row.Number, err.Error())
			continue
		}

		placeholders := 0
		resolve := func() error {
			source, err := b.tx.Devices.FindByName(ctx, sourceName)
			if err != nil {
				return err
			}
			target, err := b.tx.Devices.FindByName(ctx, targetName)
			if err != nil {
				return err
			}
			if source == nil {
				if source, err = s.createPlaceholder(ctx, b, sourceName, target); err != nil {
					return err
				}
				placeholders++
			}
			if target == nil {
				if target, err = s.createPlaceholder(ctx, b, targetName, source); err != nil {
					return err
				}
				placeholders++
			}
			conn.SourceDeviceID = source.ID
			conn.TargetDeviceID = target.ID
			return nil
		}
		if err := s.createConnection(ctx, b, importer.SheetConnections, row.Number, &conn, resolve); err != nil {
			return err
		}
		if conn.ID > 0 {
			b.report.PlaceholdersCreated += placeholders
		}
	}
	return nil
}

// createConnection stores conn inside a row savepoint after optional
// endpoint resolution. Duplicates of an existing edge are skipped.
// Only a broken transaction is returned.
func (s *Service) createConnection(ctx context.Context, b *batch, sheet string, rowNumber int, conn *inventory.Connection, resolve func() error) error {
	var reason string
	err := b.tx.Savepoint(ctx, rowSavepoint, func() error {
		if resolve != nil {
			if err := resolve(); err != nil {
				return err
			}
		}
		exists, err := b.tx.Connections.Exists(ctx, conn.SourceDeviceID, conn.TargetDeviceID, conn.SourcePort, conn.TargetPort)
		if err != nil {
			return err
		}
		if exists {
			reason = "duplicate connection"
			return errDuplicateConnection
		}
		return b.tx.Connections.Create(ctx, conn)
	})
	if err != nil {
		conn.ID = 0
		if errors.Is(err, sqlstore.ErrTxBroken) {
			return err
		}
		if reason == "" {
			reason = err.Error()
			b.logger.WithError(err).WithFields(logrus.Fields{"sheet": sheet, "row": rowNumber}).Warn("connection row skipped")
		}
		b.report.SkipConnection(sheet, rowNumber, reason)
		return nil
	}
	b.report.ConnectionsCreated++
	return nil
}

var errDuplicateConnection = errors.New("duplicate connection")

func (s *Service) createPlaceholder(ctx context.Context, b *batch, name string, counterpart *inventory.Device) (*inventory.Device, error) {
	station := PlaceholderStation
	if counterpart != nil && counterpart.Station != "" {
		station = counterpart.Station
	}
	device := &inventory.Device{
		AssetID: s.newID(),
		Name:    name,
		Station: station,
		Remark:  PlaceholderRemark,
	}
	if err := b.tx.Devices.Save(ctx, device); err != nil {
		return nil, fmt.Errorf("create placeholder %s: %w", name, err)
	}
	b.logger.WithFields(logrus.Fields{"asset_id": device.AssetID, "device_id": device.ID}).Info("placeholder device created")
	return device, nil
}

// connectionFromRow reads the rich connection columns. Endpoints are
// resolved later.
func connectionFromRow(row importer.Row) (inventory.Connection, error) {
	conn := inventory.Connection{
		SourceFuseNumber:     row.Value(importer.ColSourceFuseNumber),
		SourceFuseSpec:       row.Value(importer.ColSourceFuseSpec),
		SourceBreakerNumber:  row.Value(importer.ColSourceBreakerNumber),
		SourceBreakerSpec:    row.Value(importer.ColSourceBreakerSpec),
		TargetFuseNumber:     row.Value(importer.ColTargetFuseNumber),
		TargetFuseSpec:       row.Value(importer.ColTargetFuseSpec),
		TargetBreakerNumber:  row.Value(importer.ColTargetBreakerNumber),
		TargetBreakerSpec:    row.Value(importer.ColTargetBreakerSpec),
		TargetDeviceLocation: row.Value(importer.ColTargetLocation),
		HierarchyRelation:    row.Value(importer.ColHierarchy),
		UpstreamDownstream:   row.Value(importer.ColUpstreamDownstream),
		ConnectionType:       inventory.ConnectionTypeFromLabel(row.Value(importer.ColConnectionType)),
		CableModel:           row.Value(importer.ColCableModel),
		CableSpecification:   row.Value(importer.ColCableSpec),
		SourceDevicePhoto:    row.Value(importer.ColSourcePhoto),
		TargetDevicePhoto:    row.Value(importer.ColTargetPhoto),
		Remark:               row.Value(importer.ColConnectionRemark),
		ParallelCount:        1,
	}
	conn.SourcePort = inventory.PortDescriptor(conn.SourceFuseNumber, conn.SourceFuseSpec, conn.SourceBreakerNumber, conn.SourceBreakerSpec)
	conn.TargetPort = inventory.PortDescriptor(conn.TargetFuseNumber, conn.TargetFuseSpec, conn.TargetBreakerNumber, conn.TargetBreakerSpec)

	if raw := row.Value(importer.ColParallelCount); raw != "" {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || n < 1 || n != float64(int(n)) {
			return conn, fmt.Errorf("invalid parallel count %q", raw)
		}
		conn.ParallelCount = int(n)
	}
	var err error
	if conn.RatedCurrent, err = parseQuantity(row.Value(importer.ColRatedCurrent)); err != nil {
		return conn, fmt.Errorf("invalid rated current: %w", err)
	}
	if conn.CableLength, err = parseQuantity(row.Value(importer.ColCableLength)); err != nil {
		return conn, fmt.Errorf("invalid cable length: %w", err)
	}
	if raw := row.Value(importer.ColInstallationDate); raw != "" {
		date, ok := lifecycle.NormalizeDate(raw)
		if !ok {
			return conn, fmt.Errorf("invalid installation date %q", raw)
		}
		conn.InstallationDate = &date
	}
	return conn, nil
}

// parseQuantity reads an optional non-negative number, tolerating a
// trailing unit such as "A" or "m".
func parseQuantity(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(strings.TrimRightFunc(raw, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}))
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	if v < 0 {
		return nil, fmt.Errorf("%q is negative", raw)
	}
	return &v, nil
}
