package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	inventory "power-assets/internal/inventory/domain"
)

const defaultDevicesTable = "devices"

const deviceColumns = `id, asset_id, name, station, device_type, model, location, power_rating, vendor, commission_date, remark, created_at, updated_at`

// DeviceRepository is a SQL implementation for devices.
type DeviceRepository struct {
	db    DBTX
	table string
	now   func() time.Time
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDeviceTable overrides the default table name.
func WithDeviceTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithDeviceClock overrides the timestamp source.
func WithDeviceClock(now func() time.Time) DeviceOption {
	return func(repo *DeviceRepository) {
		if now != nil {
			repo.now = now
		}
	}
}

// Get loads a device by id.
func (r *DeviceRepository) Get(ctx context.Context, id int64) (*inventory.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, deviceColumns, r.table)
	return r.queryOne(ctx, query, id)
}

// GetByAssetID loads a device by its external identifier.
func (r *DeviceRepository) GetByAssetID(ctx context.Context, assetID string) (*inventory.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if assetID == "" {
		return nil, errors.New("device repo: empty asset id")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE asset_id = $1`, deviceColumns, r.table)
	return r.queryOne(ctx, query, assetID)
}

// FindByName returns the oldest device carrying the display name.
func (r *DeviceRepository) FindByName(ctx context.Context, name string) (*inventory.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if name == "" {
		return nil, errors.New("device repo: empty name")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE name = $1 ORDER BY id ASC LIMIT 1`, deviceColumns, r.table)
	return r.queryOne(ctx, query, name)
}

// List loads devices matching the filter ordered by id.
func (r *DeviceRepository) List(ctx context.Context, filter inventory.DeviceFilter) ([]inventory.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("station", filter.Station)
	add("device_type", filter.DeviceType)
	add("vendor", filter.Vendor)

	query := fmt.Sprintf(`SELECT %s FROM %s`, deviceColumns, r.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []inventory.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Facets lists the distinct non-empty stations, types and vendors.
func (r *DeviceRepository) Facets(ctx context.Context) (inventory.DeviceFacets, error) {
	var facets inventory.DeviceFacets
	if r == nil || r.db == nil {
		return facets, errors.New("device repo: nil db")
	}
	var err error
	if facets.Stations, err = r.distinct(ctx, "station"); err != nil {
		return facets, err
	}
	if facets.DeviceTypes, err = r.distinct(ctx, "device_type"); err != nil {
		return facets, err
	}
	if facets.Vendors, err = r.distinct(ctx, "vendor"); err != nil {
		return facets, err
	}
	return facets, nil
}

// Count returns the number of stored devices.
func (r *DeviceRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("device repo: nil db")
	}
	var count int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)).Scan(&count)
	return count, err
}

// Save inserts or updates a device. A device without an id is upserted by
// asset id; a device with an id is updated in place, asset id included.
// Every mutable column is overwritten, blanks become NULL.
func (r *DeviceRepository) Save(ctx context.Context, device *inventory.Device) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if device == nil {
		return errors.New("device repo: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}
	now := r.now()

	if device.ID > 0 {
		query := fmt.Sprintf(`
UPDATE %s SET
	asset_id = $1,
	name = $2,
	station = $3,
	device_type = $4,
	model = $5,
	location = $6,
	power_rating = $7,
	vendor = $8,
	commission_date = $9,
	remark = $10,
	updated_at = $11
WHERE id = $12`, r.table)
		res, err := r.db.ExecContext(ctx, query,
			device.AssetID,
			device.Name,
			device.Station,
			nullString(device.DeviceType),
			nullString(device.Model),
			nullString(device.Location),
			nullString(device.PowerRating),
			nullString(device.Vendor),
			nullString(device.CommissionDate),
			nullString(device.Remark),
			now,
			device.ID,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return inventory.ErrDeviceNotFound
		}
		device.UpdatedAt = now
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	asset_id,
	name,
	station,
	device_type,
	model,
	location,
	power_rating,
	vendor,
	commission_date,
	remark,
	created_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
ON CONFLICT (asset_id)
DO UPDATE SET
	name = EXCLUDED.name,
	station = EXCLUDED.station,
	device_type = EXCLUDED.device_type,
	model = EXCLUDED.model,
	location = EXCLUDED.location,
	power_rating = EXCLUDED.power_rating,
	vendor = EXCLUDED.vendor,
	commission_date = EXCLUDED.commission_date,
	remark = EXCLUDED.remark,
	updated_at = EXCLUDED.updated_at
RETURNING id`, r.table)

	if err := r.db.QueryRowContext(ctx, query,
		device.AssetID,
		device.Name,
		device.Station,
		nullString(device.DeviceType),
		nullString(device.Model),
		nullString(device.Location),
		nullString(device.PowerRating),
		nullString(device.Vendor),
		nullString(device.CommissionDate),
		nullString(device.Remark),
		now,
		now,
	).Scan(&device.ID); err != nil {
		return err
	}
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now
	return nil
}

// Delete removes a device row. Callers remove its connections first.
func (r *DeviceRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inventory.ErrDeviceNotFound
	}
	return nil
}

func (r *DeviceRepository) queryOne(ctx context.Context, query string, args ...any) (*inventory.Device, error) {
	device, err := scanDevice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return device, nil
}

func (r *DeviceRepository) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
SELECT DISTINCT %[1]s FROM %[2]s
WHERE %[1]s IS NOT NULL AND %[1]s <> ''
ORDER BY %[1]s ASC`, column, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*inventory.Device, error) {
	var (
		device                                                       inventory.Device
		deviceType, model, location, rating, vendor, commission, rem sql.NullString
	)
	if err := row.Scan(
		&device.ID,
		&device.AssetID,
		&device.Name,
		&device.Station,
		&deviceType,
		&model,
		&location,
		&rating,
		&vendor,
		&commission,
		&rem,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		return nil, err
	}
	device.DeviceType = deviceType.String
	device.Model = model.String
	device.Location = location.String
	device.PowerRating = rating.String
	device.Vendor = vendor.String
	device.CommissionDate = commission.String
	device.Remark = rem.String
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return &device, nil
}
