package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	inventory "power-assets/internal/inventory/domain"
)

const defaultConnectionsTable = "connections"

// deleteChunk bounds the number of ids bound into one IN list.
const deleteChunk = 400

const connectionColumns = `id, source_device_id, target_device_id, source_port, target_port,
	source_fuse_number, source_fuse_spec, source_breaker_number, source_breaker_spec,
	target_fuse_number, target_fuse_spec, target_breaker_number, target_breaker_spec,
	target_device_location, hierarchy_relation, upstream_downstream, connection_type,
	cable_type, cable_model, cable_specification, parallel_count, rated_current, cable_length,
	source_device_photo, target_device_photo, remark, installation_date, created_at, updated_at`

// ConnectionRepository is a SQL implementation for connections.
type ConnectionRepository struct {
	db    DBTX
	table string
	now   func() time.Time
}

// NewConnectionRepository constructs a repository.
func NewConnectionRepository(db DBTX, opts ...ConnectionOption) *ConnectionRepository {
	repo := &ConnectionRepository{db: db, table: defaultConnectionsTable, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ConnectionOption configures the repository.
type ConnectionOption func(*ConnectionRepository)

// WithConnectionTable overrides the default table name.
func WithConnectionTable(table string) ConnectionOption {
	return func(repo *ConnectionRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithConnectionClock overrides the timestamp source.
func WithConnectionClock(now func() time.Time) ConnectionOption {
	return func(repo *ConnectionRepository) {
		if now != nil {
			repo.now = now
		}
	}
}

// Get loads a connection by id.
func (r *ConnectionRepository) Get(ctx context.Context, id int64) (*inventory.Connection, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("connection repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, connectionColumns, r.table)
	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return conn, nil
}

// ListBySource loads connections leaving the device.
func (r *ConnectionRepository) ListBySource(ctx context.Context, deviceID int64) ([]inventory.Connection, error) {
	return r.list(ctx, "source_device_id", deviceID)
}

// ListByTarget loads connections entering the device.
func (r *ConnectionRepository) ListByTarget(ctx context.Context, deviceID int64) ([]inventory.Connection, error) {
	return r.list(ctx, "target_device_id", deviceID)
}

// ListTouching loads connections where the device is either endpoint.
func (r *ConnectionRepository) ListTouching(ctx context.Context, deviceID int64) ([]inventory.Connection, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("connection repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE source_device_id = $1 OR target_device_id = $2 ORDER BY id ASC`, connectionColumns, r.table)
	return r.collect(ctx, query, deviceID, deviceID)
}

// ListAll loads every connection ordered by id.
func (r *ConnectionRepository) ListAll(ctx context.Context) ([]inventory.Connection, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("connection repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id ASC`, connectionColumns, r.table)
	return r.collect(ctx, query)
}

// Count returns the number of stored connections.
func (r *ConnectionRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("connection repo: nil db")
	}
	var count int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)).Scan(&count)
	return count, err
}

// Create inserts a connection and assigns its id.
func (r *ConnectionRepository) Create(ctx context.Context, conn *inventory.Connection) error {
	if r == nil || r.db == nil {
		return errors.New("connection repo: nil db")
	}
	if conn == nil {
		return errors.New("connection repo: nil connection")
	}
	if err := conn.Validate(); err != nil {
		return err
	}
	now := r.now()

	query := fmt.Sprintf(`
INSERT INTO %s (
	source_device_id, target_device_id, source_port, target_port,
	source_fuse_number, source_fuse_spec, source_breaker_number, source_breaker_spec,
	target_fuse_number, target_fuse_spec, target_breaker_number, target_breaker_spec,
	target_device_location, hierarchy_relation, upstream_downstream, connection_type,
	cable_type, cable_model, cable_specification, parallel_count, rated_current, cable_length,
	source_device_photo, target_device_photo, remark, installation_date, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
)
RETURNING id`, r.table)

	if err := r.db.QueryRowContext(ctx, query,
		conn.SourceDeviceID,
		conn.TargetDeviceID,
		nullString(conn.SourcePort),
		nullString(conn.TargetPort),
		nullString(conn.SourceFuseNumber),
		nullString(conn.SourceFuseSpec),
		nullString(conn.SourceBreakerNumber),
		nullString(conn.SourceBreakerSpec),
		nullString(conn.TargetFuseNumber),
		nullString(conn.TargetFuseSpec),
		nullString(conn.TargetBreakerNumber),
		nullString(conn.TargetBreakerSpec),
		nullString(conn.TargetDeviceLocation),
		nullString(conn.HierarchyRelation),
		nullString(conn.UpstreamDownstream),
		nullString(string(conn.ConnectionType)),
		nullString(conn.CableType),
		nullString(conn.CableModel),
		nullString(conn.CableSpecification),
		conn.ParallelCount,
		nullFloat(conn.RatedCurrent),
		nullFloat(conn.CableLength),
		nullString(conn.SourceDevicePhoto),
		nullString(conn.TargetDevicePhoto),
		nullString(conn.Remark),
		nullDate(conn.InstallationDate),
		now,
		now,
	).Scan(&conn.ID); err != nil {
		return err
	}
	conn.CreatedAt = now
	conn.UpdatedAt = now
	return nil
}

// Exists reports whether an identical endpoint/port tuple is stored.
func (r *ConnectionRepository) Exists(ctx context.Context, sourceID, targetID int64, sourcePort, targetPort string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("connection repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT COUNT(*) FROM %s
WHERE source_device_id = $1
	AND target_device_id = $2
	AND COALESCE(source_port, '') = $3
	AND COALESCE(target_port, '') = $4`, r.table)
	var count int64
	if err := r.db.QueryRowContext(ctx, query, sourceID, targetID, sourcePort, targetPort).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a connection by id.
func (r *ConnectionRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("connection repo: nil db")
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
		return inventory.ErrConnectionNotFound
	}
	return nil
}

// DeleteTouching removes every connection whose source or target is in
// deviceIDs and returns the number of rows removed.
func (r *ConnectionRepository) DeleteTouching(ctx context.Context, deviceIDs []int64) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("connection repo: nil db")
	}
	var total int64
	for start := 0; start < len(deviceIDs); start += deleteChunk {
		end := start + deleteChunk
		if end > len(deviceIDs) {
			end = len(deviceIDs)
		}
		chunk := deviceIDs[start:end]
		args := make([]any, 0, 2*len(chunk))
		for _, id := range chunk {
			args = append(args, id)
		}
		for _, id := range chunk {
			args = append(args, id)
		}
		query := fmt.Sprintf(`DELETE FROM %s WHERE source_device_id IN (%s) OR target_device_id IN (%s)`,
			r.table, placeholders(1, len(chunk)), placeholders(len(chunk)+1, len(chunk)))
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
	}
	return total, nil
}

func (r *ConnectionRepository) list(ctx context.Context, column string, deviceID int64) ([]inventory.Connection, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("connection repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY id ASC`, connectionColumns, r.table, column)
	return r.collect(ctx, query, deviceID)
}

func (r *ConnectionRepository) collect(ctx context.Context, query string, args ...any) ([]inventory.Connection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []inventory.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanConnection(row rowScanner) (*inventory.Connection, error) {
	var (
		conn                                         inventory.Connection
		sourcePort, targetPort                       sql.NullString
		sFuseNo, sFuseSpec, sBreakerNo, sBreakerSpec sql.NullString
		tFuseNo, tFuseSpec, tBreakerNo, tBreakerSpec sql.NullString
		targetLocation, hierarchy, upDown, connType  sql.NullString
		cableType, cableModel, cableSpec             sql.NullString
		ratedCurrent, cableLength                    sql.NullFloat64
		sourcePhoto, targetPhoto, remark             sql.NullString
		installation                                 sql.NullTime
	)
	if err := row.Scan(
		&conn.ID,
		&conn.SourceDeviceID,
		&conn.TargetDeviceID,
		&sourcePort,
		&targetPort,
		&sFuseNo,
		&sFuseSpec,
		&sBreakerNo,
		&sBreakerSpec,
		&tFuseNo,
		&tFuseSpec,
		&tBreakerNo,
		&tBreakerSpec,
		&targetLocation,
		&hierarchy,
		&upDown,
		&connType,
		&cableType,
		&cableModel,
		&cableSpec,
		&conn.ParallelCount,
		&ratedCurrent,
		&cableLength,
		&sourcePhoto,
		&targetPhoto,
		&remark,
		&installation,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	); err != nil {
		return nil, err
	}
	conn.SourcePort = sourcePort.String
	conn.TargetPort = targetPort.String
	conn.SourceFuseNumber = sFuseNo.String
	conn.SourceFuseSpec = sFuseSpec.String
	conn.SourceBreakerNumber = sBreakerNo.String
	conn.SourceBreakerSpec = sBreakerSpec.String
	conn.TargetFuseNumber = tFuseNo.String
	conn.TargetFuseSpec = tFuseSpec.String
	conn.TargetBreakerNumber = tBreakerNo.String
	conn.TargetBreakerSpec = tBreakerSpec.String
	conn.TargetDeviceLocation = targetLocation.String
	conn.HierarchyRelation = hierarchy.String
	conn.UpstreamDownstream = upDown.String
	conn.ConnectionType = inventory.ConnectionType(connType.String)
	conn.CableType = cableType.String
	conn.CableModel = cableModel.String
	conn.CableSpecification = cableSpec.String
	conn.RatedCurrent = floatPtr(ratedCurrent)
	conn.CableLength = floatPtr(cableLength)
	conn.SourceDevicePhoto = sourcePhoto.String
	conn.TargetDevicePhoto = targetPhoto.String
	conn.Remark = remark.String
	conn.InstallationDate = timePtr(installation)
	conn.CreatedAt = conn.CreatedAt.UTC()
	conn.UpdatedAt = conn.UpdatedAt.UTC()
	return &conn, nil
}
