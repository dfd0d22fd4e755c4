package application

import (
	"context"
	"errors"
	"fmt"

	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
)

// ConnectionService provides explicit connection commands.
type ConnectionService struct {
	store    *sqlstore.Store
	onChange ChangeHook
}

// NewConnectionService constructs a connection service.
func NewConnectionService(store *sqlstore.Store, onChange ChangeHook) (*ConnectionService, error) {
	if store == nil {
		return nil, errors.New("connection service: nil store")
	}
	return &ConnectionService{store: store, onChange: onChange}, nil
}

// Create stores a connection between two existing devices. An empty
// connection type records an idle port and is kept as such.
func (s *ConnectionService) Create(ctx context.Context, conn inventory.Connection) (*inventory.Connection, error) {
	if conn.ParallelCount == 0 {
		conn.ParallelCount = 1
	}
	if conn.SourceDeviceID == conn.TargetDeviceID {
		return nil, fmt.Errorf("%w: source and target must differ", inventory.ErrInvalidConnection)
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if conn.SourcePort == "" {
		conn.SourcePort = inventory.PortDescriptor(conn.SourceFuseNumber, conn.SourceFuseSpec, conn.SourceBreakerNumber, conn.SourceBreakerSpec)
	}
	if conn.TargetPort == "" {
		conn.TargetPort = inventory.PortDescriptor(conn.TargetFuseNumber, conn.TargetFuseSpec, conn.TargetBreakerNumber, conn.TargetBreakerSpec)
	}

	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		for _, id := range []int64{conn.SourceDeviceID, conn.TargetDeviceID} {
			device, err := tx.Devices.Get(ctx, id)
			if err != nil {
				return err
			}
			if device == nil {
				return fmt.Errorf("%w: device %d", inventory.ErrDeviceNotFound, id)
			}
		}
		return tx.Connections.Create(ctx, &conn)
	})
	if err != nil {
		return nil, err
	}
	if s.onChange != nil {
		s.onChange(ctx)
	}
	return &conn, nil
}

// Get loads a connection or returns ErrConnectionNotFound.
func (s *ConnectionService) Get(ctx context.Context, id int64) (*inventory.Connection, error) {
	conn, err := s.store.Connections().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, inventory.ErrConnectionNotFound
	}
	return conn, nil
}

// ListForDevice returns every connection touching the device.
func (s *ConnectionService) ListForDevice(ctx context.Context, deviceID int64) ([]inventory.Connection, error) {
	return s.store.Connections().ListTouching(ctx, deviceID)
}

// List returns every connection.
func (s *ConnectionService) List(ctx context.Context) ([]inventory.Connection, error) {
	return s.store.Connections().ListAll(ctx)
}

// Delete removes a connection.
func (s *ConnectionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Connections().Delete(ctx, id); err != nil {
		return err
	}
	if s.onChange != nil {
		s.onChange(ctx)
	}
	return nil
}
