package application

import (
	"context"
	"errors"
	"strings"

	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
)

// ChangeHook is notified after the device graph was mutated.
type ChangeHook func(ctx context.Context)

// DeviceService provides device commands and queries.
type DeviceService struct {
	store    *sqlstore.Store
	onChange ChangeHook
}

// DeviceServiceOption configures the service.
type DeviceServiceOption func(*DeviceService)

// WithDeviceChangeHook registers a hook run after successful mutations.
func WithDeviceChangeHook(hook ChangeHook) DeviceServiceOption {
	return func(s *DeviceService) {
		s.onChange = hook
	}
}

// NewDeviceService constructs a device service.
func NewDeviceService(store *sqlstore.Store, opts ...DeviceServiceOption) (*DeviceService, error) {
	if store == nil {
		return nil, errors.New("device service: nil store")
	}
	s := &DeviceService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create adds a device. The asset id must not be in use.
func (s *DeviceService) Create(ctx context.Context, input inventory.Device) (*inventory.Device, error) {
	device := trimDevice(input)
	device.ID = 0
	if err := device.Validate(); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		existing, err := tx.Devices.GetByAssetID(ctx, device.AssetID)
		if err != nil {
			return err
		}
		if existing != nil {
			return inventory.ErrAssetIDTaken
		}
		return tx.Devices.Save(ctx, &device)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &device, nil
}

// Update overwrites every mutable field of a device. Blank optional
// fields are cleared.
func (s *DeviceService) Update(ctx context.Context, id int64, input inventory.Device) (*inventory.Device, error) {
	device := trimDevice(input)
	device.ID = id
	if err := device.Validate(); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		current, err := tx.Devices.Get(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return inventory.ErrDeviceNotFound
		}
		owner, err := tx.Devices.GetByAssetID(ctx, device.AssetID)
		if err != nil {
			return err
		}
		if owner != nil && owner.ID != id {
			return inventory.ErrAssetIDTaken
		}
		device.CreatedAt = current.CreatedAt
		return tx.Devices.Save(ctx, &device)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return &device, nil
}

// Delete removes a device together with every connection touching it and
// returns the number of connections removed.
func (s *DeviceService) Delete(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		current, err := tx.Devices.Get(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return inventory.ErrDeviceNotFound
		}
		removed, err = tx.Connections.DeleteTouching(ctx, []int64{id})
		if err != nil {
			return err
		}
		return tx.Devices.Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	s.changed(ctx)
	return removed, nil
}

// Get loads a device or returns ErrDeviceNotFound.
func (s *DeviceService) Get(ctx context.Context, id int64) (*inventory.Device, error) {
	device, err := s.store.Devices().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, inventory.ErrDeviceNotFound
	}
	return device, nil
}

// List returns devices matching the filter.
func (s *DeviceService) List(ctx context.Context, filter inventory.DeviceFilter) ([]inventory.Device, error) {
	return s.store.Devices().List(ctx, filter)
}

// Facets returns the distinct filter values.
func (s *DeviceService) Facets(ctx context.Context) (inventory.DeviceFacets, error) {
	return s.store.Devices().Facets(ctx)
}

func (s *DeviceService) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func trimDevice(d inventory.Device) inventory.Device {
	d.AssetID = strings.TrimSpace(d.AssetID)
	d.Name = strings.TrimSpace(d.Name)
	d.Station = strings.TrimSpace(d.Station)
	d.DeviceType = strings.TrimSpace(d.DeviceType)
	d.Model = strings.TrimSpace(d.Model)
	d.Location = strings.TrimSpace(d.Location)
	d.PowerRating = strings.TrimSpace(d.PowerRating)
	d.Vendor = strings.TrimSpace(d.Vendor)
	d.CommissionDate = strings.TrimSpace(d.CommissionDate)
	d.Remark = strings.TrimSpace(d.Remark)
	return d
}
