package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Device is a tracked piece of power infrastructure.
// Optional text fields use the empty string for "absent".
type Device struct {
	ID             int64
	AssetID        string
	Name           string
	Station        string
	DeviceType     string
	Model          string
	Location       string
	PowerRating    string
	Vendor         string
	CommissionDate string
	Remark         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks device invariants.
func (d Device) Validate() error {
	if strings.TrimSpace(d.AssetID) == "" {
		return fmt.Errorf("%w: empty asset id", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.Station) == "" {
		return fmt.Errorf("%w: empty station", ErrInvalidDevice)
	}
	return nil
}

// Overwrite replaces every mutable field with the values from src.
// Identity and timestamps are kept.
func (d *Device) Overwrite(src Device) {
	d.Name = src.Name
	d.Station = src.Station
	d.DeviceType = src.DeviceType
	d.Model = src.Model
	d.Location = src.Location
	d.PowerRating = src.PowerRating
	d.Vendor = src.Vendor
	d.CommissionDate = src.CommissionDate
	d.Remark = src.Remark
}

// DeviceFilter narrows device listings. Empty fields match everything.
type DeviceFilter struct {
	Station    string
	DeviceType string
	Vendor     string
}

// DeviceFacets lists distinct values used to build filter menus.
type DeviceFacets struct {
	Stations    []string `json:"stations"`
	DeviceTypes []string `json:"device_types"`
	Vendors     []string `json:"vendors"`
}

// DeviceRepository manages device persistence.
type DeviceRepository interface {
	Get(ctx context.Context, id int64) (*Device, error)
	GetByAssetID(ctx context.Context, assetID string) (*Device, error)
	FindByName(ctx context.Context, name string) (*Device, error)
	List(ctx context.Context, filter DeviceFilter) ([]Device, error)
	Save(ctx context.Context, device *Device) error
	Delete(ctx context.Context, id int64) error
}
