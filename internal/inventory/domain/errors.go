package inventory

import "errors"

var (
	// ErrDeviceNotFound indicates the device does not exist.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrAssetIDTaken indicates another device already owns the asset id.
	ErrAssetIDTaken = errors.New("asset id already exists")
	// ErrConnectionNotFound indicates the connection does not exist.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrInvalidConnection indicates a connection payload failed validation.
	ErrInvalidConnection = errors.New("invalid connection")
	// ErrInvalidDevice indicates a device payload failed validation.
	ErrInvalidDevice = errors.New("invalid device")
)
