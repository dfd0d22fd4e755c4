package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ConnectionType is the physical medium of a connection.
// The zero value marks an idle port with no live counterpart.
type ConnectionType string

const (
	ConnectionIdle   ConnectionType = ""
	ConnectionCable  ConnectionType = "cable"
	ConnectionBusbar ConnectionType = "busbar"
	ConnectionBusway ConnectionType = "busway"
)

// ParseConnectionType accepts canonical values only.
func ParseConnectionType(value string) (ConnectionType, bool) {
	switch ConnectionType(strings.ToLower(strings.TrimSpace(value))) {
	case ConnectionCable:
		return ConnectionCable, true
	case ConnectionBusbar:
		return ConnectionBusbar, true
	case ConnectionBusway:
		return ConnectionBusway, true
	case ConnectionIdle:
		return ConnectionIdle, true
	}
	return "", false
}

var connectionTypeLabels = map[string]ConnectionType{
	"电缆":     ConnectionCable,
	"铜排":     ConnectionBusbar,
	"母线":     ConnectionBusway,
	"cable":  ConnectionCable,
	"busbar": ConnectionBusbar,
	"busway": ConnectionBusway,
}

// ConnectionTypeFromLabel translates a localized label. Unmapped or empty
// labels fall back to cable; callers must only use it for live edges.
func ConnectionTypeFromLabel(label string) ConnectionType {
	if t, ok := connectionTypeLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	return ConnectionCable
}

// Connection is a directed electrical link between two devices.
type Connection struct {
	ID                   int64
	SourceDeviceID       int64
	TargetDeviceID       int64
	SourcePort           string
	TargetPort           string
	SourceFuseNumber     string
	SourceFuseSpec       string
	SourceBreakerNumber  string
	SourceBreakerSpec    string
	TargetFuseNumber     string
	TargetFuseSpec       string
	TargetBreakerNumber  string
	TargetBreakerSpec    string
	TargetDeviceLocation string
	HierarchyRelation    string
	UpstreamDownstream   string
	ConnectionType       ConnectionType
	CableType            string
	CableModel           string
	CableSpecification   string
	ParallelCount        int
	RatedCurrent         *float64
	CableLength          *float64
	SourceDevicePhoto    string
	TargetDevicePhoto    string
	Remark               string
	InstallationDate     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks connection invariants.
func (c Connection) Validate() error {
	if c.SourceDeviceID <= 0 || c.TargetDeviceID <= 0 {
		return fmt.Errorf("%w: both endpoints are required", ErrInvalidConnection)
	}
	if _, ok := ParseConnectionType(string(c.ConnectionType)); !ok {
		return fmt.Errorf("%w: unknown connection type %q", ErrInvalidConnection, c.ConnectionType)
	}
	if c.ParallelCount < 1 {
		return fmt.Errorf("%w: parallel count must be at least 1", ErrInvalidConnection)
	}
	if c.RatedCurrent != nil && *c.RatedCurrent < 0 {
		return fmt.Errorf("%w: negative rated current", ErrInvalidConnection)
	}
	if c.CableLength != nil && *c.CableLength < 0 {
		return fmt.Errorf("%w: negative cable length", ErrInvalidConnection)
	}
	return nil
}

// Label is the display text of the edge in a power chain.
func (c Connection) Label() string {
	if c.CableType != "" {
		return c.CableType
	}
	if c.CableModel != "" {
		return c.CableModel
	}
	return string(c.ConnectionType)
}

// PortDescriptor formats a port preferring the fuse over the breaker.
// It yields "<number> (<spec>)" or the bare number when no spec is set.
func PortDescriptor(fuseNumber, fuseSpec, breakerNumber, breakerSpec string) string {
	number, spec := strings.TrimSpace(fuseNumber), strings.TrimSpace(fuseSpec)
	if number == "" {
		number, spec = strings.TrimSpace(breakerNumber), strings.TrimSpace(breakerSpec)
	}
	if number == "" {
		return ""
	}
	if spec == "" {
		return number
	}
	return number + " (" + spec + ")"
}

// ConnectionRepository manages connection persistence.
type ConnectionRepository interface {
	Get(ctx context.Context, id int64) (*Connection, error)
	ListBySource(ctx context.Context, deviceID int64) ([]Connection, error)
	ListByTarget(ctx context.Context, deviceID int64) ([]Connection, error)
	Create(ctx context.Context, conn *Connection) error
	Exists(ctx context.Context, sourceID, targetID int64, sourcePort, targetPort string) (bool, error)
	Delete(ctx context.Context, id int64) error
	DeleteTouching(ctx context.Context, deviceIDs []int64) (int64, error)
}
