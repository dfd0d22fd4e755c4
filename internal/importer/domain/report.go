package importer

import (
	"errors"
	"fmt"
)

// Sheet labels used in diagnostics.
const (
	SheetDevices     = "devices"
	SheetLinks       = "links"
	SheetConnections = "connections"
)

var (
	// ErrMissingColumns indicates the device sheet lacks required columns.
	ErrMissingColumns = errors.New("import: missing required columns")
	// ErrTooManyRows indicates the workbook exceeds the configured bound.
	ErrTooManyRows = errors.New("import: too many rows")
)

// Diagnostic explains why a row was skipped.
type Diagnostic struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report summarizes an import batch.
type Report struct {
	BatchID             string       `json:"batch_id"`
	DevicesCreated      int          `json:"devices_created"`
	DevicesUpdated      int          `json:"devices_updated"`
	DevicesSkipped      int          `json:"devices_skipped"`
	ConnectionsCreated  int          `json:"connections_created"`
	ConnectionsSkipped  int          `json:"connections_skipped"`
	ConnectionsRemoved  int64        `json:"connections_removed"`
	PlaceholdersCreated int          `json:"placeholders_created"`
	Diagnostics         []Diagnostic `json:"diagnostics"`
}

// SkipDevice records a skipped device row.
func (r *Report) SkipDevice(row int, reason string) {
	r.DevicesSkipped++
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Sheet: SheetDevices, Row: row, Reason: reason})
}

// SkipConnection records a skipped connection row from either sheet.
func (r *Report) SkipConnection(sheet string, row int, reason string) {
	r.ConnectionsSkipped++
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Sheet: sheet, Row: row, Reason: reason})
}

// BatchError is a failure that aborted the whole batch. Nothing from the
// batch was persisted.
type BatchError struct {
	Cause error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("import batch rolled back: %v", e.Cause)
}

func (e *BatchError) Unwrap() error { return e.Cause }
