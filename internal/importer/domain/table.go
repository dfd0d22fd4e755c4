package importer

import "strings"

// Row is one spreadsheet data row. Number is the 1-based row number a
// spreadsheet user sees; the header occupies row 1.
type Row struct {
	Number int
	Fields map[string]string
}

// RowNumber converts a zero-based data index into a spreadsheet row number.
func RowNumber(index int) int { return index + 2 }

// Raw returns the trimmed cell text.
func (r Row) Raw(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// Value returns the trimmed cell text, treating placeholder markers that
// spreadsheet tooling writes for missing values as empty.
func (r Row) Value(column string) string {
	value := r.Raw(column)
	if IsMissing(value) {
		return ""
	}
	return value
}

// IsMissing reports whether a cell value stands for "no value".
func IsMissing(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	switch strings.ToLower(value) {
	case "nan", "none":
		return true
	}
	return false
}

// Sheet is a named table with a header.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the header contains the column.
func (s Sheet) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Workbook is the import input: a device sheet and an optional
// connection sheet.
type Workbook struct {
	Devices     Sheet
	Connections *Sheet
}

// RowCount returns the number of data rows across sheets.
func (w Workbook) RowCount() int {
	n := len(w.Devices.Rows)
	if w.Connections != nil {
		n += len(w.Connections.Rows)
	}
	return n
}
