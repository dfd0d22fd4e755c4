package xlsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	importer "power-assets/internal/importer/domain"
)

// ErrEmptyWorkbook indicates a workbook without a usable device sheet.
var ErrEmptyWorkbook = errors.New("xlsx: workbook has no device sheet")

// ReadFile opens a workbook from disk.
func ReadFile(path string) (importer.Workbook, error) {
	fh, err := os.Open(path)
	if err != nil {
		return importer.Workbook{}, fmt.Errorf("xlsx: open %s: %w", path, err)
	}
	defer fh.Close()
	return Read(fh)
}

// Read parses a workbook. The first sheet holds devices; a sheet named
// importer.ConnectionSheetName, when present, holds rich connections.
func Read(r io.Reader) (importer.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return importer.Workbook{}, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return importer.Workbook{}, ErrEmptyWorkbook
	}
	devices, err := readSheet(f, names[0])
	if err != nil {
		return importer.Workbook{}, err
	}
	if len(devices.Columns) == 0 {
		return importer.Workbook{}, ErrEmptyWorkbook
	}
	wb := importer.Workbook{Devices: devices}
	for _, name := range names[1:] {
		if strings.TrimSpace(name) != importer.ConnectionSheetName {
			continue
		}
		conns, err := readSheet(f, name)
		if err != nil {
			return importer.Workbook{}, err
		}
		wb.Connections = &conns
		break
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string) (importer.Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return importer.Sheet{}, fmt.Errorf("xlsx: read sheet %s: %w", name, err)
	}
	sheet := importer.Sheet{Name: name}
	if len(rows) == 0 {
		return sheet, nil
	}
	for _, cell := range rows[0] {
		sheet.Columns = append(sheet.Columns, strings.TrimSpace(cell))
	}
	for i, cells := range rows[1:] {
		fields := make(map[string]string, len(sheet.Columns))
		blank := true
		for c, column := range sheet.Columns {
			if column == "" || c >= len(cells) {
				continue
			}
			value := normalizeCell(column, cells[c])
			if value != "" {
				blank = false
			}
			fields[column] = value
		}
		if blank {
			continue
		}
		sheet.Rows = append(sheet.Rows, importer.Row{Number: importer.RowNumber(i), Fields: fields})
	}
	return sheet, nil
}

// normalizeCell trims the cell, maps missing-value markers to "" and
// renders date serials in date columns as ISO dates. Year (2019) and
// year-month (201905) numbers are left as typed.
func normalizeCell(column, raw string) string {
	value := strings.TrimSpace(raw)
	if importer.IsMissing(value) {
		return ""
	}
	if _, ok := importer.DateColumns[column]; !ok {
		return integralText(value)
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < 10000 || serial >= 100000 {
		return integralText(value)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}

// integralText drops a ".0" suffix that numeric cells acquire.
func integralText(value string) string {
	if strings.HasSuffix(value, ".0") {
		if _, err := strconv.Atoi(strings.TrimSuffix(value, ".0")); err == nil {
			return strings.TrimSuffix(value, ".0")
		}
	}
	return value
}
