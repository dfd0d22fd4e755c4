package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	lifecycleapp "power-assets/internal/lifecycle/application"
)

// PDFOptions configures PDF rendering. Without a UTF-8 font file only
// the Latin columns are printed; core PDF fonts cannot draw CJK text.
type PDFOptions struct {
	FontFile string
}

const utf8Font = "report"

type pdfColumn struct {
	title string
	width float64
	align string
	value func(d lifecycleapp.DeviceStatus) string
}

var latinColumns = []pdfColumn{
	{"Asset ID", 32, "L", func(d lifecycleapp.DeviceStatus) string { return d.AssetID }},
	{"Status", 22, "C", func(d lifecycleapp.DeviceStatus) string { return string(d.Status) }},
	{"Commissioned", 28, "C", func(d lifecycleapp.DeviceStatus) string {
		if d.Classification.CommissionDate == nil {
			return "-"
		}
		return d.Classification.CommissionDate.Format("2006-01-02")
	}},
	{"Years", 16, "R", func(d lifecycleapp.DeviceStatus) string { return optionalInt(d, d.LifecycleYears) }},
	{"In service", 24, "R", func(d lifecycleapp.DeviceStatus) string { return optionalInt(d, d.DaysInService) }},
	{"Remaining", 24, "R", func(d lifecycleapp.DeviceStatus) string { return optionalInt(d, d.RemainingDays) }},
}

var localizedColumns = []pdfColumn{
	{"名称", 40, "L", func(d lifecycleapp.DeviceStatus) string { return d.Name }},
	{"局站", 30, "L", func(d lifecycleapp.DeviceStatus) string { return d.Station }},
	{"说明", 50, "L", func(d lifecycleapp.DeviceStatus) string { return d.Reason }},
}

func optionalInt(d lifecycleapp.DeviceStatus, v int) string {
	if d.Classification.CommissionDate == nil {
		return "-"
	}
	return strconv.Itoa(v)
}

// BuildLifecyclePDF renders a lifecycle report.
func BuildLifecyclePDF(report *lifecycleapp.Report, opts PDFOptions) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("export: nil report")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	font := "Arial"
	columns := latinColumns
	if opts.FontFile != "" {
		pdf.AddUTF8Font(utf8Font, "", opts.FontFile)
		font = utf8Font
		columns = append(append([]pdfColumn{}, latinColumns...), localizedColumns...)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("export: font: %w", err)
	}
	pdf.SetFont(font, "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Device Lifecycle Report")
	pdf.Ln(10)
	pdf.SetFont(font, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	st := report.Statistics
	pdf.Cell(0, 6, fmt.Sprintf("Total: %d  Normal: %d  Warning: %d  Expired: %d  Unknown: %d",
		st.Total, st.Normal, st.Warning, st.Expired, st.Unknown))
	pdf.Ln(8)

	for _, col := range columns {
		pdf.CellFormat(col.width, 6, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	for _, d := range report.Devices {
		for _, col := range columns {
			pdf.CellFormat(col.width, 6, col.value(d), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
