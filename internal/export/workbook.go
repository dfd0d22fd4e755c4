package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	importer "power-assets/internal/importer/domain"
	inventory "power-assets/internal/inventory/domain"
)

const deviceSheet = "设备"

var deviceHeader = []string{
	importer.ColAssetID,
	importer.ColName,
	importer.ColStation,
	importer.ColDeviceType,
	importer.ColModel,
	importer.ColLocation,
	importer.ColPowerRating,
	importer.ColVendor,
	importer.ColCommissionDate,
	importer.ColRemark,
}

var connectionHeader = []string{
	importer.ColSourceName,
	importer.ColTargetName,
	importer.ColSourceFuseNumber,
	importer.ColSourceFuseSpec,
	importer.ColSourceBreakerNumber,
	importer.ColSourceBreakerSpec,
	importer.ColTargetFuseNumber,
	importer.ColTargetFuseSpec,
	importer.ColTargetBreakerNumber,
	importer.ColTargetBreakerSpec,
	importer.ColTargetLocation,
	importer.ColHierarchy,
	importer.ColUpstreamDownstream,
	importer.ColConnectionType,
	importer.ColCableModel,
	importer.ColCableSpec,
	importer.ColParallelCount,
	importer.ColRatedCurrent,
	importer.ColCableLength,
	importer.ColSourcePhoto,
	importer.ColTargetPhoto,
	importer.ColConnectionRemark,
	importer.ColInstallationDate,
}

var connectionTypeLabel = map[inventory.ConnectionType]string{
	inventory.ConnectionCable:  "电缆",
	inventory.ConnectionBusbar: "铜排",
	inventory.ConnectionBusway: "母线",
}

// BuildInventoryXLSX renders devices and connections in the import
// layout, so an exported workbook can be edited and imported again.
func BuildInventoryXLSX(devices []inventory.Device, conns []inventory.Connection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", deviceSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(importer.ConnectionSheetName); err != nil {
		return nil, err
	}

	if err := writeRow(f, deviceSheet, 1, deviceHeader); err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(devices))
	for i, d := range devices {
		names[d.ID] = d.Name
		row := []string{d.AssetID, d.Name, d.Station, d.DeviceType, d.Model, d.Location, d.PowerRating, d.Vendor, d.CommissionDate, d.Remark}
		if err := writeRow(f, deviceSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, importer.ConnectionSheetName, 1, connectionHeader); err != nil {
		return nil, err
	}
	for i, c := range conns {
		installed := ""
		if c.InstallationDate != nil {
			installed = c.InstallationDate.Format("2006-01-02")
		}
		row := []string{
			names[c.SourceDeviceID],
			names[c.TargetDeviceID],
			c.SourceFuseNumber,
			c.SourceFuseSpec,
			c.SourceBreakerNumber,
			c.SourceBreakerSpec,
			c.TargetFuseNumber,
			c.TargetFuseSpec,
			c.TargetBreakerNumber,
			c.TargetBreakerSpec,
			c.TargetDeviceLocation,
			c.HierarchyRelation,
			c.UpstreamDownstream,
			connectionTypeLabel[c.ConnectionType],
			c.CableModel,
			c.CableSpecification,
			strconv.Itoa(c.ParallelCount),
			formatFloat(c.RatedCurrent),
			formatFloat(c.CableLength),
			c.SourceDevicePhoto,
			c.TargetDevicePhoto,
			c.Remark,
			installed,
		}
		if err := writeRow(f, importer.ConnectionSheetName, i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("export: %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
