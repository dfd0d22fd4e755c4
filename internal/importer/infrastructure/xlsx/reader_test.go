package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	importer "power-assets/internal/importer/domain"
)

func buildWorkbook(t *testing.T, withConnections bool) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []any{importer.ColAssetID, importer.ColName, importer.ColStation, importer.ColVendor, importer.ColCommissionDate}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"A1", "UPS-1", "一号局站", "nan", time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"A2", "电池组", "一号局站", "None", 202312}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]any{"A3", "空调", "二号局站", "", 2018}))

	if withConnections {
		_, err := f.NewSheet(importer.ConnectionSheetName)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(importer.ConnectionSheetName, "A1",
			&[]any{importer.ColSourceName, importer.ColTargetName, importer.ColParallelCount}))
		require.NoError(t, f.SetSheetRow(importer.ConnectionSheetName, "A2", &[]any{"UPS-1", "电池组", 2}))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadDeviceSheet(t *testing.T) {
	wb, err := Read(buildWorkbook(t, false))
	require.NoError(t, err)
	require.Nil(t, wb.Connections)
	require.True(t, wb.Devices.HasColumn(importer.ColAssetID))
	require.Len(t, wb.Devices.Rows, 3)

	first := wb.Devices.Rows[0]
	require.Equal(t, 2, first.Number)
	require.Equal(t, "UPS-1", first.Value(importer.ColName))
	require.Equal(t, "", first.Value(importer.ColVendor))
	require.Equal(t, "2019-05-01", first.Value(importer.ColCommissionDate))

	second := wb.Devices.Rows[1]
	require.Equal(t, "", second.Value(importer.ColVendor))
	require.Equal(t, "202312", second.Value(importer.ColCommissionDate))

	// Row 4 is blank and dropped; numbering follows the sheet.
	third := wb.Devices.Rows[2]
	require.Equal(t, 5, third.Number)
	require.Equal(t, "2018", third.Value(importer.ColCommissionDate))
}

func TestReadConnectionSheet(t *testing.T) {
	wb, err := Read(buildWorkbook(t, true))
	require.NoError(t, err)
	require.NotNil(t, wb.Connections)
	require.Len(t, wb.Connections.Rows, 1)
	row := wb.Connections.Rows[0]
	require.Equal(t, "UPS-1", row.Value(importer.ColSourceName))
	require.Equal(t, "2", row.Value(importer.ColParallelCount))
	require.Equal(t, 4, wb.RowCount())
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewBufferString("not a workbook"))
	require.Error(t, err)
}

func TestNormalizeCell(t *testing.T) {
	cases := []struct {
		column, raw, want string
	}{
		{importer.ColVendor, " NaN ", ""},
		{importer.ColVendor, "3.0", "3"},
		{importer.ColVendor, "3.5", "3.5"},
		{importer.ColCommissionDate, "43586", "2019-05-01"},
		{importer.ColCommissionDate, "2019", "2019"},
		{importer.ColCommissionDate, "201905", "201905"},
		{importer.ColCommissionDate, "2019-05", "2019-05"},
		{importer.ColInstallationDate, "44256", "2021-03-01"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, normalizeCell(tc.column, tc.raw), "%s=%q", tc.column, tc.raw)
	}
}
