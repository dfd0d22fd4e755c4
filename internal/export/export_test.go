package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	importer "power-assets/internal/importer/domain"
	"power-assets/internal/importer/infrastructure/xlsx"
	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycleapp "power-assets/internal/lifecycle/application"
	lifecycle "power-assets/internal/lifecycle/domain"
	"power-assets/internal/logging"
)

func TestInventoryWorkbookReadsBackInImportLayout(t *testing.T) {
	rated := 63.0
	installed := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	devices := []inventory.Device{
		{ID: 1, AssetID: "A1", Name: "配电柜", Station: "一号局站", CommissionDate: "2019-05"},
		{ID: 2, AssetID: "A2", Name: "UPS-1", Station: "一号局站", Vendor: "Vertiv"},
	}
	conns := []inventory.Connection{{
		SourceDeviceID:   1,
		TargetDeviceID:   2,
		SourceFuseNumber: "F3",
		ConnectionType:   inventory.ConnectionBusbar,
		ParallelCount:    2,
		RatedCurrent:     &rated,
		InstallationDate: &installed,
	}}

	data, err := BuildInventoryXLSX(devices, conns)
	require.NoError(t, err)

	wb, err := xlsx.Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, deviceSheet, wb.Devices.Name)
	require.Len(t, wb.Devices.Rows, 2)
	require.Equal(t, "2019-05", wb.Devices.Rows[0].Value(importer.ColCommissionDate))
	require.Equal(t, "Vertiv", wb.Devices.Rows[1].Value(importer.ColVendor))

	require.NotNil(t, wb.Connections)
	require.Len(t, wb.Connections.Rows, 1)
	row := wb.Connections.Rows[0]
	require.Equal(t, "配电柜", row.Value(importer.ColSourceName))
	require.Equal(t, "UPS-1", row.Value(importer.ColTargetName))
	require.Equal(t, "铜排", row.Value(importer.ColConnectionType))
	require.Equal(t, "2", row.Value(importer.ColParallelCount))
	require.Equal(t, "63", row.Value(importer.ColRatedCurrent))
	require.Equal(t, "2021-03-01", row.Value(importer.ColInstallationDate))
}

func TestLifecyclePDF(t *testing.T) {
	commissioned := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &lifecycleapp.Report{
		GeneratedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Statistics:  lifecycle.Statistics{Total: 2, Warning: 1, Unknown: 1},
		Devices: []lifecycleapp.DeviceStatus{
			{AssetID: "A1", Classification: lifecycle.Classification{Status: lifecycle.StatusWarning, CommissionDate: &commissioned, LifecycleYears: 10, DaysInService: 3439, RemainingDays: 211}},
			{AssetID: "A2", Classification: lifecycle.Classification{Status: lifecycle.StatusUnknown, Reason: lifecycle.ReasonNoRule}},
		},
	}
	data, err := BuildLifecyclePDF(report, PDFOptions{})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = BuildLifecyclePDF(report, PDFOptions{FontFile: "/nonexistent/font.ttf"})
	require.Error(t, err)

	_, err = BuildLifecyclePDF(nil, PDFOptions{})
	require.Error(t, err)
}

func TestServiceFiltersConnectionsToExportedDevices(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.OpenInMemory(ctx)
	require.NoError(t, err)
	defer store.Close()

	ids := map[string]int64{}
	for _, d := range []inventory.Device{
		{AssetID: "A1", Name: "a", Station: "一号局站"},
		{AssetID: "A2", Name: "b", Station: "一号局站"},
		{AssetID: "B1", Name: "c", Station: "二号局站"},
	} {
		require.NoError(t, store.Devices().Save(ctx, &d))
		ids[d.AssetID] = d.ID
	}
	for _, pair := range [][2]string{{"A1", "A2"}, {"A2", "B1"}} {
		require.NoError(t, store.Connections().Create(ctx, &inventory.Connection{
			SourceDeviceID: ids[pair[0]], TargetDeviceID: ids[pair[1]],
			ConnectionType: inventory.ConnectionCable, ParallelCount: 1,
		}))
	}

	rules, err := lifecycleapp.NewRuleService(store, logging.Discard())
	require.NoError(t, err)
	status, err := lifecycleapp.NewStatusService(store, rules)
	require.NoError(t, err)
	svc, err := NewService(store, status, PDFOptions{})
	require.NoError(t, err)

	data, err := svc.InventoryXLSX(ctx, inventory.DeviceFilter{Station: "一号局站"})
	require.NoError(t, err)
	wb, err := xlsx.Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, wb.Devices.Rows, 2)
	require.Len(t, wb.Connections.Rows, 1)

	pdf, err := svc.LifecyclePDF(ctx, lifecycleapp.ReportFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
}
