package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDeviceServiceCreateRejectsDuplicateAssetID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	changes := 0
	svc, err := NewDeviceService(store, WithDeviceChangeHook(func(context.Context) { changes++ }))
	require.NoError(t, err)

	created, err := svc.Create(ctx, inventory.Device{AssetID: " A1 ", Name: "UPS", Station: "S1"})
	require.NoError(t, err)
	require.Equal(t, "A1", created.AssetID)

	_, err = svc.Create(ctx, inventory.Device{AssetID: "A1", Name: "Other", Station: "S1"})
	require.ErrorIs(t, err, inventory.ErrAssetIDTaken)

	_, err = svc.Create(ctx, inventory.Device{AssetID: "A2", Name: "", Station: "S1"})
	require.ErrorIs(t, err, inventory.ErrInvalidDevice)
	require.Equal(t, 1, changes)
}

func TestDeviceServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc, err := NewDeviceService(store)
	require.NoError(t, err)

	a, err := svc.Create(ctx, inventory.Device{AssetID: "A1", Name: "UPS", Station: "S1", Vendor: "V"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, inventory.Device{AssetID: "A2", Name: "Battery", Station: "S1"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, inventory.Device{AssetID: "A2", Name: "UPS", Station: "S1"})
	require.ErrorIs(t, err, inventory.ErrAssetIDTaken)

	updated, err := svc.Update(ctx, a.ID, inventory.Device{AssetID: "A1", Name: "UPS-new", Station: "S2"})
	require.NoError(t, err)
	require.Equal(t, "UPS-new", updated.Name)

	stored, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "S2", stored.Station)
	require.Empty(t, stored.Vendor)

	_, err = svc.Update(ctx, 999, inventory.Device{AssetID: "A9", Name: "x", Station: "S"})
	require.ErrorIs(t, err, inventory.ErrDeviceNotFound)
}

func TestDeviceServiceDeleteCascadesConnections(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	devices, err := NewDeviceService(store)
	require.NoError(t, err)
	conns, err := NewConnectionService(store, nil)
	require.NoError(t, err)

	a, err := devices.Create(ctx, inventory.Device{AssetID: "A", Name: "a", Station: "S"})
	require.NoError(t, err)
	b, err := devices.Create(ctx, inventory.Device{AssetID: "B", Name: "b", Station: "S"})
	require.NoError(t, err)
	c, err := devices.Create(ctx, inventory.Device{AssetID: "C", Name: "c", Station: "S"})
	require.NoError(t, err)

	_, err = conns.Create(ctx, inventory.Connection{SourceDeviceID: a.ID, TargetDeviceID: b.ID, ConnectionType: inventory.ConnectionCable})
	require.NoError(t, err)
	_, err = conns.Create(ctx, inventory.Connection{SourceDeviceID: c.ID, TargetDeviceID: a.ID, ConnectionType: inventory.ConnectionBusway})
	require.NoError(t, err)
	_, err = conns.Create(ctx, inventory.Connection{SourceDeviceID: b.ID, TargetDeviceID: c.ID})
	require.NoError(t, err)

	removed, err := devices.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	_, err = devices.Get(ctx, a.ID)
	require.ErrorIs(t, err, inventory.ErrDeviceNotFound)

	left, err := conns.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)

	_, err = devices.Delete(ctx, a.ID)
	require.ErrorIs(t, err, inventory.ErrDeviceNotFound)
}

func TestConnectionServiceValidation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	devices, err := NewDeviceService(store)
	require.NoError(t, err)
	conns, err := NewConnectionService(store, nil)
	require.NoError(t, err)

	a, err := devices.Create(ctx, inventory.Device{AssetID: "A", Name: "a", Station: "S"})
	require.NoError(t, err)

	_, err = conns.Create(ctx, inventory.Connection{SourceDeviceID: a.ID, TargetDeviceID: a.ID})
	require.ErrorIs(t, err, inventory.ErrInvalidConnection)

	_, err = conns.Create(ctx, inventory.Connection{SourceDeviceID: a.ID, TargetDeviceID: 42})
	require.ErrorIs(t, err, inventory.ErrDeviceNotFound)

	_, err = conns.Create(ctx, inventory.Connection{SourceDeviceID: a.ID, TargetDeviceID: 42, ConnectionType: "rope"})
	require.ErrorIs(t, err, inventory.ErrInvalidConnection)

	b, err := devices.Create(ctx, inventory.Device{AssetID: "B", Name: "b", Station: "S"})
	require.NoError(t, err)
	created, err := conns.Create(ctx, inventory.Connection{
		SourceDeviceID:      a.ID,
		TargetDeviceID:      b.ID,
		SourceFuseNumber:    "F3",
		SourceFuseSpec:      "100A",
		TargetBreakerNumber: "Q1",
	})
	require.NoError(t, err)
	require.Equal(t, "F3 (100A)", created.SourcePort)
	require.Equal(t, "Q1", created.TargetPort)
	require.Equal(t, 1, created.ParallelCount)
	require.Equal(t, inventory.ConnectionIdle, created.ConnectionType)

	require.NoError(t, conns.Delete(ctx, created.ID))
	require.ErrorIs(t, conns.Delete(ctx, created.ID), inventory.ErrConnectionNotFound)
}

func TestSuggestDeviceTypes(t *testing.T) {
	all := SuggestDeviceTypes("", 0)
	require.Len(t, all, len(StandardDeviceTypes))

	got := SuggestDeviceTypes("ups", 5)
	require.NotEmpty(t, got)
	require.Contains(t, got, "交流UPS主机")
	require.Contains(t, got, "UPS系统阀控式铅酸蓄电池")
	require.LessOrEqual(t, len(got), 5)

	require.Empty(t, SuggestDeviceTypes("zzz", 0))
	require.Len(t, SuggestDeviceTypes("", 3), 3)
}

func TestDeviceTypeCategory(t *testing.T) {
	require.Equal(t, CategoryPowerSource, DeviceTypeCategory("交流UPS主机"))
	require.Equal(t, CategoryStorage, DeviceTypeCategory("UPS系统阀控式铅酸蓄电池"))
	require.Equal(t, CategoryHVAC, DeviceTypeCategory("普通空调"))
	require.Equal(t, CategoryOther, DeviceTypeCategory("机柜"))
	require.True(t, IsStandardDeviceType("发电机组"))
	require.False(t, IsStandardDeviceType("发电机"))
}
