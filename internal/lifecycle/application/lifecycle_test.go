package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycle "power-assets/internal/lifecycle/domain"
	"power-assets/internal/logging"
)

func newServices(t *testing.T, now time.Time) (*RuleService, *StatusService, *sqlstore.Store) {
	t.Helper()
	store, err := sqlstore.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rules, err := NewRuleService(store, logging.Discard())
	require.NoError(t, err)
	status, err := NewStatusService(store, rules, WithStatusClock(func() time.Time { return now }))
	require.NoError(t, err)
	return rules, status, store
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestRuleServiceDefaultsAndConflicts(t *testing.T) {
	ctx := context.Background()
	rules, _, _ := newServices(t, time.Now())

	rule, err := rules.Create(ctx, RuleInput{DeviceType: " 交流UPS主机 ", LifecycleYears: 10})
	require.NoError(t, err)
	require.Equal(t, "交流UPS主机", rule.DeviceType)
	require.Equal(t, lifecycle.DefaultWarningMonths, rule.WarningMonths)
	require.True(t, rule.IsActive)

	_, err = rules.Create(ctx, RuleInput{DeviceType: "交流ups主机", LifecycleYears: 8})
	require.ErrorIs(t, err, lifecycle.ErrRuleExists)

	_, err = rules.Create(ctx, RuleInput{DeviceType: "", LifecycleYears: 8})
	require.ErrorIs(t, err, lifecycle.ErrInvalidRule)

	other, err := rules.Create(ctx, RuleInput{DeviceType: "蓄电池", LifecycleYears: 8, WarningMonths: intPtr(3)})
	require.NoError(t, err)

	_, err = rules.Update(ctx, other.ID, RuleInput{DeviceType: "交流UPS主机", LifecycleYears: 8})
	require.ErrorIs(t, err, lifecycle.ErrRuleExists)

	updated, err := rules.Update(ctx, other.ID, RuleInput{DeviceType: "蓄电池", LifecycleYears: 6, IsActive: boolPtr(false)})
	require.NoError(t, err)
	require.Equal(t, 6, updated.LifecycleYears)
	require.False(t, updated.IsActive)

	_, err = rules.Update(ctx, 999, RuleInput{DeviceType: "x", LifecycleYears: 1})
	require.ErrorIs(t, err, lifecycle.ErrRuleNotFound)

	set, err := rules.RuleSet(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	require.NoError(t, rules.Delete(ctx, other.ID))
	require.ErrorIs(t, rules.Delete(ctx, other.ID), lifecycle.ErrRuleNotFound)
	_, err = rules.Get(ctx, other.ID)
	require.ErrorIs(t, err, lifecycle.ErrRuleNotFound)
}

func TestRuleServiceSeedKeepsExistingRules(t *testing.T) {
	ctx := context.Background()
	rules, _, _ := newServices(t, time.Now())

	_, err := rules.Create(ctx, RuleInput{DeviceType: "蓄电池", LifecycleYears: 5})
	require.NoError(t, err)

	created, err := rules.Seed(ctx, []RuleInput{
		{DeviceType: "蓄电池", LifecycleYears: 8},
		{DeviceType: "精密空调", LifecycleYears: 10, WarningMonths: intPtr(12)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, created)

	list, err := rules.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, r := range list {
		if r.DeviceType == "蓄电池" {
			require.Equal(t, 5, r.LifecycleYears)
		} else {
			require.Equal(t, 12, r.WarningMonths)
		}
	}

	created, err = rules.Seed(ctx, []RuleInput{{DeviceType: "精密空调", LifecycleYears: 1}})
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestStatusReport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rules, status, store := newServices(t, now)

	_, err := rules.Create(ctx, RuleInput{DeviceType: "交流UPS主机", LifecycleYears: 10})
	require.NoError(t, err)

	devices := []inventory.Device{
		{AssetID: "A1", Name: "old", Station: "一号局站", DeviceType: "交流UPS主机", CommissionDate: "2013-01-01"},
		{AssetID: "A2", Name: "ageing", Station: "一号局站", DeviceType: "交流ups主机", CommissionDate: "2014-10"},
		{AssetID: "A3", Name: "new", Station: "二号局站", DeviceType: "交流UPS主机", CommissionDate: "202301"},
		{AssetID: "A4", Name: "untyped", Station: "二号局站", CommissionDate: "2020-01-01"},
		{AssetID: "A5", Name: "undated", Station: "二号局站", DeviceType: "交流UPS主机"},
		{AssetID: "A6", Name: "garbled", Station: "二号局站", DeviceType: "交流UPS主机", CommissionDate: "去年"},
	}
	for i := range devices {
		require.NoError(t, store.Devices().Save(ctx, &devices[i]))
	}

	report, err := status.Report(ctx, ReportFilter{})
	require.NoError(t, err)
	require.Equal(t, lifecycle.Statistics{Total: 6, Normal: 1, Warning: 1, Expired: 1, Unknown: 3}, report.Statistics)
	require.Len(t, report.Devices, 6)
	require.Equal(t, now, report.GeneratedAt)

	byAsset := map[string]DeviceStatus{}
	for _, d := range report.Devices {
		byAsset[d.AssetID] = d
	}
	require.Equal(t, lifecycle.StatusExpired, byAsset["A1"].Status)
	require.Equal(t, lifecycle.StatusWarning, byAsset["A2"].Status)
	require.Equal(t, lifecycle.StatusNormal, byAsset["A3"].Status)
	require.Equal(t, 10, byAsset["A3"].LifecycleYears)
	require.Equal(t, lifecycle.ReasonNoRule, byAsset["A4"].Reason)
	require.Equal(t, lifecycle.ReasonCommissionMissing, byAsset["A5"].Reason)
	require.Equal(t, lifecycle.ReasonDateUnrecognized, byAsset["A6"].Reason)

	warning, err := status.Report(ctx, ReportFilter{Status: "warning"})
	require.NoError(t, err)
	require.Len(t, warning.Devices, 1)
	require.Equal(t, "A2", warning.Devices[0].AssetID)
	require.Equal(t, 6, warning.Statistics.Total)

	station, err := status.Report(ctx, ReportFilter{Device: inventory.DeviceFilter{Station: "二号局站"}, Status: "all"})
	require.NoError(t, err)
	require.Equal(t, 4, station.Statistics.Total)

	_, err = status.Report(ctx, ReportFilter{Status: "dead"})
	require.ErrorIs(t, err, ErrInvalidStatusFilter)
}
