package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	importer "power-assets/internal/importer/domain"
)

func run(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db-driver", "sqlite", "--db-url", dsn, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{importer.ColAssetID, importer.ColName, importer.ColStation, importer.ColDeviceType, importer.ColCommissionDate, importer.ColParentAssetID},
		{"A1", "进线柜", "一号局站", "低压配电柜", "2010-01-01", ""},
		{"A2", "UPS-1", "一号局站", "UPS", "202401", "A1"},
		{"", "无编号", "一号局站", "UPS", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(dir, "assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportLifecycleChainExport(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "asset.db") + "?_pragma=foreign_keys(1)"
	book := writeWorkbook(t, dir)

	out, err := run(t, dsn, "import", book)
	require.NoError(t, err)
	var report importer.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, 2, report.DevicesCreated)
	require.Equal(t, 1, report.DevicesSkipped)
	require.Equal(t, 1, report.ConnectionsCreated)

	_, err = run(t, dsn, "import", "--strict", book)
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))

	seeds := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(seeds, []byte("rules:\n  - device_type: ups\n    lifecycle_years: 10\n"), 0o600))
	out, err = run(t, dsn, "rules", "seed", seeds)
	require.NoError(t, err)
	require.Contains(t, out, "created 1 of 1 rules")

	out, err = run(t, dsn, "lifecycle", "--status", "normal")
	require.NoError(t, err)
	var status struct {
		Statistics struct {
			Total   int `json:"total"`
			Normal  int `json:"normal"`
			Unknown int `json:"unknown"`
		} `json:"statistics"`
		Devices []struct {
			AssetID string `json:"asset_id"`
		} `json:"devices"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Equal(t, 2, status.Statistics.Total)
	require.Equal(t, 1, status.Statistics.Unknown)
	require.Len(t, status.Devices, 1)
	require.Equal(t, "A2", status.Devices[0].AssetID)

	_, err = run(t, dsn, "lifecycle", "--status", "broken")
	require.Equal(t, exitUsage, exitCode(err))

	out, err = run(t, dsn, "chain", "1")
	require.NoError(t, err)
	require.Contains(t, out, `"nodes"`)

	_, err = run(t, dsn, "chain", "42")
	require.Equal(t, exitValidation, exitCode(err))
	_, err = run(t, dsn, "chain", "abc")
	require.Equal(t, exitUsage, exitCode(err))

	xlsxPath := filepath.Join(dir, "out.xlsx")
	_, err = run(t, dsn, "export", "devices", "--out", xlsxPath)
	require.NoError(t, err)
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestImportMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "file:"+filepath.Join(dir, "a.db"), "import", filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, 1, exitCode(errors.New("plain")))
	require.Equal(t, exitDB, exitCode(withCode(exitDB, errors.New("db"))))
	require.Nil(t, withCode(exitDB, nil))
}
