package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lifecycleapp "power-assets/internal/lifecycle/application"
)

func newExportCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export devices or the lifecycle report to a file",
	}
	cmd.AddCommand(newExportDevicesCmd(global))
	cmd.AddCommand(newExportLifecycleCmd(global))
	return cmd
}

func newExportDevicesCmd(global *globalOptions) *cobra.Command {
	var (
		filter deviceFilterFlags
		out    string
	)
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Write devices and their connections to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			data, err := a.Exports.InventoryXLSX(cmd.Context(), filter.filter())
			if err != nil {
				return withCode(exitDB, err)
			}
			return writeExport(cmd, out, data)
		},
	}
	filter.register(cmd)
	cmd.Flags().StringVar(&out, "out", "devices.xlsx", "Output path")
	return cmd
}

func newExportLifecycleCmd(global *globalOptions) *cobra.Command {
	var (
		filter deviceFilterFlags
		status string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Write the lifecycle report to a pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			data, err := a.Exports.LifecyclePDF(cmd.Context(), lifecycleapp.ReportFilter{Device: filter.filter(), Status: status})
			if err != nil {
				if errors.Is(err, lifecycleapp.ErrInvalidStatusFilter) {
					return withCode(exitUsage, err)
				}
				return withCode(exitDB, err)
			}
			return writeExport(cmd, out, data)
		},
	}
	filter.register(cmd)
	cmd.Flags().StringVar(&status, "status", "all", "normal, warning, expired, unknown or all")
	cmd.Flags().StringVar(&out, "out", "lifecycle.pdf", "Output path")
	return cmd
}

func writeExport(cmd *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
	return err
}
