package main

import (
	"errors"

	"github.com/spf13/cobra"

	inventory "power-assets/internal/inventory/domain"
	lifecycleapp "power-assets/internal/lifecycle/application"
)

type deviceFilterFlags struct {
	station    string
	deviceType string
	vendor     string
}

func (f *deviceFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.station, "station", "", "Only devices at this station")
	cmd.Flags().StringVar(&f.deviceType, "device-type", "", "Only devices of this type")
	cmd.Flags().StringVar(&f.vendor, "vendor", "", "Only devices from this vendor")
}

func (f *deviceFilterFlags) filter() inventory.DeviceFilter {
	return inventory.DeviceFilter{Station: f.station, DeviceType: f.deviceType, Vendor: f.vendor}
}

func newLifecycleCmd(global *globalOptions) *cobra.Command {
	var (
		filter deviceFilterFlags
		status string
	)

	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Print the lifecycle status report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			report, err := a.Status.Report(cmd.Context(), lifecycleapp.ReportFilter{Device: filter.filter(), Status: status})
			if err != nil {
				if errors.Is(err, lifecycleapp.ErrInvalidStatusFilter) {
					return withCode(exitUsage, err)
				}
				return withCode(exitDB, err)
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	filter.register(cmd)
	cmd.Flags().StringVar(&status, "status", "all", "normal, warning, expired, unknown or all")
	return cmd
}
