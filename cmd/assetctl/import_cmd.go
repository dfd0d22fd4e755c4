package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	importer "power-assets/internal/importer/domain"
	"power-assets/internal/importer/infrastructure/xlsx"
)

type importOptions struct {
	strict bool
}

func newImportCmd(global *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Reconcile a device workbook into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := xlsx.ReadFile(args[0])
			if err != nil {
				return withCode(exitValidation, err)
			}
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			report, err := a.Importer.Import(cmd.Context(), wb)
			if err != nil {
				var batchErr *importer.BatchError
				if errors.As(err, &batchErr) {
					return withCode(exitDBWrite, err)
				}
				return withCode(exitValidation, err)
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if opts.strict && len(report.Diagnostics) > 0 {
				return withCode(exitValidation, fmt.Errorf("import finished with %d skipped rows", len(report.Diagnostics)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any row was skipped")
	return cmd
}
