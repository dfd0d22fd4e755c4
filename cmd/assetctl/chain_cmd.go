package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	inventory "power-assets/internal/inventory/domain"
)

func newChainCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chain <device-id>",
		Short: "Print the power chain around a device as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return withCode(exitUsage, fmt.Errorf("invalid device id %q", args[0]))
			}
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			graph, err := a.Chains.Chain(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, inventory.ErrDeviceNotFound) {
					return withCode(exitValidation, err)
				}
				return withCode(exitDB, err)
			}
			return writeJSON(cmd.OutOrStdout(), graph)
		},
	}
}
