package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"power-assets/internal/app"
	"power-assets/internal/config"
)

type ruleView struct {
	ID             int64  `json:"id"`
	DeviceType     string `json:"device_type"`
	LifecycleYears int    `json:"lifecycle_years"`
	WarningMonths  int    `json:"warning_months"`
	Description    string `json:"description,omitempty"`
	IsActive       bool   `json:"is_active"`
}

func newRulesCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage lifecycle rules",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print lifecycle rules as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			rules, err := a.Rules.List(cmd.Context())
			if err != nil {
				return withCode(exitDB, err)
			}
			views := make([]ruleView, 0, len(rules))
			for _, r := range rules {
				views = append(views, ruleView{
					ID:             r.ID,
					DeviceType:     r.DeviceType,
					LifecycleYears: r.LifecycleYears,
					WarningMonths:  r.WarningMonths,
					Description:    r.Description,
					IsActive:       r.IsActive,
				})
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed <rules.yaml>",
		Short: "Create rules for device types that have none yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, err := config.LoadRuleSeeds(args[0])
			if err != nil {
				return withCode(exitValidation, err)
			}
			a, err := openApp(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer closeApp(a)

			created, err := a.Rules.Seed(cmd.Context(), app.RuleInputs(seeds))
			if err != nil {
				return withCode(exitDBWrite, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d rules\n", created, len(seeds))
			return err
		},
	})
	return cmd
}
