package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsdesk/partsdesk/internal/db/models"
)

// Cost flag names
const (
	flagCostPerHour = "cost-per-hour"
	flagBudget      = "budget"
	flagMisc        = "misc"
)

func newCostCmd() *cobra.Command {
	costCmd := &cobra.Command{
		Use:   "cost",
		Short: "Analyse the cost of a project",
	}
	addProjectFlag(costCmd)

	costCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the cost breakdown and budget health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			summary, err := apiClient.GetCost(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("error getting cost: %w", err)
			}
			return printJSON(cmd, summary)
		},
	})
	costCmd.AddCommand(newCostSettingsCmd())
	return costCmd
}

func newCostSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change the hourly rate, budget or miscellaneous cost",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			current, err := apiClient.GetCost(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("error getting cost: %w", err)
			}

			settings := models.CostSettings{
				CostPerHour:     current.CostPerHour,
				EstimatedBudget: current.EstimatedBudget,
				MiscCost:        current.MiscCost,
			}
			flags := cmd.Flags()
			if flags.Changed(flagCostPerHour) {
				settings.CostPerHour, _ = flags.GetFloat64(flagCostPerHour)
			}
			if flags.Changed(flagBudget) {
				settings.EstimatedBudget, _ = flags.GetFloat64(flagBudget)
			}
			if flags.Changed(flagMisc) {
				settings.MiscCost, _ = flags.GetFloat64(flagMisc)
			}

			saved, err := apiClient.UpdateCostSettings(cmd.Context(), projectID, settings)
			if err != nil {
				return fmt.Errorf("error saving cost settings: %w", err)
			}
			return printJSON(cmd, saved)
		},
	}
	cmd.Flags().Float64(flagCostPerHour, 0, "Engineer cost per hour")
	cmd.Flags().Float64(flagBudget, 0, "Estimated budget")
	cmd.Flags().Float64(flagMisc, 0, "Miscellaneous cost")
	return cmd
}
