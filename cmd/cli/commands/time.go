package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsdesk/partsdesk/internal/types"
)

// Time tracking flag names
const (
	flagEngineer   = "engineer"
	flagRole       = "role"
	flagDepartment = "department"
	flagDate       = "date"
	flagWeek       = "week"
	flagHours      = "hours"
)

func newTimeCmd() *cobra.Command {
	timeCmd := &cobra.Command{
		Use:   "time",
		Short: "Track engineering hours of a project",
	}
	addProjectFlag(timeCmd)

	timeCmd.AddCommand(newListEngineersCmd())
	timeCmd.AddCommand(newAddEngineerCmd())
	timeCmd.AddCommand(newUpdateEngineerCmd())
	timeCmd.AddCommand(newListWeeksCmd())
	timeCmd.AddCommand(newAddWeekCmd())
	timeCmd.AddCommand(newLogTimeCmd())
	return timeCmd
}

func newListEngineersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engineers",
		Short: "List the engineers of a project with their weekly hours",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			engineers, err := apiClient.ListEngineers(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("error listing engineers: %w", err)
			}
			return printJSON(cmd, engineers)
		},
	}
}

func newAddEngineerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-engineer",
		Short: "Add an engineer to a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			var req types.EngineerRequest
			req.Name, _ = cmd.Flags().GetString(flagName)
			req.Role, _ = cmd.Flags().GetString(flagRole)
			req.Department, _ = cmd.Flags().GetString(flagDepartment)

			engineer, err := apiClient.AddEngineer(cmd.Context(), projectID, req)
			if err != nil {
				return fmt.Errorf("error adding engineer: %w", err)
			}
			return printJSON(cmd, engineer)
		},
	}
	cmd.Flags().StringP(flagName, "n", "", "Engineer name")
	cmd.Flags().String(flagRole, "", "Role")
	cmd.Flags().String(flagDepartment, "", "Department")
	markRequired(cmd, flagName)
	return cmd
}

func newUpdateEngineerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-engineer",
		Short: "Change the profile of an engineer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			engineerID, _ := cmd.Flags().GetString(flagEngineer)

			var req types.EngineerUpdateRequest
			for name, field := range map[string]**string{
				flagName:       &req.Name,
				flagRole:       &req.Role,
				flagDepartment: &req.Department,
			} {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					*field = &v
				}
			}

			engineer, err := apiClient.UpdateEngineer(cmd.Context(), projectID, engineerID, req)
			if err != nil {
				return fmt.Errorf("error updating engineer: %w", err)
			}
			return printJSON(cmd, engineer)
		},
	}
	cmd.Flags().String(flagEngineer, "", "Engineer id")
	cmd.Flags().StringP(flagName, "n", "", "Engineer name")
	cmd.Flags().String(flagRole, "", "Role")
	cmd.Flags().String(flagDepartment, "", "Department")
	markRequired(cmd, flagEngineer)
	return cmd
}

func newListWeeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "List the weeks of a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			weeks, err := apiClient.ListWeeks(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("error listing weeks: %w", err)
			}
			return printJSON(cmd, weeks)
		},
	}
}

func newAddWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-week",
		Short: "Add the week holding a date, the current week by default",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			date, _ := cmd.Flags().GetString(flagDate)
			week, err := apiClient.AddWeek(cmd.Context(), projectID, types.AddWeekRequest{Date: date})
			if err != nil {
				return fmt.Errorf("error adding week: %w", err)
			}
			return printJSON(cmd, week)
		},
	}
	cmd.Flags().String(flagDate, "", "Any day of the week as YYYY-MM-DD")
	return cmd
}

func newLogTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Book hours of an engineer against a week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, err := projectFlag(cmd)
			if err != nil {
				return err
			}
			engineerID, _ := cmd.Flags().GetString(flagEngineer)
			var req types.TimeEntryRequest
			req.WeekKey, _ = cmd.Flags().GetString(flagWeek)
			req.Hours, _ = cmd.Flags().GetFloat64(flagHours)
			req.Description, _ = cmd.Flags().GetString(flagDescription)

			week, err := apiClient.AddTimeEntry(cmd.Context(), projectID, engineerID, req)
			if err != nil {
				return fmt.Errorf("error logging time: %w", err)
			}
			return printJSON(cmd, week)
		},
	}
	cmd.Flags().String(flagEngineer, "", "Engineer id")
	cmd.Flags().String(flagWeek, "", "Week key, for example 2026-W10")
	cmd.Flags().Float64(flagHours, 0, "Hours worked")
	cmd.Flags().StringP(flagDescription, "d", "", "What the time was spent on")
	markRequired(cmd, flagEngineer, flagWeek, flagHours)
	return cmd
}
