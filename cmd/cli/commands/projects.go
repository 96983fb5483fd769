package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
)

// Flag names
const (
	flagID          = "id"
	flagNewID       = "new-id"
	flagName        = "name"
	flagClient      = "client"
	flagDescription = "description"
	flagStatus      = "status"
	flagDeadline    = "deadline"
	flagSearch      = "search"
)

// projectListOutput is the output of projects list
type projectListOutput struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total"`
}

func newProjectsCmd() *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	projectsCmd.AddCommand(newCreateProjectCmd())
	projectsCmd.AddCommand(newGetProjectCmd())
	projectsCmd.AddCommand(newListProjectsCmd())
	projectsCmd.AddCommand(newUpdateProjectCmd())
	projectsCmd.AddCommand(newDeleteProjectCmd())
	return projectsCmd
}

func newCreateProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			project := models.Project{}
			project.ProjectID, _ = cmd.Flags().GetString(flagID)
			project.ProjectName, _ = cmd.Flags().GetString(flagName)
			project.ClientName, _ = cmd.Flags().GetString(flagClient)
			project.Description, _ = cmd.Flags().GetString(flagDescription)
			project.Deadline, _ = cmd.Flags().GetString(flagDeadline)
			status, _ := cmd.Flags().GetString(flagStatus)
			project.Status = models.NormalizeProjectStatus(status)

			created, err := apiClient.CreateProject(cmd.Context(), project)
			if err != nil {
				return fmt.Errorf("error creating project: %w", err)
			}
			return printJSON(cmd, created)
		},
	}
	cmd.Flags().String(flagID, "", "Project ID")
	cmd.Flags().StringP(flagName, "n", "", "Project name")
	cmd.Flags().StringP(flagClient, "c", "", "Client name")
	cmd.Flags().StringP(flagDescription, "d", "", "Project description")
	cmd.Flags().String(flagStatus, models.ProjectStatusOngoing.String(), "Project status (Ongoing, Delayed, Completed)")
	cmd.Flags().String(flagDeadline, "", "Deadline as YYYY-MM-DD")
	markRequired(cmd, flagID, flagName, flagClient, flagDeadline)
	return cmd
}

func newGetProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			project, err := apiClient.GetProject(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error getting project: %w", err)
			}
			return printJSON(cmd, project)
		},
	}
	cmd.Flags().String(flagID, "", "Project ID")
	markRequired(cmd, flagID)
	return cmd
}

func newListProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var params handlers.ProjectListParams
			params.Search, _ = cmd.Flags().GetString(flagSearch)
			params.Client, _ = cmd.Flags().GetString(flagClient)
			params.Status, _ = cmd.Flags().GetString(flagStatus)

			projects, err := apiClient.ListProjects(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("error listing projects: %w", err)
			}
			return printJSON(cmd, projectListOutput{Projects: projects, Total: len(projects)})
		},
	}
	cmd.Flags().String(flagSearch, "", "Match project name, client or ID")
	cmd.Flags().StringP(flagClient, "c", "", "Only projects of this client")
	cmd.Flags().String(flagStatus, handlers.FilterAll, "Only projects with this status")
	return cmd
}

func newUpdateProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a project. Changing --new-id moves the project and everything it owns.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			project, err := apiClient.GetProject(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error getting project: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed(flagNewID) {
				project.ProjectID, _ = flags.GetString(flagNewID)
			}
			if flags.Changed(flagName) {
				project.ProjectName, _ = flags.GetString(flagName)
			}
			if flags.Changed(flagClient) {
				project.ClientName, _ = flags.GetString(flagClient)
			}
			if flags.Changed(flagDescription) {
				project.Description, _ = flags.GetString(flagDescription)
			}
			if flags.Changed(flagDeadline) {
				project.Deadline, _ = flags.GetString(flagDeadline)
			}
			if flags.Changed(flagStatus) {
				status, _ := flags.GetString(flagStatus)
				if project.Status, err = models.ParseProjectStatus(status); err != nil {
					return err
				}
			}

			updated, err := apiClient.UpdateProject(cmd.Context(), id, project)
			if err != nil {
				return fmt.Errorf("error updating project: %w", err)
			}
			return printJSON(cmd, updated)
		},
	}
	cmd.Flags().String(flagID, "", "Current project ID")
	cmd.Flags().String(flagNewID, "", "New project ID")
	cmd.Flags().StringP(flagName, "n", "", "Project name")
	cmd.Flags().StringP(flagClient, "c", "", "Client name")
	cmd.Flags().StringP(flagDescription, "d", "", "Project description")
	cmd.Flags().String(flagStatus, "", "Project status (Ongoing, Delayed, Completed)")
	cmd.Flags().String(flagDeadline, "", "Deadline as YYYY-MM-DD")
	markRequired(cmd, flagID)
	return cmd
}

func newDeleteProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project with its BOM, engineers, weeks and settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			if err := apiClient.DeleteProject(cmd.Context(), id); err != nil {
				return fmt.Errorf("error deleting project: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Project %s deleted\n", id)
			return err
		},
	}
	cmd.Flags().String(flagID, "", "Project ID")
	markRequired(cmd, flagID)
	return cmd
}
