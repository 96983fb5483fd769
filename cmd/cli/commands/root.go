// Package commands implements the partsdesk command line client
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/partsdesk/partsdesk/pkg/api/v1/client"
	"github.com/partsdesk/partsdesk/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagProject       = "project"
)

// environment variable names
const (
	envServerAddress = "PARTSDESK_SERVER_ADDRESS"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
)

// initClient initializes the API client
func initClient() error {
	var err error
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	// PersistentPreRunE applies the environment override
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL, "Address of the partsdesk API server (env: "+envServerAddress+")")

	addCommands(RootCmd)
}

// addCommands attaches every resource command to root
func addCommands(root *cobra.Command) {
	root.AddCommand(newProjectsCmd())
	root.AddCommand(newBOMCmd())
	root.AddCommand(newTimeCmd())
	root.AddCommand(newCostCmd())
	root.AddCommand(newOrdersCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "partsdesk",
	Short: "partsdesk CLI - A command line interface for the partsdesk API",
	Long: `partsdesk CLI manages projects, bills of materials, time sheets and
cost analyses through the partsdesk API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > environment > default
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(envServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}
		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which long running commands
// like bom watch stop on
func ExecuteContext(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// printJSON pretty prints v to the command output
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return err
}

// projectFlag returns the value of the required project flag
func projectFlag(cmd *cobra.Command) (string, error) {
	projectID, err := cmd.Flags().GetString(flagProject)
	if err != nil {
		return "", fmt.Errorf("error getting %s flag: %w", flagProject, err)
	}
	if projectID == "" {
		return "", fmt.Errorf("required flag(s) \"%s\" not set", flagProject)
	}
	return projectID, nil
}

// addProjectFlag adds the persistent project flag to a resource command
func addProjectFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(flagProject, "p", "", "Project ID")
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Errorf("failed to mark %s flag as required for %s command: %w", name, cmd.Name(), err))
		}
	}
}
