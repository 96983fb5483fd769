package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/partsdesk/partsdesk/test"
)

// setupCommands creates a fresh root command without the client
// initialization of RootCmd
func setupCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "partsdesk",
		Short:         "partsdesk CLI tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCommands(cmd)
	return cmd
}

// runCommand executes args against the suite's API and returns the output
func runCommand(t *testing.T, suite *test.Suite, args ...string) (string, error) {
	t.Helper()

	// Store the original client and restore it after the test
	originalClient := apiClient
	apiClient = suite.APIClient
	defer func() { apiClient = originalClient }()

	buf := new(bytes.Buffer)
	cmd := setupCommands()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(suite.Context())
	return buf.String(), err
}
