package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.2.0"

// Exit codes
const (
	ExitSuccess        = 0
	ExitPartialFailure = 1
	ExitUsageError     = 2
	ExitAuthError      = 3
	ExitRuntimeError   = 4
)

var rootCmd = &cobra.Command{
	Use:   "tio2jira",
	Short: "Tenable scan to Jira Cloud transformer and ingester",
	Long: "tio2jira reads vulnerability-scan CSV exports and reconciles them against\n" +
		"Jira Cloud: one parent task per plugin, one sub-task per affected asset,\n" +
		"reopening recurring findings and resolving ones the scan no longer reports.",
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(troubleshootCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tio2jira version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "tio2jira version %s\n", version)
	},
}
