package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mainfreight/integration-jira-cloud/internal/config"
	"github.com/Mainfreight/integration-jira-cloud/internal/ingest"
	"github.com/Mainfreight/integration-jira-cloud/internal/jira"
	"github.com/Mainfreight/integration-jira-cloud/internal/logging"
	"github.com/Mainfreight/integration-jira-cloud/internal/reconcile"
	"github.com/Mainfreight/integration-jira-cloud/internal/report"
	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

var (
	flagConfig     string
	flagSeverities string
	flagFormat     string
	flagOut        string
	flagDryRun     bool
	flagSetupOnly  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <scan.csv>",
	Short: "Ingest a scan CSV export into Jira",
	Args:  cobra.MaximumNArgs(1),
	Run:   runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&flagConfig, "config", "config.yaml", "Configuration file path")
	ingestCmd.Flags().StringVar(&flagSeverities, "severities", "", "Severity allow-list override (comma-separated)")
	ingestCmd.Flags().StringVar(&flagFormat, "format", "text", "Summary format (text, json)")
	ingestCmd.Flags().StringVar(&flagOut, "out", "", "Summary output file path (default: stdout)")
	ingestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Look up issues but never create, update, or close them")
	ingestCmd.Flags().BoolVar(&flagSetupOnly, "setup-only", false, "Validate connectivity and write a resolved config file, without ingesting")
}

func runIngest(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	if flagSeverities != "" {
		cfg.Tenable.Severities = splitComma(flagSeverities)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return
		}
	}
	if flagDryRun {
		cfg.Ingest.NoCreate = true
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	defer log.Sync()

	client, err := jira.NewClient(jiraConfig(cfg), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	ctx := context.Background()

	if flagSetupOnly {
		exitCode = runSetup(ctx, cfg, client, log)
		return
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: a scan CSV file is required")
		exitCode = ExitUsageError
		return
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening scan file: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	defer f.Close()

	src, err := ingest.NewCSVSource(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	engine := reconcile.New(client, log, !cfg.Ingest.NoCreate, reconcile.Policy{
		MaxRetries: cfg.Jira.MaxRetries,
		BaseDelay:  cfg.RetryBase(),
	})
	driver := ingest.NewDriver(engine, log, cfg.Severities())

	sum, runErr := driver.Run(ctx, src)
	if err := report.WriteSummary(sum, flagFormat, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	switch {
	case runErr != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		exitCode = fatalExitCode(runErr)
	case sum.Errored > 0:
		exitCode = ExitPartialFailure
	default:
		exitCode = ExitSuccess
	}
}

// runSetup validates credentials and writes the fully resolved configuration,
// with no_create set, for scheduled dry runs.
func runSetup(ctx context.Context, cfg config.Config, client *jira.Client, log *zap.Logger) int {
	name, err := client.Myself(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return fatalExitCode(err)
	}
	log.Info("jira credentials verified", zap.String("account", name))

	out := cfg
	out.Ingest.NoCreate = true
	const generated = "generated_config.yaml"
	if err := config.Save(out, generated); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}
	fmt.Fprintf(os.Stdout, "Setup complete. Wrote %s (issue creation disabled).\n", generated)
	return ExitSuccess
}

// fatalExitCode distinguishes credential failures from other runtime errors.
func fatalExitCode(err error) int {
	var terr *tracker.Error
	if errors.As(err, &terr) && terr.Kind == tracker.Unauthorized {
		return ExitAuthError
	}
	return ExitRuntimeError
}

func jiraConfig(cfg config.Config) jira.Config {
	return jira.Config{
		Address:           cfg.Jira.Address,
		Username:          cfg.Jira.Username,
		APIToken:          cfg.Jira.APIToken,
		ProjectKey:        cfg.Jira.ProjectKey,
		TaskType:          cfg.Jira.TaskType,
		SubtaskType:       cfg.Jira.SubtaskType,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Jira.RequestsPerSecond,
	}
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
