package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Mainfreight/integration-jira-cloud/internal/config"
	"github.com/Mainfreight/integration-jira-cloud/internal/jira"
	"github.com/Mainfreight/integration-jira-cloud/internal/logging"
	"github.com/Mainfreight/integration-jira-cloud/internal/redact"
)

const bundleFile = "issue_debug.md"

var troubleshootCmd = &cobra.Command{
	Use:   "troubleshoot",
	Short: "Write a redacted diagnostics bundle for filing support issues",
	Run:   runTroubleshoot,
}

func init() {
	troubleshootCmd.Flags().StringVar(&flagConfig, "config", "config.yaml", "Configuration file path")
}

func runTroubleshoot(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	defer log.Sync()

	var sb strings.Builder
	sb.WriteString("### Configuration\n```yaml\n")
	sb.WriteString(renderConfig(cfg))
	sb.WriteString("```\n\n")

	sb.WriteString("### Recent Logs\n```\n")
	sb.WriteString(scrub(readLogTail(cfg.Log.File), cfg))
	sb.WriteString("\n```\n\n")

	sb.WriteString("### Available Issue Types\n```\n")
	sb.WriteString(scrub(issueTypesText(cfg, log), cfg))
	sb.WriteString("```\n")

	bundle := sb.String()
	fmt.Fprint(os.Stdout, bundle)
	printRedactionNotice()

	if err := os.WriteFile(bundleFile, []byte(bundle), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", bundleFile, err)
		exitCode = ExitRuntimeError
		return
	}
}

func renderConfig(cfg config.Config) string {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Sprintf("failed to render config: %v\n", err)
	}
	return string(data)
}

// scrub removes secrets and the configured Jira host from bundle text.
func scrub(text string, cfg config.Config) string {
	text = redact.Secrets(text)
	return redact.Host(text, cfg.Jira.Address, "JIRA_CLOUD_HOST")
}

func readLogTail(path string) string {
	if path == "" {
		return "(no log file configured)"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("(could not read log file: %v)", err)
	}
	const maxTail = 16 * 1024
	if len(data) > maxTail {
		data = data[len(data)-maxTail:]
	}
	return string(data)
}

func issueTypesText(cfg config.Config, log *zap.Logger) string {
	client, err := jira.NewClient(jiraConfig(cfg), log)
	if err != nil {
		return fmt.Sprintf("(could not build jira client: %v)", err)
	}
	types, err := client.IssueTypes(context.Background())
	if err != nil {
		return fmt.Sprintf("(could not list issue types: %v)", err)
	}
	var sb strings.Builder
	for _, t := range types {
		kind := "standard"
		if t.Subtask {
			kind = "subtask"
		}
		fmt.Fprintf(&sb, "%s: %s (%s)\n", t.ID, t.Name, kind)
	}
	return sb.String()
}

func printRedactionNotice() {
	fmt.Fprintln(os.Stderr, strings.Join([]string{
		"",
		"NOTICE: basic redaction of addresses, credentials, and tokens has been",
		"performed, but please review the output above before sharing it and",
		fmt.Sprintf("confirm nothing sensitive remains. A copy was saved to %q.", bundleFile),
	}, "\n"))
}
