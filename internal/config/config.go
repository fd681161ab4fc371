package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
)

const redacted = "<REDACTED>"

// Config is the full integration configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Jira    JiraConfig    `yaml:"jira"`
	Tenable TenableConfig `yaml:"tenable"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// JiraConfig holds tracker connection and project settings.
type JiraConfig struct {
	Address     string `yaml:"address"`
	Username    string `yaml:"api_username"`
	APIToken    string `yaml:"api_token"`
	ProjectKey  string `yaml:"project_key"`
	TaskType    string `yaml:"task_type"`
	SubtaskType string `yaml:"subtask_type"`

	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`
	RetryBaseSeconds  int     `yaml:"retry_base_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// TenableConfig holds scan-side settings.
type TenableConfig struct {
	// Severities is the allow-list of scanner risk labels to ingest.
	Severities []string `yaml:"severities"`
}

// IngestConfig holds run-mode settings.
type IngestConfig struct {
	// NoCreate suppresses issue creation and the stale-issue sweep
	// (setup/dry-run mode).
	NoCreate bool `yaml:"no_create"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "warn"},
		Jira: JiraConfig{
			TaskType:          "Task",
			SubtaskType:       "Sub-task",
			TimeoutSeconds:    30,
			MaxRetries:        3,
			RetryBaseSeconds:  2,
			RequestsPerSecond: 5,
		},
		Tenable: TenableConfig{
			Severities: []string{"Critical", "High"},
		},
	}
}

// Load builds the effective config: defaults <- file at path <- environment.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	// Unmarshal only touches keys present in the file, so defaults survive.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("JIRA_ADDRESS"); v != "" {
		cfg.Jira.Address = v
	}
	if v := os.Getenv("JIRA_API_USERNAME"); v != "" {
		cfg.Jira.Username = v
	}
	if v := os.Getenv("JIRA_API_TOKEN"); v != "" {
		cfg.Jira.APIToken = v
	}
	if v := os.Getenv("JIRA_PROJECT_KEY"); v != "" {
		cfg.Jira.ProjectKey = v
	}
}

// Validate checks that required settings are present and recognizable.
func (c Config) Validate() error {
	if c.Jira.Address == "" {
		return fmt.Errorf("jira.address is required")
	}
	if c.Jira.Username == "" {
		return fmt.Errorf("jira.api_username is required (or set JIRA_API_USERNAME)")
	}
	if c.Jira.APIToken == "" {
		return fmt.Errorf("jira.api_token is required (or set JIRA_API_TOKEN)")
	}
	if c.Jira.ProjectKey == "" {
		return fmt.Errorf("jira.project_key is required")
	}
	if len(c.Tenable.Severities) == 0 {
		return fmt.Errorf("tenable.severities must list at least one severity")
	}
	for _, s := range c.Tenable.Severities {
		if _, ok := finding.ParseSeverity(s); !ok {
			return fmt.Errorf("tenable.severities: unrecognized severity %q", s)
		}
	}
	return nil
}

// Severities returns the parsed severity allow-list.
func (c Config) Severities() []finding.Severity {
	out := make([]finding.Severity, 0, len(c.Tenable.Severities))
	for _, s := range c.Tenable.Severities {
		if sev, ok := finding.ParseSeverity(s); ok {
			out = append(out, sev)
		}
	}
	return out
}

// Timeout returns the per-request tracker timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Jira.TimeoutSeconds) * time.Second
}

// RetryBase returns the first backoff interval for tracker retries.
func (c Config) RetryBase() time.Duration {
	return time.Duration(c.Jira.RetryBaseSeconds) * time.Second
}

// Redacted returns a copy safe for inclusion in troubleshoot bundles.
func (c Config) Redacted() Config {
	c.Jira.Address = redacted
	c.Jira.Username = redacted
	c.Jira.APIToken = redacted
	return c
}

// Save writes the config to path, e.g. the generated file from setup mode.
func Save(c Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
