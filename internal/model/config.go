package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// StringList accepts either a YAML sequence of strings or a single
// comma-separated scalar ("one, two"). Both forms appear in the wild for
// additional_labels and recipient lists.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	case yaml.ScalarNode:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("expected a string or a list of strings")
	}
}

// JiraTarget is one tracker destination: base URL, credentials, project,
// field template, and per-target overrides.
type JiraTarget struct {
	// URL is the tracker base URL (https://jira.example.com).
	URL string `yaml:"url"`

	// Username and Password authenticate with HTTP basic auth; Token with
	// a bearer Personal Access Token. Token wins when both are set. Values
	// may be "keyring:<key>" references resolved before use.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`

	// Project is the tracker project key tickets are filed under.
	Project string `yaml:"project"`

	// Fields is the field template applied to every created ticket
	// (e.g. "Issue Type", "Assignee", "Epic Link"). Keys are tracker field
	// names and are case-sensitive.
	Fields map[string]any `yaml:"fields"`

	// CustomMapping remaps the default severity table's output priority to
	// a project-specific one (e.g. Blocker -> Very High).
	CustomMapping map[string]string `yaml:"custom_mapping"`

	// SeparateEpicLinkage links tickets to the epic in a follow-up call
	// instead of through the "Epic Link" field at creation time.
	SeparateEpicLinkage bool `yaml:"separate_epic_linkage"`

	// MaxDescriptionSize cuts ticket bodies above this many characters,
	// pushing the remainder into comments. Zero disables the cut.
	MaxDescriptionSize int `yaml:"max_description_size"`

	// AdditionalLabels are attached to every ticket on this target.
	AdditionalLabels StringList `yaml:"additional_labels"`
}

// JiraConfig is the Jira reporter configuration: the default target plus
// pattern-keyed dynamic rules.
type JiraConfig struct {
	JiraTarget `yaml:",inline"`

	// DynamicJira routes findings whose endpoints match a pattern to an
	// alternate target. Patterns are regular expressions matched at the
	// start of the endpoint string.
	DynamicJira map[string]JiraTarget `yaml:"dynamic_jira"`

	// DynamicLabels adds a label to findings whose endpoints match.
	DynamicLabels map[string]string `yaml:"dynamic_labels"`

	// DynamicFields overrides ticket fields for findings whose endpoints
	// match. Later matches win per field key.
	DynamicFields map[string]map[string]any `yaml:"dynamic_fields"`
}

// EngagementConfig is the engagement issue endpoint configuration.
type EngagementConfig struct {
	// URL is the issues REST endpoint base.
	URL string `yaml:"url"`

	// Token authenticates the bulk submit call; may be a keyring reference.
	Token string `yaml:"token"`

	// EngagementID tags submitted issues with the engagement under which
	// the scan ran.
	EngagementID string `yaml:"engagement_id"`
}

// EmailConfig configures the notification email sent after reporting.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// From is the envelope sender; Recipients the envelope recipients
	// (list or comma-separated).
	From       string     `yaml:"from"`
	Recipients StringList `yaml:"recipients"`

	// Subject overrides the default notification subject.
	Subject string `yaml:"subject"`

	// Attachments are file paths attached to the notification.
	Attachments StringList `yaml:"attachments"`
}

// ReportersConfig groups the configured reporting adapters. A nil entry
// means the reporter is not configured and is skipped.
type ReportersConfig struct {
	Jira       *JiraConfig       `yaml:"jira"`
	Engagement *EngagementConfig `yaml:"engagement"`
	Email      *EmailConfig      `yaml:"email"`
}

// HistoryConfig controls the local run-history database.
type HistoryConfig struct {
	// Path is the sqlite database location. Empty disables history.
	Path string `mapstructure:"path" yaml:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	Reporters ReportersConfig `mapstructure:"-" yaml:"reporters"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/scanreport/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "scanreport", "config.yaml")
}

// DefaultHistoryPath returns the default run-history database location,
// ~/.config/scanreport/history.db.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "history.db")
	}
	return filepath.Join(home, ".config", "scanreport", "history.db")
}

func defaultConfig() *Config {
	return &Config{
		History: HistoryConfig{Path: DefaultHistoryPath()},
	}
}

// LoadConfig reads configuration from the given YAML file. Viper handles
// file access, defaults, and SCANREPORT_* environment overrides for the
// scalar settings; the reporters tree is then decoded from the raw file
// with yaml.v3 because Viper lower-cases map keys, which would corrupt
// tracker field names ("Epic Link") and regex route patterns. A missing
// file yields the default configuration with no reporters.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetEnvPrefix("SCANREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var caseSensitive struct {
		Reporters ReportersConfig `yaml:"reporters"`
	}
	if err := yaml.Unmarshal(raw, &caseSensitive); err != nil {
		return nil, fmt.Errorf("parsing reporters config %s: %w", path, err)
	}
	cfg.Reporters = caseSensitive.Reporters

	return cfg, nil
}

// SampleConfig is a commented configuration skeleton emitted by the
// sample-config command.
const SampleConfig = `reporters:
  jira:
    url: https://jira.example.com        # Tracker URL
    username: some_username              # Tracker login
    password: keyring:jira-default       # Password, or a keyring reference
    # token: keyring:jira-pat            # Personal Access Token instead of basic auth
    project: SOME-PROJECT                # Project key for new tickets
    fields:                              # Field template for created tickets
      Issue Type: Bug
      Assignee: ticket_assignee
      Epic Link: SOMEPROJECT-1234
      Security Level: SOME_LEVEL
      Component/s:
        - name: Component Name
    custom_mapping:                      # Optional priority remapping
      Critical: Very High
      Major: High
      Medium: Medium
      Minor: Low
      Trivial: Low
    separate_epic_linkage: false         # Link to epic after creation
    max_description_size: 61908          # Cut descriptions above this size
    additional_labels: security, scan    # List or comma-separated string
    dynamic_labels:                      # Pattern -> extra label
      "https://api\\..*": api
    dynamic_fields:                      # Pattern -> field overrides
      "https://api\\..*":
        Assignee: api_owner
    dynamic_jira:                        # Pattern -> alternate target
      "https://staging\\..*":
        url: https://jira-staging.example.com
        username: some_username
        password: keyring:jira-staging
        project: STAGING
        fields:
          Issue Type: Bug
  engagement:
    url: http://engagement.example.com   # Issues REST endpoint
    token: keyring:engagement            # API token
    engagement_id: "1"                   # Engagement under which tests ran
  email:
    host: smtp.example.com
    port: 587
    username: reports@example.com
    password: keyring:smtp
    from: reports@example.com
    recipients: team@example.com         # List or comma-separated string
history:
  path: ~/.config/scanreport/history.db  # Run-history database ("" disables)
`
