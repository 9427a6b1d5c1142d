// internal/config/config.go
//
// This package handles configuration and the .rfpdesk directory structure.
// Every project that uses rfpdesk gets a .rfpdesk/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DeskDir is the name of the directory we create in each project
	DeskDir = ".rfpdesk"

	defaultExtractionModel = "claude-sonnet-4-20250514"
	defaultProposalModel   = "claude-3-opus-20240229"
	defaultMaxTokens       = 4000
	defaultBaseURL         = "https://api.anthropic.com"
	defaultInboxQuery      = "subject:RFP OR subject:proposal"
	defaultInboxMax        = 5
	defaultSecretFile      = "credentials.json"
	defaultLogMaxSizeMB    = 5
	defaultLogMaxBackups   = 3
)

const defaultProjectConfigYAML = `# rfpdesk project configuration
version: 1

models:
  # Extraction reads the uploaded PDFs, so it needs file-attachment support.
  extraction: claude-sonnet-4-20250514
  proposal: claude-3-opus-20240229
  max_tokens: 4000

inbox:
  query: "subject:RFP OR subject:proposal"
  max_results: 5

auth:
  # Service-provided OAuth client secret. Not generated by rfpdesk.
  client_secret: credentials.json
`

// ModelsConfig selects the generative models and their token budget.
type ModelsConfig struct {
	Extraction string `yaml:"extraction"`
	Proposal   string `yaml:"proposal"`
	MaxTokens  int    `yaml:"max_tokens"`
	BaseURL    string `yaml:"base_url,omitempty"`
}

// InboxConfig controls the mailbox search.
type InboxConfig struct {
	Query      string `yaml:"query"`
	MaxResults int    `yaml:"max_results"`
}

// AuthConfig points at the OAuth secret and the persisted token.
type AuthConfig struct {
	ClientSecretPath string `yaml:"client_secret"`
	TokenPath        string `yaml:"token,omitempty"`
}

// LoggingConfig controls the run log rotation.
type LoggingConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

// ProjectConfig models .rfpdesk/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Models  ModelsConfig  `yaml:"models"`
	Inbox   InboxConfig   `yaml:"inbox"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// Config holds the runtime configuration for rfpdesk.
type Config struct {
	// ProjectDir is the directory where the user ran `rfpdesk` from
	ProjectDir string

	// DeskProjectDir is ProjectDir/.rfpdesk
	DeskProjectDir string

	Project ProjectConfig
}

// InitDeskDir creates the .rfpdesk directory structure in the given project
// directory. This is called when the TUI starts up.
//
// Structure created:
// .rfpdesk/
// ├── logs/         <- run log
// └── config.yaml
func InitDeskDir(projectDir string) error {
	deskDir := filepath.Join(projectDir, DeskDir)
	if err := os.MkdirAll(filepath.Join(deskDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(deskDir, "config.yaml"))
}

// New creates a Config instance populated with project settings.
func New(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:     projectDir,
		DeskProjectDir: filepath.Join(projectDir, DeskDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DeskProjectDir, "logs")
}

// LogPath returns the run log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "rfpdesk.log")
}

// TokenPath returns the location of the persisted OAuth token.
func (c *Config) TokenPath() string {
	if p := strings.TrimSpace(c.Project.Auth.TokenPath); p != "" {
		return resolvePath(c.ProjectDir, p)
	}
	return filepath.Join(c.DeskProjectDir, "token.json")
}

// ClientSecretPath returns the location of the OAuth client secret file.
func (c *Config) ClientSecretPath() string {
	return resolvePath(c.ProjectDir, c.Project.Auth.ClientSecretPath)
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DeskProjectDir, "config.yaml")
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Models: ModelsConfig{
			Extraction: defaultExtractionModel,
			Proposal:   defaultProposalModel,
			MaxTokens:  defaultMaxTokens,
			BaseURL:    defaultBaseURL,
		},
		Inbox: InboxConfig{
			Query:      defaultInboxQuery,
			MaxResults: defaultInboxMax,
		},
		Auth: AuthConfig{
			ClientSecretPath: defaultSecretFile,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Models.Extraction == "" {
		pc.Models.Extraction = defaultExtractionModel
	}
	if pc.Models.Proposal == "" {
		pc.Models.Proposal = defaultProposalModel
	}
	if pc.Models.MaxTokens == 0 {
		pc.Models.MaxTokens = defaultMaxTokens
	}
	if pc.Models.BaseURL == "" {
		pc.Models.BaseURL = defaultBaseURL
	}
	if pc.Inbox.Query == "" {
		pc.Inbox.Query = defaultInboxQuery
	}
	if pc.Inbox.MaxResults == 0 {
		pc.Inbox.MaxResults = defaultInboxMax
	}
	if pc.Auth.ClientSecretPath == "" {
		pc.Auth.ClientSecretPath = defaultSecretFile
	}
	if pc.Logging.MaxSizeMB == 0 {
		pc.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if pc.Logging.MaxBackups == 0 {
		pc.Logging.MaxBackups = defaultLogMaxBackups
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Models.Extraction = strings.TrimSpace(pc.Models.Extraction)
	pc.Models.Proposal = strings.TrimSpace(pc.Models.Proposal)
	pc.Models.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Models.BaseURL), "/")
	pc.Inbox.Query = strings.TrimSpace(pc.Inbox.Query)
	pc.Auth.ClientSecretPath = strings.TrimSpace(pc.Auth.ClientSecretPath)
	pc.Auth.TokenPath = strings.TrimSpace(pc.Auth.TokenPath)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Models.Extraction == "" {
		return fmt.Errorf("models.extraction is required")
	}
	if pc.Models.Proposal == "" {
		return fmt.Errorf("models.proposal is required")
	}
	if pc.Models.MaxTokens < 1 {
		return fmt.Errorf("models.max_tokens must be positive")
	}
	if pc.Inbox.Query == "" {
		return fmt.Errorf("inbox.query is required")
	}
	if pc.Inbox.MaxResults < 1 {
		return fmt.Errorf("inbox.max_results must be positive")
	}
	if pc.Auth.ClientSecretPath == "" {
		return fmt.Errorf("auth.client_secret is required")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
