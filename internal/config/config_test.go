package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewUsesDefaultsWhenNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Project.Models.Extraction != defaultExtractionModel {
		t.Fatalf("extraction model: got %q", cfg.Project.Models.Extraction)
	}
	if cfg.Project.Inbox.MaxResults != 5 {
		t.Fatalf("inbox max: got %d", cfg.Project.Inbox.MaxResults)
	}
	if cfg.Project.Inbox.Query != "subject:RFP OR subject:proposal" {
		t.Fatalf("inbox query: got %q", cfg.Project.Inbox.Query)
	}
	want := filepath.Join(dir, DeskDir, "token.json")
	if cfg.TokenPath() != want {
		t.Fatalf("token path: got %q want %q", cfg.TokenPath(), want)
	}
}

func TestInitDeskDirSeedsConfig(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeskDir(dir); err != nil {
		t.Fatalf("InitDeskDir: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, DeskDir, "config.yaml"))
	if err != nil {
		t.Fatalf("seeded config missing: %v", err)
	}
	if !strings.Contains(string(data), "subject:RFP OR subject:proposal") {
		t.Fatalf("seeded config missing inbox query: %s", data)
	}
	// Re-running must not clobber an existing config.
	if err := os.WriteFile(filepath.Join(dir, DeskDir, "config.yaml"), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	if err := InitDeskDir(dir); err != nil {
		t.Fatalf("InitDeskDir second run: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, DeskDir, "config.yaml"))
	if string(data) != "version: 1\n" {
		t.Fatalf("existing config overwritten: %s", data)
	}
}

func TestLoadProjectConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeskDir(dir); err != nil {
		t.Fatalf("InitDeskDir: %v", err)
	}
	body := `version: 1
models:
  extraction: test-extract
  proposal: test-propose
  max_tokens: 128
inbox:
  query: "subject:tender"
  max_results: 2
auth:
  client_secret: secrets/oauth.json
  token: state/token.json
`
	if err := os.WriteFile(filepath.Join(dir, DeskDir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Project.Models.Extraction != "test-extract" || cfg.Project.Models.MaxTokens != 128 {
		t.Fatalf("models not loaded: %+v", cfg.Project.Models)
	}
	if cfg.Project.Inbox.Query != "subject:tender" || cfg.Project.Inbox.MaxResults != 2 {
		t.Fatalf("inbox not loaded: %+v", cfg.Project.Inbox)
	}
	if cfg.ClientSecretPath() != filepath.Join(dir, "secrets", "oauth.json") {
		t.Fatalf("secret path: %q", cfg.ClientSecretPath())
	}
	if cfg.TokenPath() != filepath.Join(dir, "state", "token.json") {
		t.Fatalf("token path: %q", cfg.TokenPath())
	}
	// BaseURL falls back to the default even when the file omits it.
	if cfg.Project.Models.BaseURL != defaultBaseURL {
		t.Fatalf("base url: %q", cfg.Project.Models.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero version", "version: -1\n"},
		{"negative tokens", "version: 1\nmodels:\n  max_tokens: -5\n"},
		{"negative inbox cap", "version: 1\ninbox:\n  max_results: -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := InitDeskDir(dir); err != nil {
				t.Fatalf("InitDeskDir: %v", err)
			}
			if err := os.WriteFile(filepath.Join(dir, DeskDir, "config.yaml"), []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := New(dir); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}
