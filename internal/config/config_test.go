package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigParser_Defaults(t *testing.T) {
	result, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing config file, got: %v", err)
	}

	cfg := result.Config

	if cfg.Source.Location != "data/display_subset_v2.json" {
		t.Errorf("default location: want data/display_subset_v2.json, got %s", cfg.Source.Location)
	}
	if cfg.Source.TimeoutSeconds != 10 {
		t.Errorf("default timeout_seconds: want 10, got %d", cfg.Source.TimeoutSeconds)
	}
	if cfg.Source.Retries != 3 {
		t.Errorf("default retries: want 3, got %d", cfg.Source.Retries)
	}
	if cfg.Display.Layout != LayoutCards {
		t.Errorf("default layout: want cards, got %s", cfg.Display.Layout)
	}
	if cfg.Display.SummaryWidth != 60 {
		t.Errorf("default summary_width: want 60, got %d", cfg.Display.SummaryWidth)
	}
	if !cfg.Display.ShowHelp {
		t.Error("default show_help: want true, got false")
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("default bind: want 127.0.0.1, got %s", cfg.Server.Bind)
	}
	if cfg.Server.Port != 7430 {
		t.Errorf("default port: want 7430, got %d", cfg.Server.Port)
	}
	if cfg.Storage.DBPath != "" {
		t.Errorf("default db_path: want empty, got %q", cfg.Storage.DBPath)
	}
	if cfg.Storage.RetentionDays != 30 {
		t.Errorf("default retention_days: want 30, got %d", cfg.Storage.RetentionDays)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default level: want info, got %s", cfg.Logging.Level)
	}
	if cfg.Alerts.SystemNotify {
		t.Error("default system_notify: want false, got true")
	}

	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings for missing file, got %v", result.Warnings)
	}
}

func TestConfigParser_PartialConfig(t *testing.T) {
	tomlData := `
[source]
location = "https://example.com/events.json"

[display]
layout = "Table"
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := result.Config
	if cfg.Source.Location != "https://example.com/events.json" {
		t.Errorf("location: got %s", cfg.Source.Location)
	}
	if cfg.Display.Layout != LayoutTable {
		t.Errorf("layout: want table, got %s", cfg.Display.Layout)
	}

	if cfg.Source.TimeoutSeconds != 10 {
		t.Errorf("timeout_seconds default should be preserved: want 10, got %d", cfg.Source.TimeoutSeconds)
	}
	if !cfg.Display.ShowHelp {
		t.Error("show_help default should be preserved")
	}
	if cfg.Server.Port != 7430 {
		t.Errorf("port default should be preserved: want 7430, got %d", cfg.Server.Port)
	}
}

func TestConfigParser_ExplicitFalseOverridesDefault(t *testing.T) {
	result, err := LoadFromString(`
[display]
show_help = false

[source]
retries = 0
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Display.ShowHelp {
		t.Error("show_help: want false after explicit override")
	}
	if result.Config.Source.Retries != 0 {
		t.Errorf("retries: want 0, got %d", result.Config.Source.Retries)
	}
}

func TestConfigParser_InvalidValue(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{
			name: "empty location",
			toml: `[source]
location = "  "`,
		},
		{
			name: "zero timeout",
			toml: `[source]
timeout_seconds = 0`,
		},
		{
			name: "negative retries",
			toml: `[source]
retries = -1`,
		},
		{
			name: "unknown layout",
			toml: `[display]
layout = "grid"`,
		},
		{
			name: "narrow summary",
			toml: `[display]
summary_width = 5`,
		},
		{
			name: "port over 65535",
			toml: `[server]
port = 70000`,
		},
		{
			name: "zero retention",
			toml: `[storage]
retention_days = 0`,
		},
		{
			name: "bad log level",
			toml: `[logging]
level = "chatty"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.toml)
			if err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigParser_MultipleViolationsJoined(t *testing.T) {
	_, err := LoadFromString(`
[server]
port = 0

[storage]
retention_days = -1
`)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "server port") || !strings.Contains(msg, "retention_days") {
		t.Errorf("expected both violations in error, got %q", msg)
	}
}

func TestConfigParser_UnknownKey(t *testing.T) {
	tomlData := `
[server]
port = 8080

[mysterious_section]
foo = "bar"
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unknown keys should not cause errors, got: %v", err)
	}

	found := false
	for _, w := range result.Warnings {
		if w == `unknown config key: "mysterious_section"` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning for mysterious_section, got %v", result.Warnings)
	}

	if result.Config.Server.Port != 8080 {
		t.Errorf("port should still be loaded: want 8080, got %d", result.Config.Server.Port)
	}
}

func TestConfigParser_MalformedTOML(t *testing.T) {
	if _, err := LoadFromString("[source\nlocation = "); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestConfigParser_FileLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	tomlContent := `
[storage]
db_path = "~/.local/share/evdash/journal.db"

[logging]
level = "debug"
json = true
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("writing test config file: %v", err)
	}

	result, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Config.Storage.DBPath != "~/.local/share/evdash/journal.db" {
		t.Errorf("db_path from file: got %q", result.Config.Storage.DBPath)
	}
	if result.Config.Logging.Level != "debug" || !result.Config.Logging.JSON {
		t.Errorf("logging from file: got %+v", result.Config.Logging)
	}
	if result.Config.Storage.RetentionDays != 30 {
		t.Errorf("retention_days default: want 30, got %d", result.Config.Storage.RetentionDays)
	}
}

func TestConfigParser_EmptyString(t *testing.T) {
	result, err := LoadFromString("")
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	if result.Config != DefaultConfig() {
		t.Errorf("empty config should equal defaults, got %+v", result.Config)
	}
}
