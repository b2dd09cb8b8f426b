package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	LayoutCards = "cards"
	LayoutTable = "table"
)

type Config struct {
	Source  SourceConfig
	Display DisplayConfig
	Server  ServerConfig
	Storage StorageConfig
	Logging LoggingConfig
	Alerts  AlertsConfig
}

type SourceConfig struct {
	Location       string `toml:"location"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

type DisplayConfig struct {
	Layout       string `toml:"layout"`
	SummaryWidth int    `toml:"summary_width"`
	ShowHelp     bool   `toml:"show_help"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type StorageConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	JSON  bool   `toml:"json"`
}

type AlertsConfig struct {
	SystemNotify bool `toml:"system_notify"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Location:       "data/display_subset_v2.json",
			TimeoutSeconds: 10,
			Retries:        3,
		},
		Display: DisplayConfig{
			Layout:       LayoutCards,
			SummaryWidth: 60,
			ShowHelp:     true,
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 7430,
		},
		Storage: StorageConfig{
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "evdash", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultConfigPath())
}

func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	result, err := LoadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return result, nil
}

var knownTopLevel = map[string]bool{
	"source":  true,
	"display": true,
	"server":  true,
	"storage": true,
	"logging": true,
	"alerts":  true,
}

func LoadFromString(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	if data == "" {
		return result, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

type tomlFile struct {
	Source  *SourceConfig  `toml:"source"`
	Display *DisplayConfig `toml:"display"`
	Server  *ServerConfig  `toml:"server"`
	Storage *StorageConfig `toml:"storage"`
	Logging *LoggingConfig `toml:"logging"`
	Alerts  *AlertsConfig  `toml:"alerts"`
}

// mergeFromRaw copies only the keys actually present in the file so that
// zero values in the decoded structs never clobber defaults.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Source != nil {
		if section, ok := rawSection(raw, "source"); ok {
			if _, exists := section["location"]; exists {
				cfg.Source.Location = tf.Source.Location
			}
			if _, exists := section["timeout_seconds"]; exists {
				cfg.Source.TimeoutSeconds = tf.Source.TimeoutSeconds
			}
			if _, exists := section["retries"]; exists {
				cfg.Source.Retries = tf.Source.Retries
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["layout"]; exists {
				cfg.Display.Layout = strings.ToLower(tf.Display.Layout)
			}
			if _, exists := section["summary_width"]; exists {
				cfg.Display.SummaryWidth = tf.Display.SummaryWidth
			}
			if _, exists := section["show_help"]; exists {
				cfg.Display.ShowHelp = tf.Display.ShowHelp
			}
		}
	}
	if tf.Server != nil {
		if section, ok := rawSection(raw, "server"); ok {
			if _, exists := section["bind"]; exists {
				cfg.Server.Bind = tf.Server.Bind
			}
			if _, exists := section["port"]; exists {
				cfg.Server.Port = tf.Server.Port
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.Storage.RetentionDays = tf.Storage.RetentionDays
			}
		}
	}
	if tf.Logging != nil {
		if section, ok := rawSection(raw, "logging"); ok {
			if _, exists := section["level"]; exists {
				cfg.Logging.Level = tf.Logging.Level
			}
			if _, exists := section["file"]; exists {
				cfg.Logging.File = tf.Logging.File
			}
			if _, exists := section["json"]; exists {
				cfg.Logging.JSON = tf.Logging.JSON
			}
		}
	}
	if tf.Alerts != nil {
		if section, ok := rawSection(raw, "alerts"); ok {
			if _, exists := section["system_notify"]; exists {
				cfg.Alerts.SystemNotify = tf.Alerts.SystemNotify
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

var validLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

func validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Source.Location) == "" {
		errs = append(errs, "source location must not be empty")
	}
	if cfg.Source.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("source timeout_seconds must be positive, got %d", cfg.Source.TimeoutSeconds))
	}
	if cfg.Source.Retries < 0 {
		errs = append(errs, fmt.Sprintf("source retries must not be negative, got %d", cfg.Source.Retries))
	}

	if cfg.Display.Layout != LayoutCards && cfg.Display.Layout != LayoutTable {
		errs = append(errs, fmt.Sprintf("display layout must be %q or %q, got %q", LayoutCards, LayoutTable, cfg.Display.Layout))
	}
	if cfg.Display.SummaryWidth < 10 {
		errs = append(errs, fmt.Sprintf("display summary_width must be at least 10, got %d", cfg.Display.SummaryWidth))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server port must be 1-65535, got %d", cfg.Server.Port))
	}

	if cfg.Storage.RetentionDays <= 0 {
		errs = append(errs, fmt.Sprintf("storage retention_days must be positive, got %d", cfg.Storage.RetentionDays))
	}

	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging level must be debug, info, warn or error, got %q", cfg.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
