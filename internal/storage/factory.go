package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nixlim/evdash/internal/config"
)

// NewJournal opens the SQLite journal at cfg.DBPath. An empty path, or a
// database that cannot be opened, yields an in-memory journal; the bool
// reports whether entries will survive a restart.
func NewJournal(cfg config.StorageConfig, logger *slog.Logger) (Journal, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DBPath == "" {
		return NewMemoryJournal(), false
	}

	dbPath := expandTilde(cfg.DBPath)

	j, err := NewSQLiteJournal(dbPath, cfg.RetentionDays, logger)
	if err != nil {
		logger.Warn("SQLite journal unavailable, falling back to in-memory journal", "path", dbPath, "error", err)
		return NewMemoryJournal(), false
	}

	return j, true
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
