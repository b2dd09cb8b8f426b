//go:build darwin

package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// OSAScriptNotifier sends macOS system notifications via osascript.
type OSAScriptNotifier struct {
	// enabled controls whether notifications are actually sent.
	// When false, Notify is a no-op.
	enabled bool
}

// NewOSAScriptNotifier creates a new macOS notification sender.
// If enabled is false, notifications are silently dropped.
func NewOSAScriptNotifier(enabled bool) *OSAScriptNotifier {
	return &OSAScriptNotifier{enabled: enabled}
}

// NewPlatformNotifier creates the platform-appropriate notifier for macOS.
func NewPlatformNotifier(enabled bool) Notifier {
	return NewOSAScriptNotifier(enabled)
}

// Notify returns immediately; osascript runs in the background and errors
// are logged.
func (n *OSAScriptNotifier) Notify(note Notification) {
	if !n.enabled {
		return
	}

	go func() {
		if err := exec.Command("osascript", "-e", osaScript(note)).Run(); err != nil {
			slog.Warn("failed to send macOS notification", "error", err)
		}
	}()
}

func osaScript(note Notification) string {
	title := escapeAppleScript(note.Title)
	message := escapeAppleScript(note.Body)
	if note.Critical {
		return fmt.Sprintf(`display notification "%s" with title "%s" sound name "Basso"`, message, title)
	}
	return fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
}

// escapeAppleScript escapes characters that could break AppleScript strings.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
