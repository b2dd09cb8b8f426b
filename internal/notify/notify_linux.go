//go:build linux

package notify

import (
	"log/slog"
	"os/exec"
)

// NotifySendNotifier sends Linux desktop notifications via notify-send.
// Notifications are sent in a background goroutine so a slow notification
// daemon never stalls a load.
type NotifySendNotifier struct {
	// enabled controls whether notifications are actually sent.
	// When false, Notify is a no-op.
	enabled bool
}

// NewNotifySendNotifier creates a new Linux notification sender.
// If enabled is false, notifications are silently dropped.
func NewNotifySendNotifier(enabled bool) *NotifySendNotifier {
	return &NotifySendNotifier{enabled: enabled}
}

// NewPlatformNotifier creates the platform-appropriate notifier for Linux.
func NewPlatformNotifier(enabled bool) Notifier {
	return NewNotifySendNotifier(enabled)
}

// Notify returns immediately; notify-send runs in the background and
// errors are logged.
func (n *NotifySendNotifier) Notify(note Notification) {
	if !n.enabled {
		return
	}

	go func() {
		if err := exec.Command("notify-send", notifySendArgs(note)...).Run(); err != nil {
			slog.Warn("failed to send Linux notification", "error", err)
		}
	}()
}

func notifySendArgs(note Notification) []string {
	urgency := "normal"
	if note.Critical {
		urgency = "critical"
	}
	return []string{"--urgency", urgency, "--app-name", "evdash", note.Title, note.Body}
}
