//go:build !linux && !darwin

package notify

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

// NewPlatformNotifier returns a no-op notifier on platforms without a
// supported notification command.
func NewPlatformNotifier(bool) Notifier {
	return nopNotifier{}
}
