package web

import (
	"context"
	"time"
)

// ShutdownManager runs the serve command's teardown in order: stop the HTTP
// server with a bounded drain, stop background work, then release resources.
type ShutdownManager struct {
	// DrainTimeout bounds how long in-flight requests may take to finish.
	DrainTimeout time.Duration

	StopServer func(ctx context.Context) error

	// StopReload stops the periodic reload loop, if one is running.
	StopReload func()

	// Cleanup closes the journal and anything else holding files.
	Cleanup func()
}

// NewShutdownManager creates a ShutdownManager with a 5-second drain timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown runs every step even when an earlier one fails and returns the
// server's error, if any.
func (sm *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
	defer cancel()

	var err error
	if sm.StopServer != nil {
		err = sm.StopServer(ctx)
	}
	if sm.StopReload != nil {
		sm.StopReload()
	}
	if sm.Cleanup != nil {
		sm.Cleanup()
	}
	return err
}
