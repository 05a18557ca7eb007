//go:build !windows

package services

import "AspectLock/internal/events"

func IsAutostartEnabled() bool { return false }

func SetAutostart(enabled bool, args ...string) error {
	return events.ErrNotSupported
}
