//go:build !windows

package events

type MoveSizeHook struct{}

func NewMoveSizeHook(pid uint32, emit func(SystemEvent)) (*MoveSizeHook, error) {
	return nil, ErrNotSupported
}

func (w *MoveSizeHook) Close() error { return nil }

func DrainOne() bool { return false }
