//go:build !windows

package window

import (
	"AspectLock/internal/aspect"
	"AspectLock/internal/events"
)

var _ aspect.WindowSystem = (*System)(nil)

type procCache struct{}

func newProcCache() *procCache { return &procCache{} }

func (s *System) FindWindow(q aspect.Query) (aspect.Handle, error) {
	if q.IsZero() {
		return 0, ErrEmptyQuery
	}
	return 0, events.ErrNotSupported
}

func (s *System) ProcessID(h aspect.Handle) uint32 { return 0 }

func (s *System) WindowRect(h aspect.Handle) (aspect.Rect, error) {
	return aspect.Rect{}, events.ErrNotSupported
}

func (s *System) MoveWindow(h aspect.Handle, r aspect.Rect) error {
	return events.ErrNotSupported
}

func (s *System) FrameOffset(style aspect.FrameStyle) (int32, int32, error) {
	return 0, 0, events.ErrNotSupported
}

func (s *System) Subscribe(pid uint32, fn func(aspect.Gesture)) (aspect.Subscription, error) {
	return nil, events.ErrNotSupported
}

func (s *System) DrainMessage() bool { return false }

func (s *System) List() ([]aspect.Info, error) { return nil, events.ErrNotSupported }
