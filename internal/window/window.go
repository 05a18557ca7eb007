package window

import (
	"errors"
	"fmt"
	"os"

	"AspectLock/internal/aspect"
	"AspectLock/internal/events"
	"AspectLock/internal/logger"
)

var (
	ErrNotFound   = errors.New("window not found")
	ErrEmptyQuery = errors.New("empty window query")
)

// System is the Win32 window system. On other platforms every call fails
// with events.ErrNotSupported.
type System struct {
	log   *logger.Logger
	procs *procCache
}

func New(log *logger.Logger) *System {
	return &System{log: logger.OrNop(log), procs: newProcCache()}
}

// SelfQuery matches the calling process's own top-level window: the window
// class is the normalized executable path and the title is given.
func SelfQuery(title string) (aspect.Query, error) {
	exe, err := os.Executable()
	if err != nil {
		return aspect.Query{}, fmt.Errorf("resolve executable: %w", err)
	}
	return aspect.Query{
		ClassName: aspect.NormalizedPath(exe),
		Title:     title,
		PID:       uint32(os.Getpid()),
	}, nil
}

// Select picks the window for q from candidates in z-order: the first visible
// match wins, then the first hidden one.
func Select(q aspect.Query, candidates []aspect.Info) (aspect.Handle, bool) {
	var hidden aspect.Handle
	for _, w := range candidates {
		if !q.Matches(w) {
			continue
		}
		if w.Visible {
			return w.Handle, true
		}
		if hidden == 0 {
			hidden = w.Handle
		}
	}
	return hidden, hidden != 0
}

func gestureFor(t events.EventType) (aspect.Gesture, bool) {
	switch t {
	case events.EventMoveSizeStart:
		return aspect.GestureStart, true
	case events.EventMoveSizeEnd:
		return aspect.GestureEnd, true
	}
	return 0, false
}
