package events

import (
	"errors"
	"sync"
)

type EventType string

const (
	EventMoveSizeStart  EventType = "movesize_start"
	EventMoveSizeEnd    EventType = "movesize_end"
	EventProcessExited  EventType = "process_exited"
	EventWatcherStopped EventType = "watcher_stopped"
)

type SystemEvent struct {
	Type      EventType      `json:"type"`
	Timestamp int64          `json:"timestampUTC"`
	PID       int            `json:"pid"`
	HWND      uintptr        `json:"hwnd"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Bus fans system events out to a single consumer. Emit never blocks; events
// are dropped when the buffer is full.
type Bus struct {
	ch     chan SystemEvent
	stopCh chan struct{}
	once   sync.Once

	srcMu sync.Mutex
	src   *watchers
}

func NewBus(buffer int) *Bus {
	return &Bus{
		ch:     make(chan SystemEvent, buffer),
		stopCh: make(chan struct{}),
	}
}

func (b *Bus) Events() <-chan SystemEvent { return b.ch }

func (b *Bus) Emit(ev SystemEvent) {
	select {
	case b.ch <- ev:
	default:
	}
}

// WatchProcessExit emits EventProcessExited once pid terminates.
func (b *Bus) WatchProcessExit(pid int) error {
	if pid <= 0 {
		return errors.New("invalid pid")
	}
	b.srcMu.Lock()
	defer b.srcMu.Unlock()
	if b.src == nil {
		b.src = newWatchers(b.Emit, b.stopCh)
	}
	return b.src.watchProcessExit(pid)
}

// Stop ends every watcher and waits for them.
func (b *Bus) Stop() {
	b.once.Do(func() {
		close(b.stopCh)
	})
	b.srcMu.Lock()
	src := b.src
	b.srcMu.Unlock()
	if src != nil {
		src.wait()
	}
}

var ErrNotSupported = errors.New("not supported")
