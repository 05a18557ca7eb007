//go:build !windows

package events

type watchers struct{}

func newWatchers(emit func(SystemEvent), stopCh <-chan struct{}) *watchers {
	return &watchers{}
}

func (w *watchers) watchProcessExit(pid int) error { return ErrNotSupported }

func (w *watchers) wait() {}
