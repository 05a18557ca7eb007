//go:build windows

package events

import (
	"sync"
)

type watchers struct {
	emit   func(SystemEvent)
	stopCh <-chan struct{}

	mu   sync.Mutex
	pids map[int]bool

	wg sync.WaitGroup
}

func newWatchers(emit func(SystemEvent), stopCh <-chan struct{}) *watchers {
	return &watchers{emit: emit, stopCh: stopCh, pids: map[int]bool{}}
}

func (w *watchers) watchProcessExit(pid int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pids[pid] {
		return nil
	}
	w.pids[pid] = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.forget(pid)
		runProcessExitWatcher(pid, w.emit, w.stopCh)
	}()
	return nil
}

func (w *watchers) forget(pid int) {
	w.mu.Lock()
	delete(w.pids, pid)
	w.mu.Unlock()
}

func (w *watchers) wait() {
	w.wg.Wait()
}
