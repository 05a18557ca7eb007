package addon

import (
	"context"
	"errors"
	"runtime"
	"time"

	"AspectLock/internal/logger"
)

const DefaultTickInterval = 16 * time.Millisecond

var ErrStopped = errors.New("host stopped")

// Host owns a single OS thread and ticks its registry on it. Win32 event
// hooks are delivered to the thread that installed them, so everything that
// touches an add-on goes through Do/Call.
type Host struct {
	reg      *Registry
	interval time.Duration
	log      *logger.Logger

	tasks chan func()
	done  chan struct{}
}

func NewHost(interval time.Duration, log *logger.Logger) *Host {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	log = logger.OrNop(log)
	return &Host{
		reg:      NewRegistry(log),
		interval: interval,
		log:      log,
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

func (h *Host) Registry() *Registry { return h.reg }

// Do queues fn to run on the host thread before the next tick.
func (h *Host) Do(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.done:
	}
}

// Call runs fn on the host thread and waits for it.
func (h *Host) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case h.tasks <- task:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register initializes a on the host thread.
func (h *Host) Register(ctx context.Context, a Addon) error {
	var err error
	if cerr := h.Call(ctx, func() { err = h.reg.Register(a) }); cerr != nil {
		return cerr
	}
	return err
}

// Run ticks until ctx is cancelled, then closes every add-on on the same
// thread. It must be called at most once.
func (h *Host) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.log.Debug("host loop started", "interval", h.interval)
	for {
		select {
		case <-ctx.Done():
			h.drain()
			if err := h.reg.Close(); err != nil {
				h.log.Warn("addon teardown failed", "error", err)
			}
			h.log.Debug("host loop stopped")
			return ctx.Err()
		case fn := <-h.tasks:
			fn()
		case <-ticker.C:
			h.reg.Update()
		}
	}
}

func (h *Host) drain() {
	for {
		select {
		case fn := <-h.tasks:
			fn()
		default:
			return
		}
	}
}
