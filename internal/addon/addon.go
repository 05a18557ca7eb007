package addon

import (
	"errors"
	"sync"

	"AspectLock/internal/logger"
)

// Addon is driven by the host: Init once, then Update every tick until it
// returns false or the host shuts down, then Close.
type Addon interface {
	Name() string
	Init() bool
	Update() bool
	Close() error
}

var (
	ErrDuplicate = errors.New("addon already registered")
	ErrInactive  = errors.New("addon failed to initialize")
)

type Registry struct {
	log *logger.Logger

	mu   sync.RWMutex
	list []Addon
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{log: logger.OrNop(log)}
}

// Register initializes a and keeps it when Init succeeds. An add-on whose
// Init fails is closed and never updated.
func (r *Registry) Register(a Addon) error {
	if _, ok := r.Get(a.Name()); ok {
		return ErrDuplicate
	}
	if !a.Init() {
		r.log.Warn("addon inactive", "addon", a.Name())
		_ = a.Close()
		return ErrInactive
	}
	r.mu.Lock()
	for _, other := range r.list {
		if other.Name() == a.Name() {
			r.mu.Unlock()
			_ = a.Close()
			return ErrDuplicate
		}
	}
	r.list = append(r.list, a)
	r.mu.Unlock()
	r.log.Debug("addon registered", "addon", a.Name())
	return nil
}

func (r *Registry) Get(name string) (Addon, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.list {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Update ticks every add-on once. Add-ons that return false are closed and
// dropped.
func (r *Registry) Update() {
	r.mu.RLock()
	list := append([]Addon(nil), r.list...)
	r.mu.RUnlock()

	var done []Addon
	for _, a := range list {
		if !a.Update() {
			done = append(done, a)
		}
	}
	for _, a := range done {
		r.remove(a)
		if err := a.Close(); err != nil {
			r.log.Warn("addon close failed", "addon", a.Name(), "error", err)
		}
		r.log.Info("addon finished", "addon", a.Name())
	}
}

func (r *Registry) remove(a Addon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.list {
		if x == a {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return
		}
	}
}

// Close tears down add-ons in reverse registration order.
func (r *Registry) Close() error {
	r.mu.Lock()
	list := r.list
	r.list = nil
	r.mu.Unlock()

	var errs []error
	for i := len(list) - 1; i >= 0; i-- {
		if err := list[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
