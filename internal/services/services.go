package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"AspectLock/internal/addon"
	"AspectLock/internal/aspect"
	"AspectLock/internal/events"
	"AspectLock/internal/ipcapi"
	"AspectLock/internal/logger"
	"AspectLock/internal/policy"
	"AspectLock/internal/trayhotkey"
	"AspectLock/internal/window"
)

const retryInterval = 500 * time.Millisecond

type Dependencies struct {
	EmitEvent func(name string, data any)
	Logger    *logger.Logger
	// Windows defaults to the native window system.
	Windows aspect.WindowSystem
}

type Services struct {
	deps Dependencies
	log  *logger.Logger

	cfgMu sync.RWMutex
	cfg   *policy.Config

	ev   *events.Bus
	host *addon.Host
	ctl  *aspect.Controller
	th   *trayhotkey.Manager

	done     chan struct{}
	stopOnce sync.Once
}

func New(cfg *policy.Config, deps Dependencies) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rounding, err := aspect.ParseRounding(cfg.Rounding)
	if err != nil {
		return nil, err
	}
	query := cfg.Target.Query()
	if cfg.Target.Self {
		if query, err = window.SelfQuery(cfg.Target.Title); err != nil {
			return nil, err
		}
	}

	log := logger.OrNop(deps.Logger)
	if deps.Windows == nil {
		deps.Windows = window.New(log)
	}
	s := &Services{
		deps: deps,
		log:  log,
		cfg:  cfg,
		ev:   events.NewBus(64),
		host: addon.NewHost(cfg.TickInterval, log),
		done: make(chan struct{}),
	}
	if s.deps.EmitEvent == nil {
		s.deps.EmitEvent = func(name string, data any) {
			s.log.Debug("event", "name", name, "data", data)
		}
	}
	s.ctl = aspect.NewController(deps.Windows, aspect.Options{
		Query:     query,
		Ratio:     cfg.RatioValue(),
		Rounding:  rounding,
		Logger:    log,
		OnEnforce: s.onEnforce,
	})
	s.th = trayhotkey.NewManager(trayhotkey.Dependencies{
		Tray:         cfg.Tray,
		Hotkey:       cfg.Hotkey,
		Presets:      cfg.Presets,
		ActivePreset: cfg.Ratio,
		OnPreset: func(label string) {
			if err := s.SetRatio(label); err != nil {
				s.log.Warn("preset rejected", "preset", label, "error", err)
			}
		},
		OnSnap:   s.Snap,
		OnPause:  s.Pause,
		OnResume: s.Resume,
		OnToggle: s.Toggle,
		OnExit: func() {
			s.deps.EmitEvent(ipcapi.EventExitRequested, nil)
			s.Stop()
		},
	})
	return s, nil
}

func (s *Services) Controller() *aspect.Controller { return s.ctl }

// Run attaches to the target window and blocks until ctx is cancelled or
// Stop is called. It fails when the window cannot be attached within the
// configured wait timeout.
func (s *Services) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	hostErr := make(chan error, 1)
	go func() { hostErr <- s.host.Run(ctx) }()

	if err := s.attach(ctx); err != nil {
		cancel()
		<-hostErr
		s.Stop()
		return err
	}

	s.cfgMu.RLock()
	exitWithTarget := s.cfg.ExitWithTarget
	s.cfgMu.RUnlock()
	if exitWithTarget {
		pid := int(s.deps.Windows.ProcessID(s.ctl.Handle()))
		if err := s.ev.WatchProcessExit(pid); err != nil {
			s.log.Debug("process exit watcher unavailable", "pid", pid, "error", err)
		}
	}
	go s.eventLoop(ctx)

	s.th.Start()
	s.th.SetStatus(s.statusText())
	s.deps.EmitEvent(ipcapi.EventStatusChanged, ipcapi.StatusChangedEvent{
		State: "active",
		AtUTC: ipcapi.NowUTC(),
	})

	err := <-hostErr
	s.Stop()
	s.deps.EmitEvent(ipcapi.EventStatusChanged, ipcapi.StatusChangedEvent{
		State:  "stopped",
		Reason: "shutdown",
		AtUTC:  ipcapi.NowUTC(),
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Services) attach(ctx context.Context) error {
	s.cfgMu.RLock()
	wait := s.cfg.WaitTimeout
	s.cfgMu.RUnlock()
	deadline := time.Now().Add(wait)

	for {
		err := s.host.Register(ctx, s.ctl)
		if err == nil {
			return nil
		}
		if !errors.Is(err, addon.ErrInactive) || !time.Now().Before(deadline) {
			return fmt.Errorf("attach %s: %w", s.ctl.Name(), err)
		}
		s.log.Debug("waiting for target window", "retry_in", retryInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (s *Services) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.ev.Events():
			s.handleSystemEvent(ev)
		}
	}
}

func (s *Services) handleSystemEvent(ev events.SystemEvent) {
	switch ev.Type {
	case events.EventProcessExited:
		name, _ := ev.Metadata["name"].(string)
		s.log.Info("target process exited", "pid", ev.PID, "name", name)
		s.deps.EmitEvent(ipcapi.EventTargetExited, ipcapi.TargetExitedEvent{
			PID:        ev.PID,
			Name:       name,
			OccurredAt: ipcapi.NowUTC(),
		})
		s.Stop()
	case events.EventWatcherStopped:
		s.log.Warn("process exit watcher stopped", "pid", ev.PID, "details", ev.Metadata)
	default:
	}
}

func (s *Services) onEnforce(e aspect.EnforceEvent) {
	s.deps.EmitEvent(ipcapi.EventEnforced, ipcapi.EnforcedEvent{
		ControllerID: e.ControllerID,
		Driver:       string(e.Driver),
		Ratio:        e.Ratio,
		Before:       ipcapi.Rect(e.Before),
		After:        ipcapi.Rect(e.After),
		OccurredAt:   ipcapi.NowUTC(),
	})
}

// SetRatio parses label ("16:9", "1.5") and applies it to the window right away.
func (s *Services) SetRatio(label string) error {
	r, err := policy.ParseRatio(label)
	if err != nil {
		return err
	}
	s.cfgMu.Lock()
	s.cfg.Ratio = label
	s.cfgMu.Unlock()

	s.ctl.SetAspectRatio(r)
	s.th.SetActiveRatio(label)
	s.deps.EmitEvent(ipcapi.EventRatioChanged, ipcapi.RatioChangedEvent{
		Ratio:  r,
		Source: label,
		AtUTC:  ipcapi.NowUTC(),
	})
	s.Snap()
	return nil
}

func (s *Services) Snap() {
	s.host.Do(func() {
		if s.ctl.Enabled() {
			s.ctl.EnforceNow()
		}
	})
}

func (s *Services) Pause() {
	s.setEnabled(false, "paused by user")
}

func (s *Services) Resume() {
	s.setEnabled(true, "resumed by user")
}

func (s *Services) Toggle() {
	if s.ctl.Enabled() {
		s.Pause()
	} else {
		s.Resume()
	}
}

func (s *Services) setEnabled(on bool, reason string) {
	if !s.ctl.SwapEnabled(on) {
		return
	}
	state := "paused"
	if on {
		state = "active"
	}
	s.th.SetStatus(s.statusText())
	s.deps.EmitEvent(ipcapi.EventStatusChanged, ipcapi.StatusChangedEvent{
		State:  state,
		Reason: reason,
		AtUTC:  ipcapi.NowUTC(),
	})
}

// Status reads the controller on the host thread.
func (s *Services) Status(ctx context.Context) (ipcapi.Status, error) {
	var st ipcapi.Status
	err := s.host.Call(ctx, func() {
		st = ipcapi.Status{
			ControllerID: s.ctl.ID(),
			State:        "inactive",
			HWND:         uintptr(s.ctl.Handle()),
			Ratio:        s.ctl.Ratio(),
			Enforcing:    s.ctl.Enabled(),
		}
		if s.ctl.Ready() {
			st.State = "active"
			st.PID = s.deps.Windows.ProcessID(s.ctl.Handle())
			if !s.ctl.Enabled() {
				st.State = "paused"
			}
		}
	})
	return st, err
}

func (s *Services) statusText() string {
	if !s.ctl.Enabled() {
		return "AspectLock (paused)"
	}
	return "AspectLock " + policy.FormatRatio(s.ctl.Ratio())
}

func (s *Services) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.th != nil {
			s.th.Stop()
		}
		if s.ev != nil {
			s.ev.Stop()
		}
	})
}
