package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AspectLock/internal/addon"
	"AspectLock/internal/aspect"
	"AspectLock/internal/ipcapi"
	"AspectLock/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSub struct{}

func (nopSub) Close() error { return nil }

// stubWindows is a thread-safe single-window system for service tests.
type stubWindows struct {
	mu    sync.Mutex
	title string
	rect  aspect.Rect
	moves []aspect.Rect
}

func (w *stubWindows) FindWindow(q aspect.Query) (aspect.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !q.Matches(aspect.Info{Handle: 9, Title: w.title, PID: 77, Visible: true}) {
		return 0, errors.New("not found")
	}
	return 9, nil
}

func (w *stubWindows) ProcessID(h aspect.Handle) uint32 { return 77 }

func (w *stubWindows) WindowRect(h aspect.Handle) (aspect.Rect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rect, nil
}

func (w *stubWindows) MoveWindow(h aspect.Handle, r aspect.Rect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rect = r
	w.moves = append(w.moves, r)
	return nil
}

func (w *stubWindows) FrameOffset(style aspect.FrameStyle) (int32, int32, error) {
	return 16, 39, nil
}

func (w *stubWindows) Subscribe(pid uint32, fn func(aspect.Gesture)) (aspect.Subscription, error) {
	return nopSub{}, nil
}

func (w *stubWindows) DrainMessage() bool { return false }

func (w *stubWindows) setTitle(t string) {
	w.mu.Lock()
	w.title = t
	w.mu.Unlock()
}

func (w *stubWindows) moveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.moves)
}

func (w *stubWindows) current() aspect.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rect
}

type recorder struct {
	mu     sync.Mutex
	events map[string][]any
}

func (r *recorder) emit(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string][]any{}
	}
	r.events[name] = append(r.events[name], data)
}

func (r *recorder) get(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events[name]...)
}

func testConfig() *policy.Config {
	cfg := policy.DefaultConfig()
	cfg.Target.Title = "Demo"
	cfg.Ratio = "16:9"
	cfg.TickInterval = time.Millisecond
	cfg.Tray = false
	cfg.Hotkey = false
	cfg.ExitWithTarget = false
	return cfg
}

func startServices(t *testing.T, cfg *policy.Config, w *stubWindows) (*Services, *recorder, chan error) {
	t.Helper()
	rec := &recorder{}
	s, err := New(cfg, Dependencies{EmitEvent: rec.emit, Windows: w})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()
	t.Cleanup(s.Stop)
	return s, rec, errCh
}

func waitActive(t *testing.T, rec *recorder) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(rec.get(ipcapi.EventStatusChanged)) > 0
	}, 2*time.Second, time.Millisecond)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Target = policy.Target{}
	_, err := New(cfg, Dependencies{Windows: &stubWindows{}})
	assert.ErrorIs(t, err, policy.ErrNoTarget)
}

func TestRunFailsWithoutWindow(t *testing.T) {
	cfg := testConfig()
	s, err := New(cfg, Dependencies{Windows: &stubWindows{title: "Other"}})
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, addon.ErrInactive)
}

func TestRunWaitsForWindow(t *testing.T) {
	cfg := testConfig()
	cfg.WaitTimeout = 5 * time.Second
	w := &stubWindows{title: "Loading", rect: aspect.Rect{Right: 816, Bottom: 639}}
	_, rec, errCh := startServices(t, cfg, w)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.get(ipcapi.EventStatusChanged))
	w.setTitle("Demo")
	waitActive(t, rec)

	select {
	case err := <-errCh:
		t.Fatalf("run returned early: %v", err)
	default:
	}
}

func TestSetRatioSnapsWindow(t *testing.T) {
	w := &stubWindows{title: "Demo", rect: aspect.Rect{Right: 1296, Bottom: 600}}
	s, rec, _ := startServices(t, testConfig(), w)
	waitActive(t, rec)

	require.NoError(t, s.SetRatio("16:9"))
	require.Eventually(t, func() bool { return w.moveCount() == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, aspect.Rect{Right: 1296, Bottom: 720 + 39}, w.current())

	require.NoError(t, s.SetRatio("4:3"))
	require.Eventually(t, func() bool { return w.moveCount() == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, aspect.Rect{Right: 1296, Bottom: 960 + 39}, w.current())

	changes := rec.get(ipcapi.EventRatioChanged)
	require.Len(t, changes, 2)
	assert.Equal(t, "4:3", changes[1].(ipcapi.RatioChangedEvent).Source)
	require.Eventually(t, func() bool { return len(rec.get(ipcapi.EventEnforced)) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "snap", rec.get(ipcapi.EventEnforced)[0].(ipcapi.EnforcedEvent).Driver)

	assert.ErrorIs(t, s.SetRatio("wide"), policy.ErrBadRatio)
}

func TestPauseBlocksSnap(t *testing.T) {
	w := &stubWindows{title: "Demo", rect: aspect.Rect{Right: 1296, Bottom: 600}}
	s, rec, _ := startServices(t, testConfig(), w)
	waitActive(t, rec)

	s.Toggle()
	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "paused", st.State)
	assert.False(t, st.Enforcing)

	require.NoError(t, s.SetRatio("4:3"))
	_, err = s.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, w.moveCount())

	s.Toggle()
	st, err = s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "active", st.State)
	assert.Equal(t, uint32(77), st.PID)
	assert.Equal(t, uintptr(9), st.HWND)
	assert.Equal(t, 4.0/3, st.Ratio)

	states := rec.get(ipcapi.EventStatusChanged)
	require.Len(t, states, 3)
	assert.Equal(t, "paused", states[1].(ipcapi.StatusChangedEvent).State)
	assert.Equal(t, "active", states[2].(ipcapi.StatusChangedEvent).State)
}

func TestStopEndsRun(t *testing.T) {
	w := &stubWindows{title: "Demo", rect: aspect.Rect{Right: 800, Bottom: 600}}
	s, rec, errCh := startServices(t, testConfig(), w)
	waitActive(t, rec)

	s.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
	assert.False(t, s.Controller().Ready())

	_, err := s.Status(context.Background())
	assert.ErrorIs(t, err, addon.ErrStopped)
}

func TestConcurrentPauseEmitsOnce(t *testing.T) {
	w := &stubWindows{title: "Demo", rect: aspect.Rect{Right: 800, Bottom: 600}}
	s, rec, _ := startServices(t, testConfig(), w)
	waitActive(t, rec)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Pause()
		}()
	}
	wg.Wait()

	states := rec.get(ipcapi.EventStatusChanged)
	require.Len(t, states, 2)
	assert.Equal(t, "paused", states[1].(ipcapi.StatusChangedEvent).State)
	assert.False(t, s.Controller().Enabled())
}
