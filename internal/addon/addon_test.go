package addon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAddon struct {
	name     string
	initOK   bool
	runTicks int32 // Update returns false once ticks reach this; 0 means forever
	closeErr error

	inits   atomic.Int32
	ticks   atomic.Int32
	closes  atomic.Int32
	onInit  func()
	onClose func()
}

func (s *stubAddon) Name() string { return s.name }
func (s *stubAddon) Init() bool {
	s.inits.Add(1)
	if s.onInit != nil {
		s.onInit()
	}
	return s.initOK
}
func (s *stubAddon) Update() bool {
	n := s.ticks.Add(1)
	return s.runTicks == 0 || n < s.runTicks
}
func (s *stubAddon) Close() error {
	s.closes.Add(1)
	if s.onClose != nil {
		s.onClose()
	}
	return s.closeErr
}

func TestRegisterInactiveAddon(t *testing.T) {
	r := NewRegistry(nil)
	a := &stubAddon{name: "a", initOK: false}

	err := r.Register(a)
	require.ErrorIs(t, err, ErrInactive)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, int32(1), a.closes.Load())

	r.Update()
	assert.Zero(t, a.ticks.Load())
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&stubAddon{name: "a", initOK: true}))
	b := &stubAddon{name: "a", initOK: true}
	require.ErrorIs(t, r.Register(b), ErrDuplicate)
	assert.Zero(t, b.inits.Load())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.NotSame(t, b, got)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegisterDuplicateDuringInit(t *testing.T) {
	r := NewRegistry(nil)
	first := &stubAddon{name: "a", initOK: true}
	second := &stubAddon{name: "a", initOK: true}
	// second lands while first is still initializing
	first.onInit = func() { require.NoError(t, r.Register(second)) }

	require.ErrorIs(t, r.Register(first), ErrDuplicate)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, int32(1), first.closes.Load())
	assert.Zero(t, second.closes.Load())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestUpdateDropsFinishedAddons(t *testing.T) {
	r := NewRegistry(nil)
	short := &stubAddon{name: "short", initOK: true, runTicks: 2}
	long := &stubAddon{name: "long", initOK: true}
	require.NoError(t, r.Register(short))
	require.NoError(t, r.Register(long))

	r.Update()
	assert.Equal(t, 2, r.Len())
	r.Update()
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, int32(1), short.closes.Load())
	r.Update()

	assert.Equal(t, int32(2), short.ticks.Load())
	assert.Equal(t, int32(3), long.ticks.Load())
}

func TestCloseReverseOrder(t *testing.T) {
	r := NewRegistry(nil)
	var order []string
	for _, n := range []string{"first", "second", "third"} {
		n := n
		a := &stubAddon{name: n, initOK: true, onClose: func() { order = append(order, n) }}
		require.NoError(t, r.Register(a))
	}
	boom := errors.New("boom")
	require.NoError(t, r.Register(&stubAddon{name: "bad", initOK: true, closeErr: boom}))

	err := r.Close()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Equal(t, 0, r.Len())
}

func TestHostRunsAddonsOnItsThread(t *testing.T) {
	h := NewHost(time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	a := &stubAddon{name: "a", initOK: true}
	require.NoError(t, h.Register(ctx, a))
	require.Eventually(t, func() bool { return a.ticks.Load() >= 3 }, time.Second, time.Millisecond)

	ran := false
	require.NoError(t, h.Call(ctx, func() { ran = true }))
	assert.True(t, ran)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("host did not stop")
	}
	assert.Equal(t, int32(1), a.closes.Load())

	assert.ErrorIs(t, h.Call(context.Background(), func() {}), ErrStopped)
}

func TestHostRegisterInactive(t *testing.T) {
	h := NewHost(time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	err := h.Register(ctx, &stubAddon{name: "a"})
	assert.ErrorIs(t, err, ErrInactive)
	assert.Equal(t, 0, h.Registry().Len())
}
