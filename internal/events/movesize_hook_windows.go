//go:build windows

package events

import (
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MoveSizeHook reports interactive move/resize gestures of one process. The
// callback runs on the thread that created the hook, from inside DrainOne.
type MoveSizeHook struct {
	emit func(SystemEvent)
	pid  uint32

	hHook windows.Handle
	once  sync.Once
}

var (
	hooksMu sync.Mutex
	hooks   = map[windows.Handle]*MoveSizeHook{}

	// windows.NewCallback slots are never released, so all hooks share one.
	winEventCallback = windows.NewCallback(dispatchWinEvent)
)

func NewMoveSizeHook(pid uint32, emit func(SystemEvent)) (*MoveSizeHook, error) {
	w := &MoveSizeHook{emit: emit, pid: pid}

	hooksMu.Lock()
	defer hooksMu.Unlock()
	h, err := setWinEventHook(
		EVENT_SYSTEM_MOVESIZESTART,
		EVENT_SYSTEM_MOVESIZEEND,
		0,
		winEventCallback,
		pid,
		0,
		WINEVENT_OUTOFCONTEXT,
	)
	if err != nil {
		return nil, err
	}
	w.hHook = h
	hooks[h] = w
	return w, nil
}

func (w *MoveSizeHook) Close() error {
	var err error
	w.once.Do(func() {
		hooksMu.Lock()
		delete(hooks, w.hHook)
		hooksMu.Unlock()
		if w.hHook != 0 {
			err = unhookWinEvent(w.hHook)
		}
	})
	return err
}

func dispatchWinEvent(hWinEventHook windows.Handle, event uint32, hwnd uintptr, idObject int32, idChild int32, dwEventThread uint32, dwmsEventTime uint32) uintptr {
	_ = idChild
	_ = dwEventThread
	_ = dwmsEventTime

	typ, ok := moveSizeEventType(event, idObject)
	if !ok {
		return 0
	}
	hooksMu.Lock()
	w := hooks[hWinEventHook]
	hooksMu.Unlock()
	if w == nil {
		return 0
	}
	w.emit(SystemEvent{Type: typ, Timestamp: time.Now().UTC().UnixMilli(), PID: int(w.pid), HWND: hwnd})
	return 0
}

// moveSizeEventType maps a WinEvent to a bus event. Only the window object
// itself counts; child objects are ignored.
func moveSizeEventType(event uint32, idObject int32) (EventType, bool) {
	if idObject != OBJID_WINDOW {
		return "", false
	}
	switch event {
	case EVENT_SYSTEM_MOVESIZESTART:
		return EventMoveSizeStart, true
	case EVENT_SYSTEM_MOVESIZEEND:
		return EventMoveSizeEnd, true
	}
	return "", false
}

// DrainOne dispatches at most one pending message of the calling thread.
func DrainOne() bool {
	var msg MSG
	ret, _ := peekMessage(&msg, 0, 0, 0, PM_REMOVE)
	if !ret {
		return false
	}
	translateMessage(&msg)
	dispatchMessage(&msg)
	return true
}

const (
	EVENT_SYSTEM_MOVESIZESTART = 0x000A
	EVENT_SYSTEM_MOVESIZEEND   = 0x000B
	OBJID_WINDOW               = 0
	WINEVENT_OUTOFCONTEXT      = 0x0000
	PM_REMOVE                  = 0x0001
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procSetWinEventHook  = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent   = user32.NewProc("UnhookWinEvent")
	procPeekMessageW     = user32.NewProc("PeekMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessageW = user32.NewProc("DispatchMessageW")
)

func setWinEventHook(eventMin, eventMax uint32, hmodWinEventHook windows.Handle, pfnWinEventProc uintptr, idProcess, idThread uint32, dwFlags uint32) (windows.Handle, error) {
	r1, _, e1 := procSetWinEventHook.Call(
		uintptr(eventMin),
		uintptr(eventMax),
		uintptr(hmodWinEventHook),
		pfnWinEventProc,
		uintptr(idProcess),
		uintptr(idThread),
		uintptr(dwFlags),
	)
	if r1 == 0 {
		return 0, e1
	}
	return windows.Handle(r1), nil
}

func unhookWinEvent(h windows.Handle) error {
	r1, _, e1 := procUnhookWinEvent.Call(uintptr(h))
	if r1 == 0 {
		return e1
	}
	return nil
}

func peekMessage(msg *MSG, hwnd uintptr, msgFilterMin, msgFilterMax uint32, removeMsg uint32) (bool, error) {
	r1, _, e1 := procPeekMessageW.Call(
		uintptr(unsafe.Pointer(msg)),
		hwnd,
		uintptr(msgFilterMin),
		uintptr(msgFilterMax),
		uintptr(removeMsg),
	)
	if r1 == 0 {
		return false, nil
	}
	return true, e1
}

func translateMessage(msg *MSG) {
	_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(msg)))
}

func dispatchMessage(msg *MSG) {
	_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(msg)))
}
