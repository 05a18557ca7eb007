//go:build windows

package window

import (
	"sync"
	"unsafe"

	"AspectLock/internal/aspect"
	"AspectLock/internal/events"

	"golang.org/x/sys/windows"
)

var _ aspect.WindowSystem = (*System)(nil)

func (s *System) FindWindow(q aspect.Query) (aspect.Handle, error) {
	if q.IsZero() {
		return 0, ErrEmptyQuery
	}
	if q.ClassName != "" && q.Title != "" {
		if h := findWindow(q.ClassName, q.Title); h != 0 {
			if q.PID == 0 || getWindowPID(h) == q.PID {
				return aspect.Handle(h), nil
			}
		}
	}

	list := s.enumerate(q.ExecutablePath != "")
	s.procs.Cleanup()
	if h, ok := Select(q, list); ok {
		return h, nil
	}
	return 0, ErrNotFound
}

// List returns every top-level window with its owning executable.
func (s *System) List() ([]aspect.Info, error) {
	return s.enumerate(true), nil
}

var (
	enumMu    sync.Mutex
	enumFound []uintptr

	// one shared slot; windows.NewCallback never frees them
	enumCallback = windows.NewCallback(func(hwnd uintptr, lParam uintptr) uintptr {
		enumFound = append(enumFound, hwnd)
		return 1
	})
)

func topLevelWindows() []uintptr {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumFound = enumFound[:0]
	_, _, _ = procEnumWindows.Call(enumCallback, 0)
	return append([]uintptr(nil), enumFound...)
}

func (s *System) enumerate(withExe bool) []aspect.Info {
	hwnds := topLevelWindows()
	out := make([]aspect.Info, 0, len(hwnds))
	for _, hwnd := range hwnds {
		pid := getWindowPID(hwnd)
		info := aspect.Info{
			Handle:    aspect.Handle(hwnd),
			ClassName: getClassName(hwnd),
			Title:     getTitle(hwnd),
			PID:       pid,
			Visible:   isWindowVisible(hwnd),
		}
		if withExe && pid != 0 {
			info.ExecutablePath = s.procs.Lookup(pid)
		}
		out = append(out, info)
	}
	return out
}

func (s *System) ProcessID(h aspect.Handle) uint32 {
	return getWindowPID(uintptr(h))
}

func (s *System) WindowRect(h aspect.Handle) (aspect.Rect, error) {
	var r RECT
	r1, _, e1 := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if r1 == 0 {
		return aspect.Rect{}, e1
	}
	return aspect.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}, nil
}

func (s *System) MoveWindow(h aspect.Handle, r aspect.Rect) error {
	r1, _, e1 := procMoveWindow.Call(uintptr(h), uintptr(r.Left), uintptr(r.Top), uintptr(r.Width()), uintptr(r.Height()), 1)
	if r1 == 0 {
		return e1
	}
	return nil
}

// FrameOffset inflates an empty client rect by the frame of style.
func (s *System) FrameOffset(style aspect.FrameStyle) (int32, int32, error) {
	var r RECT
	r1, _, e1 := procAdjustWindowRectEx.Call(uintptr(unsafe.Pointer(&r)), uintptr(style.Style), 0, uintptr(style.ExStyle))
	if r1 == 0 {
		return 0, 0, e1
	}
	return r.Right - r.Left, r.Bottom - r.Top, nil
}

func (s *System) Subscribe(pid uint32, fn func(aspect.Gesture)) (aspect.Subscription, error) {
	hook, err := events.NewMoveSizeHook(pid, func(ev events.SystemEvent) {
		g, ok := gestureFor(ev.Type)
		if !ok {
			return
		}
		fn(g)
		s.log.Debug("move/size gesture", "type", ev.Type, "hwnd", ev.HWND, "pid", ev.PID)
	})
	if err != nil {
		return nil, err
	}
	return hook, nil
}

func (s *System) DrainMessage() bool {
	return events.DrainOne()
}

type RECT struct {
	Left, Top, Right, Bottom int32
}

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW              = user32.NewProc("FindWindowW")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procMoveWindow               = user32.NewProc("MoveWindow")
	procAdjustWindowRectEx       = user32.NewProc("AdjustWindowRectEx")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
)

func findWindow(className, title string) uintptr {
	cls, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return 0
	}
	ttl, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0
	}
	r1, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(cls)), uintptr(unsafe.Pointer(ttl)))
	return r1
}

func getWindowPID(hwnd uintptr) uint32 {
	var pid uint32
	_, _, _ = procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	return pid
}

func isWindowVisible(hwnd uintptr) bool {
	r1, _, _ := procIsWindowVisible.Call(hwnd)
	return r1 != 0
}

func getClassName(hwnd uintptr) string {
	buf := make([]uint16, 256)
	r1, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r1 == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:r1])
}

func getTitle(hwnd uintptr) string {
	r1, _, _ := procGetWindowTextLengthW.Call(hwnd)
	n := int(r1)
	if n <= 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	r2, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r2 == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:r2])
}
