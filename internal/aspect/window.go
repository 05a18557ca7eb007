package aspect

import (
	"path"
	"strings"
)

type Handle uintptr

type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

func (r Rect) Width() int32  { return r.Right - r.Left }
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// FrameStyle is a pair of WS_* / WS_EX_* bit sets.
type FrameStyle struct {
	Style   uint32
	ExStyle uint32
}

const (
	WS_CLIPSIBLINGS = 0x04000000
	WS_CLIPCHILDREN = 0x02000000
	WS_CAPTION      = 0x00C00000
	WS_SYSMENU      = 0x00080000
	WS_THICKFRAME   = 0x00040000
	WS_MINIMIZEBOX  = 0x00020000
	WS_MAXIMIZEBOX  = 0x00010000
	WS_EX_APPWINDOW = 0x00040000
)

const (
	ControllerName = "FixedAspectRatio"
	DefaultRatio   = 16.0 / 9.0
)

// ResizableFrame is the border style of a standard resizable top-level window.
var ResizableFrame = FrameStyle{
	Style:   WS_CLIPSIBLINGS | WS_CLIPCHILDREN | WS_CAPTION | WS_SYSMENU | WS_MINIMIZEBOX | WS_MAXIMIZEBOX | WS_THICKFRAME,
	ExStyle: WS_EX_APPWINDOW,
}

type Gesture int

const (
	GestureStart Gesture = iota + 1
	GestureEnd
)

func (g Gesture) String() string {
	switch g {
	case GestureStart:
		return "start"
	case GestureEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Query selects a top-level window. Empty fields match anything.
type Query struct {
	ClassName      string `json:"className,omitempty"`
	Title          string `json:"title,omitempty"`
	ExecutablePath string `json:"executablePath,omitempty"`
	PID            uint32 `json:"pid,omitempty"`
}

// Info describes a candidate window during lookup.
type Info struct {
	Handle         Handle
	ClassName      string
	Title          string
	ExecutablePath string
	PID            uint32
	Visible        bool
}

func (q Query) IsZero() bool {
	return q.ClassName == "" && q.Title == "" && q.ExecutablePath == "" && q.PID == 0
}

func (q Query) Matches(w Info) bool {
	if q.IsZero() {
		return false
	}
	if q.PID != 0 && q.PID != w.PID {
		return false
	}
	if q.ClassName != "" && !strings.EqualFold(NormalizedPath(q.ClassName), NormalizedPath(w.ClassName)) {
		return false
	}
	if q.Title != "" && q.Title != w.Title {
		return false
	}
	if q.ExecutablePath != "" {
		if w.ExecutablePath == "" {
			return false
		}
		want := NormalizedPath(q.ExecutablePath)
		got := NormalizedPath(w.ExecutablePath)
		// a bare file name matches on base name
		if !strings.Contains(want, "/") {
			got = path.Base(got)
		}
		if !strings.EqualFold(want, got) {
			return false
		}
	}
	return true
}

// NormalizedPath turns backslashes into slashes and cleans the path.
func NormalizedPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}

type Subscription interface {
	Close() error
}

// WindowSystem is the platform surface the controller needs. Only the
// Windows implementation in internal/window is functional.
type WindowSystem interface {
	FindWindow(q Query) (Handle, error)
	ProcessID(h Handle) uint32
	WindowRect(h Handle) (Rect, error)
	MoveWindow(h Handle, r Rect) error
	FrameOffset(style FrameStyle) (x, y int32, err error)
	Subscribe(pid uint32, fn func(Gesture)) (Subscription, error)
	DrainMessage() bool
}
