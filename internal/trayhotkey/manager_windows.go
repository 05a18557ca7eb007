//go:build windows

package trayhotkey

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/getlantern/systray"
	"golang.org/x/sys/windows"
)

var trayIcon []byte

type Manager struct {
	deps    Dependencies
	once    sync.Once
	stop    chan struct{}
	started bool

	mu      sync.Mutex
	presets map[string]*systray.MenuItem
	tooltip string
}

func (m *Manager) setTrayIcon() {
	if len(trayIcon) > 0 {
		systray.SetIcon(trayIcon)
		return
	}

	exePath, err := os.Executable()
	if err != nil {
		return
	}

	exeDir := filepath.Dir(exePath)
	iconPaths := []string{
		filepath.Join(exeDir, "icon.ico"),
		filepath.Join(exeDir, "..", "icon.ico"),
		filepath.Join(exeDir, "build", "windows", "icon.ico"),
	}

	for _, iconPath := range iconPaths {
		iconPath = filepath.Clean(iconPath)
		if _, err := os.Stat(iconPath); err == nil {
			iconData, err := os.ReadFile(iconPath)
			if err != nil {
				continue
			}
			systray.SetIcon(iconData)
			return
		}
	}
}

func NewManager(deps Dependencies) *Manager {
	return &Manager{deps: deps, stop: make(chan struct{}), presets: map[string]*systray.MenuItem{}}
}

func (m *Manager) Start() {
	m.once.Do(func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()
		if m.deps.Tray {
			go systray.Run(m.onReady, m.onExit)
		}
		if m.deps.Hotkey {
			go m.hotkeyLoop()
		}
	})
}

func (m *Manager) Stop() {
	select {
	case <-m.stop:
		return
	default:
		close(m.stop)
	}
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if m.deps.Tray && started {
		systray.Quit()
	}
}

// SetActiveRatio checks the preset whose label is label, if any.
func (m *Manager) SetActiveRatio(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for l, item := range m.presets {
		if l == label {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (m *Manager) SetStatus(text string) {
	m.mu.Lock()
	m.tooltip = text
	ready := len(m.presets) > 0
	m.mu.Unlock()
	if ready {
		systray.SetTooltip(text)
	}
}

func (m *Manager) onReady() {
	systray.SetTitle("AspectLock")
	m.mu.Lock()
	tip := m.tooltip
	m.mu.Unlock()
	if tip == "" {
		tip = "AspectLock"
	}
	systray.SetTooltip(tip)

	m.setTrayIcon()

	items := make([]*systray.MenuItem, 0, len(m.deps.Presets))
	m.mu.Lock()
	for _, p := range m.deps.Presets {
		it := systray.AddMenuItemCheckbox(p, "Lock to "+p, p == m.deps.ActivePreset)
		m.presets[p] = it
		items = append(items, it)
	}
	m.mu.Unlock()
	systray.AddSeparator()
	itemSnap := systray.AddMenuItem("Snap Now", "Apply the ratio to the window now")
	itemPause := systray.AddMenuItem("Pause", "Stop enforcing the ratio")
	itemResume := systray.AddMenuItem("Resume", "Enforce the ratio again")
	systray.AddSeparator()
	itemExit := systray.AddMenuItem("Exit", "Exit")

	go m.presetLoop(items)

	go func() {
		for {
			select {
			case <-m.stop:
				return
			case <-itemSnap.ClickedCh:
				if m.deps.OnSnap != nil {
					m.deps.OnSnap()
				}
			case <-itemPause.ClickedCh:
				if m.deps.OnPause != nil {
					m.deps.OnPause()
				}
			case <-itemResume.ClickedCh:
				if m.deps.OnResume != nil {
					m.deps.OnResume()
				}
			case <-itemExit.ClickedCh:
				if m.deps.OnExit != nil {
					m.deps.OnExit()
				}
				m.Stop()
				return
			}
		}
	}()
}

// presetLoop selects over a variable number of menu items.
func (m *Manager) presetLoop(items []*systray.MenuItem) {
	cases := make([]reflect.SelectCase, 0, len(items)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(m.stop)})
	for _, it := range items {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(it.ClickedCh)})
	}
	for {
		chosen, _, _ := reflect.Select(cases)
		if chosen == 0 {
			return
		}
		label := m.deps.Presets[chosen-1]
		m.SetActiveRatio(label)
		if m.deps.OnPreset != nil {
			m.deps.OnPreset(label)
		}
	}
}

func (m *Manager) onExit() {}

func (m *Manager) hotkeyLoop() {
	const (
		MOD_ALT      = 0x0001
		MOD_CONTROL  = 0x0002
		MOD_NOREPEAT = 0x4000
		WM_HOTKEY    = 0x0312
		PM_REMOVE    = 0x0001
		VK_A         = 0x41
	)
	// hotkey messages go to the registering thread's queue
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	user32 := windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey := user32.NewProc("RegisterHotKey")
	procUnregisterHotKey := user32.NewProc("UnregisterHotKey")
	procPeekMessageW := user32.NewProc("PeekMessageW")

	const hotkeyID = 0xA5C
	r1, _, _ := procRegisterHotKey.Call(0, hotkeyID, MOD_CONTROL|MOD_ALT|MOD_NOREPEAT, VK_A)
	if r1 == 0 {
		return
	}
	defer procUnregisterHotKey.Call(0, hotkeyID)

	var msg MSG
	for {
		select {
		case <-m.stop:
			return
		default:
			r1, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, PM_REMOVE)
			if r1 == 0 {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			if msg.Message == WM_HOTKEY && msg.WParam == hotkeyID {
				if m.deps.OnToggle != nil {
					m.deps.OnToggle()
				}
			}
		}
	}
}

type POINT struct {
	X int32
	Y int32
}

type MSG struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      POINT
}
