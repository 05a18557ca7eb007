package trayhotkey

// Dependencies wires menu items and the Ctrl+Alt+A hotkey to the service.
type Dependencies struct {
	Tray   bool
	Hotkey bool

	Presets      []string
	ActivePreset string

	OnPreset func(label string)
	OnSnap   func()
	OnPause  func()
	OnResume func()
	OnToggle func()
	OnExit   func()
}
