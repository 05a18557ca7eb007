//go:build !windows

package trayhotkey

// Manager is inert outside Windows.
type Manager struct {
	deps Dependencies
}

func NewManager(deps Dependencies) *Manager { return &Manager{deps: deps} }

func (m *Manager) Start()                      {}
func (m *Manager) Stop()                       {}
func (m *Manager) SetActiveRatio(label string) {}
func (m *Manager) SetStatus(text string)       {}
