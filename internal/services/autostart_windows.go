//go:build windows

package services

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const registryKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`
const appName = "AspectLock"

func IsAutostartEnabled() bool {
	key, err := registry.OpenKey(registry.CURRENT_USER, registryKey, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer key.Close()

	_, _, err = key.GetStringValue(appName)
	return err == nil
}

// SetAutostart registers the running executable, with args, to start at logon.
func SetAutostart(enabled bool, args ...string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, registryKey, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()

	if !enabled {
		err := key.DeleteValue(appName)
		if err == registry.ErrNotExist {
			return nil
		}
		return err
	}
	exePath, err := os.Executable()
	if err != nil {
		return err
	}
	return key.SetStringValue(appName, autostartCommand(filepath.Clean(exePath), args))
}

// autostartCommand quotes exe and args the way CommandLineToArgvW splits them.
func autostartCommand(exe string, args []string) string {
	return windows.ComposeCommandLine(append([]string{exe}, args...))
}
