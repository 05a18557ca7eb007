//go:build windows

package window

import (
	"fmt"
	"sync"
	"time"

	"github.com/StackExchange/wmi"
	"golang.org/x/sys/windows"
)

type procCache struct {
	mu   sync.Mutex
	last map[uint32]cachedProc
}

type cachedProc struct {
	exe string
	at  time.Time
}

func newProcCache() *procCache { return &procCache{last: map[uint32]cachedProc{}} }

// Lookup returns the executable path of pid, from WMI when possible.
func (c *procCache) Lookup(pid uint32) string {
	c.mu.Lock()
	v, ok := c.last[pid]
	c.mu.Unlock()
	if ok && time.Since(v.at) < 30*time.Second {
		return v.exe
	}

	exe := queryWMIExecutable(pid)
	if exe == "" {
		exe = queryFullProcessImageName(pid)
	}
	if exe == "" {
		return ""
	}
	c.mu.Lock()
	c.last[pid] = cachedProc{exe: exe, at: time.Now()}
	c.mu.Unlock()
	return exe
}

func (c *procCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for pid, proc := range c.last {
		if now.Sub(proc.at) > 5*time.Minute {
			delete(c.last, pid)
		}
	}
}

func queryWMIExecutable(pid uint32) string {
	type Win32_Process struct {
		ProcessID      uint32
		ExecutablePath *string
	}
	var dst []Win32_Process
	q := fmt.Sprintf("SELECT ProcessID, ExecutablePath FROM Win32_Process WHERE ProcessID=%d", pid)
	if err := wmi.Query(q, &dst); err != nil || len(dst) == 0 {
		return ""
	}
	if dst[0].ExecutablePath == nil {
		return ""
	}
	return *dst[0].ExecutablePath
}

func queryFullProcessImageName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)
	buf := make([]uint16, windows.MAX_LONG_PATH)
	sz := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &sz); err != nil || sz == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:sz])
}
