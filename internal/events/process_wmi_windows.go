//go:build windows

package events

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"
)

// wbemErrTimedOut is the SCODE NextEvent raises when no event arrived in time.
const wbemErrTimedOut = 0x80043001

func runProcessExitWatcher(pid int, emit func(SystemEvent), stopCh <-chan struct{}) {
	exited := func(name string) {
		emit(SystemEvent{
			Type:      EventProcessExited,
			Timestamp: time.Now().UTC().UnixMilli(),
			PID:       pid,
			Metadata: map[string]any{
				"name": name,
			},
		})
	}

	// The handle is opened before the WMI subscription so an exit in between
	// is still seen.
	h, herr := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if herr == nil {
		defer windows.CloseHandle(h)
		if processGone(h) {
			exited("")
			return
		}
	}

	err := wmiStopTraceLoop(pid, h, exited, stopCh)
	if err == nil {
		return
	}
	// WMI traces need elevation on some systems; fall back to waiting on the
	// process handle.
	werr := herr
	if werr == nil {
		werr = waitProcessHandle(h, exited, stopCh)
	}
	if werr != nil {
		emit(SystemEvent{
			Type:      EventWatcherStopped,
			Timestamp: time.Now().UTC().UnixMilli(),
			PID:       pid,
			Metadata: map[string]any{
				"wmiError":    err.Error(),
				"handleError": werr.Error(),
			},
		})
	}
}

// processGone reports whether h is signaled. A zero handle is never gone.
func processGone(h windows.Handle) bool {
	if h == 0 {
		return false
	}
	ev, err := windows.WaitForSingleObject(h, 0)
	return err == nil && ev == windows.WAIT_OBJECT_0
}

func isWMITimeout(err error) bool {
	var oe *ole.OleError
	if !errors.As(err, &oe) {
		return false
	}
	if uint32(oe.Code()) == wbemErrTimedOut {
		return true
	}
	ei, ok := oe.SubError().(ole.EXCEPINFO)
	return ok && ei.SCODE() == wbemErrTimedOut
}

func wmiStopTraceLoop(pid int, h windows.Handle, onExit func(name string), stopCh <-chan struct{}) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_ = ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	defer ole.CoUninitialize()

	locatorObj, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return fmt.Errorf("create locator: %w", err)
	}
	defer locatorObj.Release()

	locator, err := locatorObj.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("locator dispatch: %w", err)
	}
	defer locator.Release()

	svcRaw, err := oleutil.CallMethod(locator, "ConnectServer", nil, "root\\cimv2")
	if err != nil {
		return fmt.Errorf("connect cimv2: %w", err)
	}
	svc := svcRaw.ToIDispatch()
	defer svc.Release()

	query := fmt.Sprintf("SELECT * FROM Win32_ProcessStopTrace WHERE ProcessID=%d", pid)
	srcRaw, err := oleutil.CallMethod(svc, "ExecNotificationQuery", query)
	if err != nil {
		return fmt.Errorf("notification query: %w", err)
	}
	src := srcRaw.ToIDispatch()
	defer src.Release()

	for {
		select {
		case <-stopCh:
			return nil
		default:
			evRaw, err := oleutil.CallMethod(src, "NextEvent", 1000)
			if err != nil {
				if !isWMITimeout(err) {
					return fmt.Errorf("next event: %w", err)
				}
				if processGone(h) {
					onExit("")
					return nil
				}
				continue
			}
			ev := evRaw.ToIDispatch()
			if ev == nil {
				continue
			}
			name := ""
			if nameV, _ := oleutil.GetProperty(ev, "ProcessName"); nameV != nil {
				name = nameV.ToString()
			}
			ev.Release()
			onExit(name)
			return nil
		}
	}
}

func waitProcessHandle(h windows.Handle, onExit func(name string), stopCh <-chan struct{}) error {
	for {
		select {
		case <-stopCh:
			return nil
		default:
		}
		ev, err := windows.WaitForSingleObject(h, 1000)
		if err != nil {
			return err
		}
		if ev == windows.WAIT_OBJECT_0 {
			onExit("")
			return nil
		}
	}
}
