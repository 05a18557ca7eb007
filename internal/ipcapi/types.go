package ipcapi

import "time"

const (
	EventStatusChanged = "onStatusChanged"
	EventRatioChanged  = "onRatioChanged"
	EventEnforced      = "onEnforced"
	EventTargetExited  = "onTargetExited"
	EventExitRequested = "onExitRequested"
)

type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

type Status struct {
	ControllerID string  `json:"controllerID"`
	State        string  `json:"state"`
	HWND         uintptr `json:"hwnd"`
	PID          uint32  `json:"pid"`
	Ratio        float64 `json:"ratio"`
	Enforcing    bool    `json:"enforcing"`
}

type StatusChangedEvent struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
	AtUTC  int64  `json:"atUTC"`
}

type RatioChangedEvent struct {
	Ratio  float64 `json:"ratio"`
	Source string  `json:"source"`
	AtUTC  int64   `json:"atUTC"`
}

type EnforcedEvent struct {
	ControllerID string  `json:"controllerID"`
	Driver       string  `json:"driver"`
	Ratio        float64 `json:"ratio"`
	Before       Rect    `json:"before"`
	After        Rect    `json:"after"`
	OccurredAt   int64   `json:"occurredAtUTC"`
}

type TargetExitedEvent struct {
	PID        int    `json:"pid"`
	Name       string `json:"name,omitempty"`
	OccurredAt int64  `json:"occurredAtUTC"`
}

func NowUTC() int64 { return time.Now().UTC().UnixMilli() }
