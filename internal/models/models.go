package models

import (
	"fmt"
	"strings"
)

// EventType discriminates push channel frames.
type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
	EventStatus   EventType = "status"
)

// StatusFinished is the only status message the client acts on.
const StatusFinished = "finished"

// EventTypes lists every recognized [EventType] in dispatch order.
var EventTypes = []EventType{EventLog, EventProgress, EventStatus}

// Valid reports whether t is one of the recognized event types.
func (t EventType) Valid() bool {
	switch t {
	case EventLog, EventProgress, EventStatus:
		return true
	default:
		return false
	}
}

// StreamEvent is a single parsed push channel frame.
type StreamEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// IsFinished reports whether the event is the task-completion sentinel.
func (e StreamEvent) IsFinished() bool {
	return e.Type == EventStatus && e.Message == StatusFinished
}

// ProgressState holds the last reported counters. Total of zero means not yet known.
type ProgressState struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
}

// Known reports whether a total has been reported.
func (p ProgressState) Known() bool {
	return p.Total > 0
}

// Ratio returns current/total in [0, 1]. ok is false when total is unknown; no division happens then.
func (p ProgressState) Ratio() (ratio float64, ok bool) {
	if !p.Known() {
		return 0, false
	}
	current := min(p.Current, p.Total)
	return float64(current) / float64(p.Total), true
}

// String renders the counters as "current/total".
func (p ProgressState) String() string {
	return fmt.Sprintf("%d/%d", p.Current, p.Total)
}

// ScanResult is one per-path entry of a scan. Error is set instead of the counters when the path failed.
type ScanResult struct {
	Path    string `json:"path"`
	Videos  int    `json:"videos"`
	Missing int    `json:"missing"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the path could not be scanned.
func (r ScanResult) Failed() bool {
	return strings.TrimSpace(r.Error) != ""
}

// ScanResponse is the body of POST /scan.
type ScanResponse struct {
	Results []ScanResult `json:"results"`
}

// MessageResponse covers the acknowledgement and error bodies of the action endpoints.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// Text returns the error text when present and the message otherwise.
func (m MessageResponse) Text() string {
	if e := strings.TrimSpace(m.Error); e != "" {
		return e
	}
	return strings.TrimSpace(m.Message)
}
