package tasks

import "github.com/desertthunder/subctl/internal/models"

// View is a point-in-time projection of a [Session]. It shares no memory with the session.
type View struct {
	SessionID       string
	Phase           Phase
	ActionsEnabled  bool
	RequestInFlight bool
	Saving          bool
	Annotation      string
	Progress        ProgressView
	Connected       bool
	Terminal        bool
	Finishes        int
	Entries         []Entry
	LastSeq         uint64
	Evicted         uint64
	Notice          *Notice
}

// Blocked reports whether a notice must be dismissed before anything else.
func (v View) Blocked() bool { return v.Notice != nil }

// Tail returns the newest n entries of the view.
func (v View) Tail(n int) []Entry {
	if n <= 0 || n >= len(v.Entries) {
		return v.Entries
	}
	return v.Entries[len(v.Entries)-n:]
}

// StatusLine summarizes phase and connection for a header or prompt.
func (v View) StatusLine() string {
	conn := "connected"
	switch {
	case v.Terminal:
		conn = "disconnected"
	case !v.Connected:
		conn = "connecting"
	}

	status := v.Phase.String() + " | " + conn
	if v.RequestInFlight {
		status += " | scanning"
	}
	if v.Saving {
		status += " | saving"
	}
	return status
}

// ProgressView is what a progress bar needs to draw.
type ProgressView struct {
	Visible       bool
	Indeterminate bool
	Ratio         float64
	Label         string
	State         models.ProgressState
}

// NewProgressView projects counters onto a bar. A zero total is indeterminate and never divides.
func NewProgressView(state models.ProgressState, visible bool) ProgressView {
	ratio, ok := state.Ratio()
	return ProgressView{
		Visible:       visible,
		Indeterminate: !ok,
		Ratio:         ratio,
		Label:         state.String(),
		State:         state,
	}
}
