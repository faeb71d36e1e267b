package tasks

import (
	"strconv"
	"strings"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

// ProgressModel holds the counters of the running task. Updates are last-write-wins.
type ProgressModel struct {
	state models.ProgressState
}

func (p *ProgressModel) State() models.ProgressState { return p.state }

// Label renders the counters as "current/total".
func (p *ProgressModel) Label() string { return p.state.String() }

// Reset returns the counters to 0/0 (total unknown).
func (p *ProgressModel) Reset() {
	p.state = models.ProgressState{}
}

// Apply parses a progress message and replaces the counters. A malformed message leaves them untouched.
func (p *ProgressModel) Apply(message string) error {
	state, err := ParseProgress(message)
	if err != nil {
		return err
	}
	p.state = state
	return nil
}

// ParseProgress reads "<current>/<total>". A current above a known total is clamped to the total.
func ParseProgress(message string) (models.ProgressState, error) {
	left, right, ok := strings.Cut(message, "/")
	if !ok {
		return models.ProgressState{}, &shared.ParseError{Raw: message, Reason: "progress is not <current>/<total>"}
	}

	current, err := strconv.ParseUint(strings.TrimSpace(left), 10, 64)
	if err != nil {
		return models.ProgressState{}, &shared.ParseError{Raw: message, Reason: "progress current is not a non-negative integer", Err: err}
	}

	total, err := strconv.ParseUint(strings.TrimSpace(right), 10, 64)
	if err != nil {
		return models.ProgressState{}, &shared.ParseError{Raw: message, Reason: "progress total is not a non-negative integer", Err: err}
	}

	if total > 0 && current > total {
		current = total
	}

	return models.ProgressState{Current: current, Total: total}, nil
}
