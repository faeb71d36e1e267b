package tasks

import (
	"fmt"

	"github.com/desertthunder/subctl/internal/shared"
)

// AnnotationOutcomeUnknown is shown after the stream drops while a task runs.
const AnnotationOutcomeUnknown = "connection lost while a task was running; outcome unknown"

// Controller tracks the task phase and decides whether scan and download may be triggered.
//
// Scan and download share one gate: the server multiplexes a single stream, so the client
// cannot tell whether two tasks could overlap. A synchronous request (scan) holds the gate
// through requestInFlight without changing the phase.
type Controller struct {
	phase           Phase
	requestInFlight bool
	progressVisible bool
	annotation      string
}

// NewController returns a controller in the Idle phase with actions enabled.
func NewController() *Controller {
	return &Controller{phase: Idle}
}

func (c *Controller) Phase() Phase { return c.phase }

// ActionsEnabled reports whether scan and download may be triggered.
func (c *Controller) ActionsEnabled() bool {
	return c.phase != Running && !c.requestInFlight
}

func (c *Controller) RequestInFlight() bool { return c.requestInFlight }

func (c *Controller) ProgressVisible() bool { return c.progressVisible }

// Annotation explains an Error phase. Empty otherwise.
func (c *Controller) Annotation() string { return c.annotation }

func (c *Controller) gate() error {
	if c.phase == Running {
		return shared.ErrTaskRunning
	}
	if c.requestInFlight {
		return fmt.Errorf("%w: a request is in flight", shared.ErrActionsBlocked)
	}
	return nil
}

// Begin starts a download task: Idle, Finished or Error move to Running and progress is shown.
func (c *Controller) Begin() error {
	if err := c.gate(); err != nil {
		return err
	}
	c.phase = Running
	c.progressVisible = true
	c.annotation = ""
	return nil
}

// BeginRequest disables actions for a synchronous request without touching the phase.
func (c *Controller) BeginRequest() error {
	if err := c.gate(); err != nil {
		return err
	}
	c.requestInFlight = true
	return nil
}

// EndRequest re-enables actions after a synchronous request, whatever its outcome.
func (c *Controller) EndRequest() {
	c.requestInFlight = false
}

// Finish handles a status "finished" event. It always lands in Finished and returns the phase it left.
func (c *Controller) Finish() Phase {
	prev := c.phase
	c.phase = Finished
	c.progressVisible = false
	c.annotation = ""
	return prev
}

// Reject undoes Begin after the server refused the download.
func (c *Controller) Reject() {
	if c.phase != Running {
		return
	}
	c.phase = Idle
	c.progressVisible = false
}

// Lost handles a transport failure. A running task moves to Error with actions re-enabled;
// it reports whether that transition happened.
func (c *Controller) Lost() bool {
	if c.phase != Running {
		return false
	}
	c.phase = Error
	c.progressVisible = false
	c.annotation = AnnotationOutcomeUnknown
	return true
}
