package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subctl/internal/formatter"
	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

// Notice is a blocking user-facing message. It stays pending until dismissed.
type Notice struct {
	Level Level
	Title string
	Text  string
}

// SessionOpts configures a [Session].
type SessionOpts struct {
	LogCapacity int
	Logger      *log.Logger
}

// Session is the single state object of one client.
//
// It owns the [Controller], [ProgressModel] and [LogSink] and serializes every transition
// behind one mutex. It implements the stream handler interface (Dispatch, Malformed,
// Connected, Disconnected).
type Session struct {
	mu sync.Mutex

	id       string
	sink     *LogSink
	progress ProgressModel
	ctrl     *Controller
	logger   *log.Logger

	connected bool
	connects  int
	terminal  bool
	saving    bool
	finishes  int
	notice    *Notice
	outcome   chan struct{}
	changes   chan struct{}

	seen      *seenLines
	replaying bool
	replayed  int
}

// NewSession creates a session in the Idle phase.
func NewSession(opts SessionOpts) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	id := shared.GenerateID()

	sink := NewLogSink(opts.LogCapacity)
	return &Session{
		id:      id,
		sink:    sink,
		ctrl:    NewController(),
		logger:  shared.WithLogger(logger, "session", id[:8]),
		changes: make(chan struct{}, 1),
		seen:    newSeenLines(sink.Cap()),
	}
}

func (s *Session) ID() string { return s.id }

// Changes delivers a coalesced signal after every state change.
func (s *Session) Changes() <-chan struct{} { return s.changes }

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) append(level Level, text string) Entry {
	return s.sink.Append(level, SourceClient, text)
}

func (s *Session) raise(level Level, title, text string) {
	s.notice = &Notice{Level: level, Title: title, Text: text}
}

// resolve wakes [Session.WaitTask] callers once a task has an outcome that no reconnect can change.
func (s *Session) resolve() {
	if s.outcome != nil {
		close(s.outcome)
		s.outcome = nil
	}
}

// Dispatch applies one stream event. Events must be passed in arrival order.
//
// The server sends its log history on every connection. After a reconnect, history lines
// already shown are dropped until the first new line or the first non-log event.
func (s *Session) Dispatch(ev models.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	if ev.Type != models.EventLog {
		s.endReplay()
	}

	switch ev.Type {
	case models.EventLog:
		if s.replaying && s.seen.has(ev.Message) {
			s.replayed++
			return
		}
		s.endReplay()
		s.seen.add(ev.Message)
		s.sink.Append(LevelInfo, SourceServer, ev.Message)
	case models.EventProgress:
		if err := s.progress.Apply(ev.Message); err != nil {
			s.diagnose(err)
		}
	case models.EventStatus:
		if !ev.IsFinished() {
			s.logger.Debug("ignoring status", "message", ev.Message)
			return
		}
		prev := s.ctrl.Finish()
		s.finishes++
		s.resolve()
		s.append(LevelSuccess, "Task finished.")
		s.logger.Info("task finished", "from", prev, "progress", s.progress.Label())
	default:
		s.diagnose(&shared.ParseError{Raw: string(ev.Type), Reason: "unknown event type"})
	}
}

// Malformed records a frame that could not be parsed. The stream stays open.
func (s *Session) Malformed(raw []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	if err == nil {
		err = &shared.ParseError{Raw: string(raw), Reason: "unreadable frame"}
	}
	s.diagnose(err)
}

func (s *Session) diagnose(err error) {
	s.append(LevelWarn, fmt.Sprintf("Ignored: %v", err))
	s.logger.Warn("skipped stream data", "err", err)
}

// Connected marks the stream as open.
func (s *Session) Connected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	s.connected = true
	s.terminal = false
	s.connects++
	if s.connects > 1 {
		s.replaying = true
		s.append(LevelInfo, "Reconnected to server.")
	}
	s.logger.Debug("stream connected", "attempt", s.connects)
}

// Disconnected records a transport loss. A running task moves to Error. When final is set
// no reconnect follows and the session is terminal.
func (s *Session) Disconnected(err error, final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	s.connected = false
	if s.ctrl.Lost() {
		s.append(LevelError, "Task state unknown: "+AnnotationOutcomeUnknown+".")
	}

	s.endReplay()
	if final {
		s.terminal = true
		s.resolve()
		s.append(LevelError, "Server connection lost. Restart the client to reconnect.")
		s.logger.Error("stream closed", "err", err)
		return
	}

	s.append(LevelWarn, "Server connection lost, reconnecting...")
	s.logger.Warn("stream dropped", "err", err)
}

// BeginScan closes the action gate for a scan request.
func (s *Session) BeginScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.BeginRequest(); err != nil {
		return err
	}
	s.append(LevelInfo, "Starting status scan...")
	s.notify()
	return nil
}

// CompleteScan renders every result, failed paths included, and reopens the gate whatever the outcome.
func (s *Session) CompleteScan(results []models.ScanResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	s.ctrl.EndRequest()

	if err != nil {
		msg := shared.UserMessage(err)
		s.append(LevelError, "Scan failed: "+msg)
		s.raise(LevelError, "Scan failed", msg)
		s.logger.Error("scan failed", "err", err)
		return
	}

	s.append(LevelSuccess, "Scan complete. Results:")
	if len(results) == 0 {
		s.append(LevelInfo, "   No paths configured or no results found.")
	}
	for _, r := range results {
		level := LevelInfo
		if r.Failed() {
			level = LevelWarn
		}
		s.append(level, "   "+formatter.ScanLine(r))
	}

	sum := formatter.Summarize(results)
	s.logger.Info("scan complete", "paths", sum.Paths, "videos", sum.Videos, "missing", sum.Missing, "failed", sum.Failed)
}

// BeginDownload starts a download task: phase Running, progress reset to 0/0 and shown.
func (s *Session) BeginDownload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.Begin(); err != nil {
		return err
	}
	s.progress.Reset()
	s.resolve()
	s.outcome = make(chan struct{})
	s.append(LevelInfo, "Requesting download process...")
	s.notify()
	return nil
}

// CompleteDownload applies the server's answer. Acceptance only logs the message; the task
// ends through the stream. A rejection returns to Idle and hides progress.
func (s *Session) CompleteDownload(message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	if err != nil {
		s.ctrl.Reject()
		s.resolve()
		msg := shared.UserMessage(err)
		s.append(LevelError, "Error starting task: "+msg)
		s.raise(LevelError, "Download not started", msg)
		s.logger.Error("download rejected", "err", err)
		return
	}

	if message != "" {
		s.append(LevelInfo, message)
	}
	s.logger.Info("download accepted", "message", message)
}

// BeginSave marks a configuration save in flight. It does not touch the task gate.
func (s *Session) BeginSave() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saving {
		return fmt.Errorf("%w: a save is in flight", shared.ErrActionsBlocked)
	}
	s.saving = true
	s.append(LevelInfo, "Saving configuration...")
	s.notify()
	return nil
}

// CompleteSave surfaces a save outcome in the log and as a notice.
// A validation failure is reported the same way; no request was sent for it.
func (s *Session) CompleteSave(message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	s.saving = false

	if err != nil {
		msg := shared.UserMessage(err)
		s.append(LevelError, "Error saving: "+msg)
		s.raise(LevelError, "Configuration not saved", msg)
		s.logger.Error("save failed", "err", err)
		return
	}

	if message == "" {
		message = "Configuration saved."
	}
	s.append(LevelSuccess, message)
	s.raise(LevelSuccess, "Configuration saved", message)
	s.logger.Info("configuration saved")
}

// CompleteWebhookTest surfaces the outcome of a test notification.
func (s *Session) CompleteWebhookTest(message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	if err != nil {
		msg := shared.UserMessage(err)
		s.append(LevelError, "Webhook test failed: "+msg)
		s.raise(LevelError, "Webhook test failed", msg)
		s.logger.Error("webhook test failed", "err", err)
		return
	}

	if message == "" {
		message = "Test notification sent."
	}
	s.append(LevelSuccess, message)
	s.raise(LevelSuccess, "Webhook test", message)
}

// DismissNotice clears the pending notice and reports whether there was one.
func (s *Session) DismissNotice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notice == nil {
		return false
	}
	s.notice = nil
	s.notify()
	return true
}

// WaitTask blocks until the current download task finishes, is rejected, or the stream is
// lost for good, and returns the phase then. It keeps waiting through an Error phase while a
// reconnect may still deliver "finished". It returns immediately when no task is pending.
func (s *Session) WaitTask(ctx context.Context) (Phase, error) {
	s.mu.Lock()
	done := s.outcome
	s.mu.Unlock()

	if done != nil {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.ctrl.Phase(), ctx.Err()
		case <-done:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Phase(), nil
}

func (s *Session) endReplay() {
	if !s.replaying {
		return
	}
	s.replaying = false
	if s.replayed > 0 {
		s.logger.Debug("skipped replayed history", "lines", s.replayed)
		s.replayed = 0
	}
}

// EntriesSince returns log lines newer than seq, oldest first.
func (s *Session) EntriesSince(seq uint64) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Since(seq)
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:       s.id,
		Phase:           s.ctrl.Phase(),
		ActionsEnabled:  s.ctrl.ActionsEnabled(),
		RequestInFlight: s.ctrl.RequestInFlight(),
		Saving:          s.saving,
		Annotation:      s.ctrl.Annotation(),
		Progress:        NewProgressView(s.progress.State(), s.ctrl.ProgressVisible()),
		Connected:       s.connected,
		Terminal:        s.terminal,
		Finishes:        s.finishes,
		Entries:         s.sink.Entries(),
		LastSeq:         s.sink.LastSeq(),
		Evicted:         s.sink.Evicted(),
	}
	if s.notice != nil {
		n := *s.notice
		v.Notice = &n
	}
	return v
}
