package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subctl/internal/services"
	"github.com/desertthunder/subctl/internal/shared"
	"github.com/desertthunder/subctl/internal/stream"
	"github.com/desertthunder/subctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	actions    services.Actions
	saver      services.ConfigSaver
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Actions    services.Actions
	Saver      services.ConfigSaver
	// HTTPClient carries the event stream; it must not set a Timeout.
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.BaseURL(), nil)
	}
	if opts.Actions == nil {
		opts.Actions = services.NewActionClient(opts.API)
	}
	if opts.Saver == nil {
		opts.Saver = services.NewConfigSyncClient(opts.API)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		actions:    opts.Actions,
		saver:      opts.Saver,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the operational logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		watchCommand, scanCommand, downloadCommand, configCommand, webhookCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) newSession() *tasks.Session {
	return tasks.NewSession(tasks.SessionOpts{
		LogCapacity: r.config.Log.Capacity,
		Logger:      r.logger,
	})
}

func (r *Runner) newSupervisor() *stream.Supervisor {
	client := stream.NewClient(r.config.BaseURL(), r.httpClient, r.logger)
	return stream.NewSupervisor(client, stream.PolicyFromConfig(r.config.Stream), r.logger)
}

func (r *Runner) formPath(cmd *cli.Command) string {
	if p := cmd.String("form"); p != "" {
		return p
	}
	return r.config.Form.Path
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// printSince writes session lines newer than seq and returns the last sequence written.
func (r *Runner) printSince(session *tasks.Session, seq uint64) uint64 {
	for _, e := range session.EntriesSince(seq) {
		r.writePlain("%s\n", e)
		seq = e.Seq
	}
	return seq
}

// printNotice writes and dismisses the pending notice, if any.
func (r *Runner) printNotice(session *tasks.Session) {
	n := session.Snapshot().Notice
	if n == nil {
		return
	}
	r.writePlainln("%s: %s", n.Title, n.Text)
	session.DismissNotice()
}
