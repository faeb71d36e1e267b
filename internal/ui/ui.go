package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/subctl/internal/form"
	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/services"
	"github.com/desertthunder/subctl/internal/tasks"
)

// Opts are the dependencies of a [Model].
type Opts struct {
	Session *tasks.Session
	Actions services.Actions
	Saver   services.ConfigSaver

	// LoadForm reads the configuration form. It is called on start and for every save,
	// so edits made to the form file between saves are picked up.
	LoadForm func() (*form.Form, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	session  *tasks.Session
	actions  services.Actions
	saver    services.ConfigSaver
	loadForm func() (*form.Form, error)

	view    tasks.View
	paths   []string
	results []models.ScanResult
	formErr error

	width     int
	height    int
	pathList  list.Model
	log       viewport.Model
	bar       progress.Model
	help      help.Model
	keys      keyMap
	quitting  bool
	rendered  uint64
	wantsTail bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	pathList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	pathList.Title = "Search paths"
	pathList.SetShowHelp(false)
	pathList.SetFilteringEnabled(false)
	pathList.SetShowStatusBar(false)

	logView := viewport.New(0, 0)
	logView.KeyMap.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))
	logView.KeyMap.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))

	m := &Model{
		ctx:       ctx,
		session:   opts.Session,
		actions:   opts.Actions,
		saver:     opts.Saver,
		loadForm:  opts.LoadForm,
		pathList:  pathList,
		log:       logView,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:      help.New(),
		keys:      newKeyMap(),
		wantsTail: true,
	}
	m.refresh()
	return m
}

// Init loads the form and starts listening for session changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.fetchForm())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.view.Blocked() {
			return m.handleNoticeKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

// View renders the screen, or only the pending notice while one is shown.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.view.Blocked() {
		return m.renderNotice()
	}

	header := styles.title.Render("subctl • " + m.view.StatusLine())
	sections := []string{header, m.renderPaths()}
	if bar := m.renderProgress(); bar != "" {
		sections = append(sections, bar)
	}
	sections = append(sections, m.log.View(), m.help.View(m.keys))
	return strings.Join(sections, "\n\n")
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChanged:
		m.refresh()
		return m, m.waitForChange()

	case MsgFormLoaded:
		data := msg.data.(formLoaded)
		m.formErr = data.err
		if data.err == nil {
			m.paths = data.form.Paths.Clean()
		}
		return m, m.pathList.SetItems(pathItems(m.paths, m.results))

	case MsgScanDone:
		data := msg.data.(scanDone)
		m.session.CompleteScan(data.results, data.err)
		if data.err == nil {
			m.results = data.results
		}
		m.refresh()
		return m, m.pathList.SetItems(pathItems(m.paths, m.results))

	case MsgDownloadDone:
		data := msg.data.(reply)
		m.session.CompleteDownload(data.message, data.err)

	case MsgSaveDone:
		data := msg.data.(reply)
		m.session.CompleteSave(data.message, data.err)

	case MsgWebhookDone:
		data := msg.data.(reply)
		m.session.CompleteWebhookTest(data.message, data.err)
	}

	m.refresh()
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.scan):
		if err := m.session.BeginScan(); err != nil {
			return m, nil
		}
		m.refresh()
		return m, m.runScan()

	case key.Matches(msg, m.keys.download):
		if err := m.session.BeginDownload(); err != nil {
			return m, nil
		}
		m.refresh()
		return m, m.runDownload()

	case key.Matches(msg, m.keys.save):
		if err := m.session.BeginSave(); err != nil {
			return m, nil
		}
		m.refresh()
		return m, m.runSave()

	case key.Matches(msg, m.keys.webhook):
		return m, m.runWebhook()

	case key.Matches(msg, m.keys.up, m.keys.down):
		var cmd tea.Cmd
		m.pathList, cmd = m.pathList.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	m.wantsTail = m.log.AtBottom()
	return m, cmd
}

func (m *Model) handleNoticeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.dismiss):
		m.session.DismissNotice()
		m.refresh()
	}
	return m, nil
}

// refresh re-reads the session and follows the log tail unless the user scrolled up.
func (m *Model) refresh() {
	m.view = m.session.Snapshot()
	m.keys.setActions(m.view.ActionsEnabled)
	m.keys.dismiss.SetEnabled(m.view.Blocked())

	if m.view.LastSeq == m.rendered {
		return
	}
	m.rendered = m.view.LastSeq

	lines := make([]string, 0, len(m.view.Entries))
	for _, e := range m.view.Entries {
		lines = append(lines, styles.Level(e.Level).Render(e.String()))
	}
	m.log.SetContent(strings.Join(lines, "\n"))
	if m.wantsTail {
		m.log.GotoBottom()
	}
}

func (m *Model) resize() {
	width := max(m.width-2, 20)
	listHeight := max(m.height/3, 5)
	chrome := 8
	if m.help.ShowAll {
		chrome += 3
	}

	m.pathList.SetSize(width, listHeight)
	m.log.Width = width
	m.log.Height = max(m.height-listHeight-chrome, 3)
	m.bar.Width = min(width, 60)
	m.help.Width = width
	if m.wantsTail {
		m.log.GotoBottom()
	}
}

func (m *Model) waitForChange() tea.Cmd {
	ctx, changes := m.ctx, m.session.Changes()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return sessionChangedMsg()
		}
	}
}

func (m *Model) fetchForm() tea.Cmd {
	return func() tea.Msg {
		f, err := m.loadForm()
		return formLoadedMsg(f, err)
	}
}

func (m *Model) runScan() tea.Cmd {
	return func() tea.Msg {
		results, err := m.actions.Scan(m.ctx)
		return scanDoneMsg(results, err)
	}
}

func (m *Model) runDownload() tea.Cmd {
	return func() tea.Msg {
		message, err := m.actions.Download(m.ctx)
		return downloadDoneMsg(message, err)
	}
}

// runSave reads and assembles the form, then submits it. A validation failure sends nothing.
func (m *Model) runSave() tea.Cmd {
	return func() tea.Msg {
		f, err := m.loadForm()
		if err != nil {
			return saveDoneMsg("", err)
		}
		doc, err := form.Assemble(f)
		if err != nil {
			return saveDoneMsg("", err)
		}
		message, err := m.saver.Save(m.ctx, doc)
		return saveDoneMsg(message, err)
	}
}

func (m *Model) runWebhook() tea.Cmd {
	return func() tea.Msg {
		message, err := m.actions.TestWebhook(m.ctx)
		return webhookDoneMsg(message, err)
	}
}

func (m *Model) renderPaths() string {
	if m.formErr != nil {
		return fmt.Sprintf("%s\n%s", styles.title.Render(m.pathList.Title), styles.err.Render(m.formErr.Error()))
	}
	if len(m.pathList.Items()) == 0 {
		return fmt.Sprintf("%s\n%s", styles.title.Render(m.pathList.Title), styles.help.Render("No paths configured."))
	}
	return m.pathList.View()
}

// renderProgress draws the bar while a task runs. A zero total renders an empty bar
// labelled as waiting; no ratio is computed for it.
func (m *Model) renderProgress() string {
	p := m.view.Progress
	if !p.Visible {
		if m.view.Annotation != "" {
			return styles.warn.Render(m.view.Annotation)
		}
		return ""
	}
	if p.Indeterminate {
		return fmt.Sprintf("%s %s", m.bar.ViewAs(0), styles.help.Render(p.Label+" waiting for totals"))
	}
	return fmt.Sprintf("%s %s", m.bar.ViewAs(p.Ratio), p.Label)
}

func (m *Model) renderNotice() string {
	n := m.view.Notice
	title := styles.Level(n.Level).Render(n.Title)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.dismiss, m.keys.quit})
	box := styles.notice.Render(fmt.Sprintf("%s\n\n%s\n\n%s", title, n.Text, helpView))

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
