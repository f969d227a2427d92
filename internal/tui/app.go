// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for Groundwork.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/groundwork/internal/artifact"
	"github.com/kingrea/groundwork/internal/config"
	"github.com/kingrea/groundwork/internal/logbook"
	"github.com/kingrea/groundwork/internal/logging"
	"github.com/kingrea/groundwork/internal/pipeline"
	"github.com/kingrea/groundwork/internal/reasoning"
	"github.com/kingrea/groundwork/internal/search"
	"github.com/kingrea/groundwork/internal/workspace"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu appState = iota // Main menu with "New plan", etc.
	stateWizard                   // Running the planning wizard
	stateAbout                    // About screen
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithPipeline injects a pre-built pipeline, bypassing collaborator
// construction. Used by tests with stub engines.
func WithPipeline(p *pipeline.Pipeline) AppOption {
	return func(a *App) {
		a.pipeline = p
		a.setupErr = ""
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	config    *config.Config
	workspace *workspace.Workspace
	pipeline  *pipeline.Pipeline
	logbook   *logbook.Logbook

	wizard *wizardView

	// setupErr records why collaborators could not be built (usually a
	// missing credential). Starting a run surfaces it on the menu instead
	// of panicking.
	setupErr string

	// UI components
	mainMenu  list.Model
	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.New(projectDir)
	if err != nil {
		return nil, err
	}
	ws := cfg.Workspace()
	if err := ws.EnsureLayout(); err != nil {
		return nil, err
	}
	book, err := logbook.New(ws.LogbookPath())
	if err != nil {
		return nil, err
	}
	book.Info("Session opened")

	mainMenu := list.New(buildMainMenu(ws), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "◆ GROUNDWORK"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	app := &App{
		state:     stateMainMenu,
		config:    cfg,
		workspace: ws,
		logbook:   book,
		mainMenu:  mainMenu,
		statusMsg: "Turn an idea into an implementation plan",
	}
	if p, buildErr := buildPipeline(cfg, ws, book); buildErr != nil {
		app.setupErr = buildErr.Error()
	} else {
		app.pipeline = p
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

// buildPipeline wires the collaborators from configuration and credentials.
func buildPipeline(cfg *config.Config, ws *workspace.Workspace, book *logbook.Logbook) (*pipeline.Pipeline, error) {
	reasoningKey, ok := cfg.ReasoningAPIKey()
	if !ok {
		return nil, fmt.Errorf("no reasoning API key found; set DEEPSEEK_API_KEY (or OPENAI_API_KEY) in the environment or a .env file")
	}
	searchKey, ok := cfg.SearchAPIKey()
	if !ok {
		return nil, fmt.Errorf("no search API key found; set TAVILY_API_KEY in the environment or a .env file")
	}

	debugLog, err := logging.New(ws.DebugLogPath())
	if err != nil {
		return nil, err
	}

	rc := cfg.Project.Reasoning
	reasoner, err := reasoning.NewClient(
		rc.BaseURL, reasoningKey, rc.Model,
		time.Duration(rc.TimeoutSeconds)*time.Second,
		rc.ClarityThreshold,
		reasoning.WithLogger(debugLog),
	)
	if err != nil {
		return nil, err
	}

	sc := cfg.Project.Search
	searchTimeout := time.Duration(sc.TimeoutSeconds) * time.Second
	searcher, err := search.NewTavilyClient(
		sc.BaseURL, searchKey, sc.MaxResults, sc.Domains, searchTimeout,
		search.WithScraper(search.NewScraper(searchTimeout, debugLog)),
		search.WithLogger(debugLog),
	)
	if err != nil {
		return nil, err
	}

	store := artifact.NewStore(ws)
	return pipeline.New(reasoner, searcher, store, ws, book,
		pipeline.WithClarityRoundCap(rc.MaxClarityRounds))
}

// buildMainMenu creates the main menu items
func buildMainMenu(ws *workspace.Workspace) []list.Item {
	items := []list.Item{
		menuItem{title: "New plan", desc: "Start from a fresh project idea"},
	}
	if ws.HasEmitted() {
		items[0] = menuItem{
			title: "New plan",
			desc:  fmt.Sprintf("Start fresh (replaces the plan in %s)", ws.OutputDir()),
		}
	}
	items = append(items,
		menuItem{title: "About", desc: "What Groundwork does"},
		menuItem{title: "Quit", desc: "Exit Groundwork"},
	)
	return items
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		if a.state == stateWizard && a.wizard != nil {
			return a, a.wizard.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state != stateWizard {
				return a, tea.Quit
			}
		case "esc":
			if a.state != stateMainMenu {
				return a.returnToMainMenu("")
			}
		case "enter":
			if a.state == stateMainMenu {
				return a.handleMainMenuSelection()
			}
		}
	}

	var cmds []tea.Cmd
	switch a.state {
	case stateMainMenu:
		var menuCmd tea.Cmd
		a.mainMenu, menuCmd = a.mainMenu.Update(msg)
		if menuCmd != nil {
			cmds = append(cmds, menuCmd)
		}
	case stateWizard:
		if a.wizard != nil {
			if cmd := a.wizard.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}

	return a, tea.Batch(cmds...)
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch item.title {
	case "New plan":
		if a.pipeline == nil {
			a.statusMsg = fmt.Sprintf("Cannot start: %s", a.setupErr)
			a.logInfo("Run blocked: %s", a.setupErr)
			return a, nil
		}
		a.logInfo("Menu · New plan selected")
		return a.startWizard()

	case "About":
		a.state = stateAbout
		a.statusMsg = "Esc to return"
		return a, nil

	case "Quit":
		a.logInfo("Menu · Quit selected")
		return a, tea.Quit
	}

	return a, nil
}

// startWizard begins a fresh planning run
func (a *App) startWizard() (tea.Model, tea.Cmd) {
	a.state = stateWizard
	a.wizard = newWizardView(a)
	cmd := a.wizard.Start()
	a.statusMsg = "Esc returns to the menu (abandons the run)"
	return a, cmd
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu(status string) (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.wizard = nil
	if status == "" {
		status = "Turn an idea into an implementation plan"
	}
	a.statusMsg = status
	a.mainMenu.SetItems(buildMainMenu(a.workspace))
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#6BCB77")).
		MarginBottom(1).
		Render("◆ GROUNDWORK")

	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
		if a.setupErr != "" {
			warn := lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#FFD479")).
				Padding(0, 1).
				Render(fmt.Sprintf("⚠ %s", a.setupErr))
			content = fmt.Sprintf("%s\n%s", content, warn)
		}
	case stateWizard:
		if a.wizard != nil {
			content = a.wizard.View()
		} else {
			content = "Starting..."
		}
	case stateAbout:
		content = a.renderAbout()
	}

	sections := []string{header, content}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderAbout() string {
	body := `Groundwork walks a project idea through four stages:

  1. Idea intake — clarify the idea until it is specific enough
  2. Candidate discovery — find existing GitHub repositories to build on
  3. Evaluation — score each candidate against your requirements
  4. Plan generation — draft and emit a step-by-step implementation plan

The result is an implementation-plan.md plus one document per step,
written to the configured output directory.`
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(body)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
