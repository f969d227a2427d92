// internal/tui/wizard_view.go
//
// Hosts the active wizard mode and advances the run from stage to stage.
// The wizard owns the RunState between modes; each mode receives it through
// the ModeContext and hands the advanced state back via ModeCompleteMsg.

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/groundwork/internal/modes"
	"github.com/kingrea/groundwork/internal/modes/discovery"
	"github.com/kingrea/groundwork/internal/modes/evaluation"
	"github.com/kingrea/groundwork/internal/modes/intake"
	"github.com/kingrea/groundwork/internal/modes/plangen"
	"github.com/kingrea/groundwork/internal/pipeline"
)

// stageLabels drives the breadcrumb in wizard order.
var stageLabels = []string{
	"Intake",
	"Discovery",
	"Evaluation",
	"Plan",
}

// wizardView drives one planning run through its modes.
type wizardView struct {
	app   *App
	mode  modes.Mode
	state pipeline.RunState
}

func newWizardView(app *App) *wizardView {
	return &wizardView{app: app}
}

// Start begins a fresh run with the intake mode.
func (w *wizardView) Start() tea.Cmd {
	w.state = w.app.pipeline.NewRun()
	return w.setMode(intake.New())
}

// setMode activates a mode and initializes it with the current run state.
func (w *wizardView) setMode(mode modes.Mode) tea.Cmd {
	w.mode = mode
	ctx := &modes.ModeContext{
		Config:    w.app.config,
		Workspace: w.app.workspace,
		Pipeline:  w.app.pipeline,
		Logbook:   w.app.logbook,
		State:     w.state,
	}
	cmd := mode.Init(ctx)
	if w.app.width > 0 && w.app.height > 0 {
		// Replay the window size so the new mode lays itself out.
		var sizeCmd tea.Cmd
		w.mode, sizeCmd = w.mode.Update(tea.WindowSizeMsg{Width: w.app.width, Height: w.app.height})
		return tea.Batch(cmd, sizeCmd)
	}
	return cmd
}

// Update routes messages to the active mode and handles mode transitions.
func (w *wizardView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case modes.ModeCompleteMsg:
		w.state = msg.State
		return w.advance()

	case modes.RestartRunMsg:
		w.state = w.app.pipeline.StartOver()
		w.app.statusMsg = "Run restarted"
		return w.setMode(intake.New())

	case modes.ModeErrorMsg:
		w.app.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
		return nil
	}

	if w.mode == nil {
		return nil
	}
	var cmd tea.Cmd
	w.mode, cmd = w.mode.Update(msg)
	return cmd
}

// advance picks the next mode for the run's current stage.
func (w *wizardView) advance() tea.Cmd {
	switch w.state.Stage {
	case pipeline.StageClarified:
		return w.setMode(discovery.New())
	case pipeline.StageDiscovered:
		return w.setMode(evaluation.New())
	case pipeline.StageSelected:
		return w.setMode(plangen.New())
	case pipeline.StageEmitted:
		w.app.state = stateMainMenu
		w.app.wizard = nil
		w.app.statusMsg = fmt.Sprintf("Plan emitted to %s", w.app.workspace.OutputDir())
		w.app.mainMenu.SetItems(buildMainMenu(w.app.workspace))
		return nil
	default:
		// A mode completed without reaching a stage boundary; restart the
		// wizard from intake rather than guessing.
		return w.setMode(intake.New())
	}
}

// View renders the breadcrumb and the active mode.
func (w *wizardView) View() string {
	if w.mode == nil {
		return "Starting..."
	}
	return fmt.Sprintf("%s\n\n%s", w.renderBreadcrumb(), w.mode.View())
}

// renderBreadcrumb shows the run's position in the four-stage flow.
func (w *wizardView) renderBreadcrumb() string {
	current := w.stageIndex()
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD479"))
	pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))

	parts := make([]string, 0, len(stageLabels))
	for i, label := range stageLabels {
		switch {
		case i < current:
			parts = append(parts, doneStyle.Render("✓ "+label))
		case i == current:
			parts = append(parts, activeStyle.Render("▸ "+label))
		default:
			parts = append(parts, pendingStyle.Render(label))
		}
	}
	return strings.Join(parts, pendingStyle.Render("  →  "))
}

// stageIndex maps the run state to its breadcrumb position.
func (w *wizardView) stageIndex() int {
	switch w.state.Stage {
	case pipeline.StageIdea, pipeline.StageClarifying:
		return 0
	case pipeline.StageClarified:
		return 1
	case pipeline.StageDiscovered, pipeline.StageEvaluating:
		return 2
	default:
		return 3
	}
}
