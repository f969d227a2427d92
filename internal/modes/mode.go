// internal/modes/mode.go
//
// Defines the Mode interface that each wizard stage implements. A mode owns
// one slice of the planning run (intake, discovery, evaluation, plan
// generation) and hands the advanced RunState back to the app when done.

package modes

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/groundwork/internal/config"
	"github.com/kingrea/groundwork/internal/logbook"
	"github.com/kingrea/groundwork/internal/pipeline"
	"github.com/kingrea/groundwork/internal/workspace"
)

// ModeContext provides shared context for all modes
type ModeContext struct {
	Config    *config.Config
	Workspace *workspace.Workspace
	Pipeline  *pipeline.Pipeline
	Logbook   *logbook.Logbook

	// State is the run state the mode starts from. Modes keep their own
	// working copy and report the advanced state through ModeCompleteMsg.
	State pipeline.RunState
}

// Mode defines the interface that all wizard modes must implement
type Mode interface {
	// Name returns the mode's display name
	Name() string

	// Stage returns the pipeline stage this mode drives the run toward
	Stage() pipeline.Stage

	// Init initializes the mode and returns a startup command
	Init(ctx *ModeContext) tea.Cmd

	// Update handles messages and returns the updated mode plus any commands.
	// When the mode is done it should return a ModeCompleteMsg.
	Update(msg tea.Msg) (Mode, tea.Cmd)

	// View renders the mode's current state
	View() string

	// IsComplete returns true if the mode has finished its work
	IsComplete() bool
}

// ModeCompleteMsg signals that a mode finished and the wizard should advance
type ModeCompleteMsg struct {
	// State is the run state after the mode's work
	State pipeline.RunState
}

// ModeBusyMsg reports that a collaborator call is in flight
type ModeBusyMsg struct {
	Status string
}

// ModeErrorMsg signals an error occurred during mode execution
type ModeErrorMsg struct {
	Err error
}

// RestartRunMsg asks the app to abandon the current run and start fresh
type RestartRunMsg struct{}

// BaseMode provides common functionality for all modes
type BaseMode struct {
	ctx       *ModeContext
	name      string
	stage     pipeline.Stage
	complete  bool
	statusMsg string
}

// NewBaseMode creates a new BaseMode with the given name and target stage
func NewBaseMode(name string, stage pipeline.Stage) BaseMode {
	return BaseMode{
		name:  name,
		stage: stage,
	}
}

// Name returns the mode's display name
func (m *BaseMode) Name() string {
	return m.name
}

// Stage returns the pipeline stage this mode drives the run toward
func (m *BaseMode) Stage() pipeline.Stage {
	return m.stage
}

// IsComplete returns true if the mode has finished
func (m *BaseMode) IsComplete() bool {
	return m.complete
}

// SetComplete marks the mode as complete
func (m *BaseMode) SetComplete(complete bool) {
	m.complete = complete
}

// Context returns the mode context
func (m *BaseMode) Context() *ModeContext {
	return m.ctx
}

// SetContext sets the mode context
func (m *BaseMode) SetContext(ctx *ModeContext) {
	m.ctx = ctx
}

// StatusMsg returns the current status message
func (m *BaseMode) StatusMsg() string {
	return m.statusMsg
}

// SetStatusMsg sets the status message
func (m *BaseMode) SetStatusMsg(msg string) {
	m.statusMsg = msg
}
