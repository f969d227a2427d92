package intake

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/groundwork/internal/modes"
	"github.com/kingrea/groundwork/internal/pipeline"
)

func newSizedMode(t *testing.T) *Mode {
	t.Helper()
	m := New()
	m.Init(&modes.ModeContext{State: pipeline.RunState{Stage: pipeline.StageIdea}})
	mode, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return mode.(*Mode)
}

func TestParseFailureShowsRawResponse(t *testing.T) {
	m := newSizedMode(t)

	raw := `{"rating": "not a number", "reflection": 7}`
	mode, _ := m.Update(intakeFailedMsg{err: &pipeline.ParseError{Raw: raw, Err: errors.New("unexpected type")}})
	m = mode.(*Mode)

	if m.phase != phaseRawFailure {
		t.Fatalf("phase = %d, want the raw failure view", m.phase)
	}
	if !strings.Contains(m.View(), `"rating"`) {
		t.Fatalf("raw payload not visible in the view")
	}

	// Acknowledging returns to the idea input for a retry.
	mode, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = mode.(*Mode)
	if m.phase != phaseIdea {
		t.Fatalf("phase = %d, want the idea input after acknowledging", m.phase)
	}
}

func TestParseFailureDuringClarifyReturnsToAnswer(t *testing.T) {
	m := New()
	m.Init(&modes.ModeContext{State: pipeline.RunState{Stage: pipeline.StageClarifying}})
	mode, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = mode.(*Mode)

	mode, _ = m.Update(intakeFailedMsg{err: &pipeline.ParseError{Raw: "garbled {", Err: errors.New("bad json")}})
	m = mode.(*Mode)
	if m.phase != phaseRawFailure {
		t.Fatalf("phase = %d, want the raw failure view", m.phase)
	}

	mode, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = mode.(*Mode)
	if m.phase != phaseClarify {
		t.Fatalf("phase = %d, want the answer input after acknowledging", m.phase)
	}
}

func TestCollaboratorFailureReturnsToInput(t *testing.T) {
	m := newSizedMode(t)

	mode, _ := m.Update(intakeFailedMsg{err: errors.New("connection refused")})
	m = mode.(*Mode)

	if m.phase != phaseIdea {
		t.Fatalf("phase = %d, want the idea input", m.phase)
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Fatalf("failure reason not visible in the view")
	}
}
