// Package pipeline drives a single planning run through its four stages:
// idea intake, candidate discovery, evaluation and selection, and plan
// generation with document emission. Every stage transition is triggered by
// one user action; the pipeline holds no state of its own — each operation
// takes the current RunState and returns the next one.
package pipeline

// Stage identifies where a run sits in the state machine.
type Stage int

const (
	// StageIdea is the initial state: no idea submitted yet.
	StageIdea Stage = iota
	// StageClarifying means the clarifier asked questions the user has not
	// answered yet. This is the only stage a run can revisit.
	StageClarifying
	// StageClarified means a confirmed summary exists and discovery can run.
	StageClarified
	// StageDiscovered means ranked candidates are in hand.
	StageDiscovered
	// StageEvaluating means evaluations exist and a selection is pending.
	StageEvaluating
	// StageSelected means exactly one candidate has been chosen.
	StageSelected
	// StageGenerating means plan generation has produced output (a parsed
	// plan, or a raw payload awaiting inspection after a parse failure).
	StageGenerating
	// StageEmitted is terminal: documents are on disk.
	StageEmitted
)

var stageNames = map[Stage]string{
	StageIdea:       "idea",
	StageClarifying: "clarifying",
	StageClarified:  "clarified",
	StageDiscovered: "discovered",
	StageEvaluating: "evaluating",
	StageSelected:   "selected",
	StageGenerating: "generating",
	StageEmitted:    "emitted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the run has finished.
func (s Stage) Terminal() bool {
	return s == StageEmitted
}
