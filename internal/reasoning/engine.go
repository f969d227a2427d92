// Package reasoning talks to the reasoning collaborator: an OpenAI-compatible
// chat-completions endpoint asked to answer in strict JSON. The capability
// interfaces here are what the pipeline depends on; tests replace them with
// deterministic stubs.
package reasoning

import (
	"context"

	"github.com/kingrea/groundwork/internal/plan"
)

// Clarifier rates how clear a project idea is and names what is missing.
type Clarifier interface {
	AssessClarity(ctx context.Context, idea string) (plan.ClarityReport, error)
}

// Summarizer turns a sufficiently clear idea into a confirmed summary.
type Summarizer interface {
	Summarize(ctx context.Context, idea string) (plan.Summary, error)
}

// Evaluator scores every discovered candidate against the summary in one
// call. Implementations must return exactly one evaluation per candidate,
// plus the collaborator's recommended pick (which may fall back to the
// deterministic best when the collaborator declines to choose).
type Evaluator interface {
	Evaluate(ctx context.Context, summary plan.Summary, candidates []plan.Candidate) ([]plan.Evaluation, plan.Selection, error)
}

// PlanRequest carries everything the planner needs for one draft.
type PlanRequest struct {
	Summary   plan.Summary
	Candidate plan.Candidate
	// Notes holds optional user-supplied enhancement or integration notes.
	Notes string
}

// Planner drafts the structured implementation plan.
type Planner interface {
	DraftPlan(ctx context.Context, req PlanRequest) (plan.Plan, error)
}

// Engine composes every reasoning capability the pipeline uses.
type Engine interface {
	Clarifier
	Summarizer
	Evaluator
	Planner
}
