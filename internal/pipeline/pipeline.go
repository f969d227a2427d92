package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/groundwork/internal/artifact"
	"github.com/kingrea/groundwork/internal/logbook"
	"github.com/kingrea/groundwork/internal/plan"
	"github.com/kingrea/groundwork/internal/reasoning"
	"github.com/kingrea/groundwork/internal/search"
	"github.com/kingrea/groundwork/internal/workspace"
)

// DefaultClarityRoundCap bounds the clarify loop. Once the cap is reached the
// pipeline summarizes with whatever context it has instead of asking again.
const DefaultClarityRoundCap = 5

// emissionVersion stamps every emitted document's frontmatter.
const emissionVersion = "1"

// emissionStageID is the stage recorded in emitted-document metadata.
const emissionStageID = "emitting"

// Pipeline executes the planning run, one user action per method. It holds
// collaborators and configuration but no run state; callers thread RunState
// values through it.
type Pipeline struct {
	reasoner  reasoning.Engine
	searcher  search.Engine
	store     *artifact.Store
	workspace *workspace.Workspace
	book      *logbook.Logbook

	clarityRoundCap int
	now             func() time.Time
}

// Option customizes a Pipeline during construction.
type Option func(*Pipeline)

// WithClarityRoundCap overrides the maximum number of clarify rounds.
func WithClarityRoundCap(rounds int) Option {
	return func(p *Pipeline) {
		if rounds > 0 {
			p.clarityRoundCap = rounds
		}
	}
}

// WithPipelineClock overrides the clock used for run timestamps.
func WithPipelineClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = clock
	}
}

// New wires a pipeline. The logbook may be nil; journal writes become no-ops.
func New(reasoner reasoning.Engine, searcher search.Engine, store *artifact.Store, ws *workspace.Workspace, book *logbook.Logbook, opts ...Option) (*Pipeline, error) {
	if reasoner == nil {
		return nil, fmt.Errorf("pipeline: reasoning engine is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("pipeline: search engine is required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: artifact store is required")
	}
	if ws == nil {
		return nil, fmt.Errorf("pipeline: workspace is required")
	}
	p := &Pipeline{
		reasoner:        reasoner,
		searcher:        searcher,
		store:           store,
		workspace:       ws,
		book:            book,
		clarityRoundCap: DefaultClarityRoundCap,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewRun starts a fresh run at the idea stage.
func (p *Pipeline) NewRun() RunState {
	state := NewRunState(p.now())
	p.book.Info("run %s started", state.RunID)
	return state
}

// SubmitIdea begins stage one. A blank idea is rejected before any
// collaborator call. A sufficiently clear idea skips the clarify loop and
// lands directly on a confirmed summary.
func (p *Pipeline) SubmitIdea(ctx context.Context, state RunState, idea string) (RunState, Result, error) {
	if state.Stage != StageIdea {
		return state, Result{}, validationErr("an idea was already submitted for this run")
	}
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return state, Result{}, validationErr("idea must not be empty")
	}

	report, err := p.reasoner.AssessClarity(ctx, idea)
	if err != nil {
		p.book.Error("clarity assessment failed: %v", err)
		return state, Result{}, classify("reasoning", err)
	}
	next := state.withClarityRound(idea, report)
	p.book.Stage(next.Stage.String(), fmt.Sprintf("clarity %d/10, round %d", report.Rating, next.ClarityRounds))

	if report.Sufficient {
		return p.summarize(ctx, next, "idea was clear enough on the first pass")
	}
	return next, needsInput("the idea needs more detail"), nil
}

// AnswerClarification feeds one answer back into the clarify loop. The answer
// is appended to the accumulated idea context before reassessment. Hitting
// the round cap forces a summary instead of asking again.
func (p *Pipeline) AnswerClarification(ctx context.Context, state RunState, answer string) (RunState, Result, error) {
	if state.Stage != StageClarifying {
		return state, Result{}, validationErr("no clarification is pending")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return state, Result{}, validationErr("answer must not be empty")
	}
	combined := state.Idea + "\n\n" + answer

	report, err := p.reasoner.AssessClarity(ctx, combined)
	if err != nil {
		p.book.Error("clarity assessment failed: %v", err)
		return state, Result{}, classify("reasoning", err)
	}
	next := state.withClarityRound(combined, report)
	p.book.Stage(next.Stage.String(), fmt.Sprintf("clarity %d/10, round %d", report.Rating, next.ClarityRounds))

	if report.Sufficient {
		return p.summarize(ctx, next, "idea is now clear enough")
	}
	if next.ClarityRounds >= p.clarityRoundCap {
		return p.summarize(ctx, next, fmt.Sprintf("round cap of %d reached", p.clarityRoundCap))
	}
	return next, needsInput("the idea still needs more detail"), nil
}

// SkipClarification ends the clarify loop on the user's say-so and
// summarizes whatever context exists.
func (p *Pipeline) SkipClarification(ctx context.Context, state RunState) (RunState, Result, error) {
	if state.Stage != StageClarifying {
		return state, Result{}, validationErr("no clarification is pending")
	}
	return p.summarize(ctx, state, "clarification skipped by user")
}

// summarize runs the summarizer over the accumulated idea context and derives
// the discovery query. The caller guarantees idea context exists.
func (p *Pipeline) summarize(ctx context.Context, state RunState, reason string) (RunState, Result, error) {
	summary, err := p.reasoner.Summarize(ctx, state.Idea)
	if err != nil {
		p.book.Error("summarization failed: %v", err)
		return state, Result{}, classify("reasoning", err)
	}
	next := state.withSummary(summary, search.DeriveQuery(summary))
	p.book.Stage(next.Stage.String(), reason)
	return next, completed("summary confirmed: %s", summary.Topic), nil
}

// ReviseSummary replaces the confirmed summary with the user's edited
// version, clears everything downstream, and re-derives the discovery query.
// Available until evaluation begins, so an unsatisfying discovery can be
// steered by fixing the summary rather than hand-editing the query.
func (p *Pipeline) ReviseSummary(state RunState, revised plan.Summary) (RunState, Result, error) {
	if state.Stage != StageClarified && state.Stage != StageDiscovered {
		return state, Result{}, validationErr("there is no summary to revise at this stage")
	}
	if revised.IsZero() {
		return state, Result{}, validationErr("revised summary must not be empty")
	}
	next := state.withSummary(revised, search.DeriveQuery(revised))
	p.book.Stage(next.Stage.String(), "summary revised by user")
	return next, completed("summary revised: %s", revised.Topic), nil
}

// Discover runs stage two: search for candidate repositories using the
// derived query, or a user-supplied override. An empty result set is not an
// error; the run stays where it is and the user decides what to change.
func (p *Pipeline) Discover(ctx context.Context, state RunState, queryOverride string) (RunState, Result, error) {
	if state.Stage != StageClarified && state.Stage != StageDiscovered {
		return state, Result{}, validationErr("discovery needs a confirmed summary")
	}
	query := strings.TrimSpace(queryOverride)
	if query == "" {
		query = state.Query
	}
	if query == "" {
		return state, Result{}, validationErr("search query must not be empty")
	}

	candidates, err := p.searcher.Search(ctx, query)
	if err != nil {
		p.book.Error("discovery failed: %v", err)
		return state, Result{}, classify("search", err)
	}
	if len(candidates) == 0 {
		state.Query = query
		p.book.Warn("discovery found nothing for %q", query)
		return state, needsInput("no candidates found; revise the summary or edit the query"), nil
	}
	next := state.withCandidates(query, candidates)
	p.book.Stage(next.Stage.String(), fmt.Sprintf("%d candidates for %q", len(candidates), query))
	return next, completed("found %d candidates", len(candidates)), nil
}

// EvaluateCandidates runs stage three's single evaluation call: every
// candidate is scored against the summary at once, and the collaborator's
// recommendation is surfaced alongside the scores.
func (p *Pipeline) EvaluateCandidates(ctx context.Context, state RunState) (RunState, Result, error) {
	if state.Stage != StageDiscovered {
		return state, Result{}, validationErr("evaluation needs discovered candidates")
	}
	if len(state.Candidates) == 0 {
		return state, Result{}, validationErr("no candidates to evaluate")
	}

	evals, recommended, err := p.reasoner.Evaluate(ctx, state.Summary, state.CandidateList())
	if err != nil {
		p.book.Error("evaluation failed: %v", err)
		return state, Result{}, classify("reasoning", err)
	}
	next := state.withEvaluations(evals, recommended)
	p.book.Stage(next.Stage.String(), fmt.Sprintf("%d evaluations, recommended #%d", len(evals), recommended.Candidate))
	return next, completed("evaluated %d candidates", len(evals)), nil
}

// Select confirms the user's chosen candidate by discovery rank.
func (p *Pipeline) Select(state RunState, rank int, rationale string) (RunState, Result, error) {
	if state.Stage != StageEvaluating {
		return state, Result{}, validationErr("selection needs completed evaluations")
	}
	candidate, ok := state.candidateByRank(rank)
	if !ok {
		return state, Result{}, validationErr("candidate %d does not exist", rank)
	}
	rationale = strings.TrimSpace(rationale)
	if rationale == "" && state.Recommended.Candidate == rank {
		rationale = state.Recommended.Rationale
	}
	next := state.withSelection(plan.Selection{Candidate: rank, Rationale: rationale})
	p.book.Stage(next.Stage.String(), fmt.Sprintf("#%d %s", rank, candidate.Title))
	return next, completed("selected %s", candidate.Title), nil
}

// AutoSelect confirms the recommended candidate, falling back to the
// deterministic best score when the evaluator declined to recommend one.
func (p *Pipeline) AutoSelect(state RunState) (RunState, Result, error) {
	if state.Stage != StageEvaluating {
		return state, Result{}, validationErr("selection needs completed evaluations")
	}
	choice := state.Recommended
	if choice.Candidate < 1 {
		best, ok := plan.Best(state.Evaluations)
		if !ok {
			return state, Result{}, validationErr("no evaluations to choose from")
		}
		choice = plan.Selection{Candidate: best.Candidate, Rationale: best.Summary}
	}
	return p.Select(state, choice.Candidate, choice.Rationale)
}

// RestartSelection returns the run to the discovered stage so the same
// candidate set can be re-evaluated or discovery re-run. Everything from
// evaluation onward is discarded.
func (p *Pipeline) RestartSelection(state RunState) (RunState, Result, error) {
	if len(state.Candidates) == 0 {
		return state, Result{}, validationErr("no discovery to return to")
	}
	if state.Stage == StageDiscovered {
		return state, noOp("already at the discovery stage"), nil
	}
	if state.Stage != StageEvaluating && state.Stage != StageSelected && state.Stage != StageGenerating {
		return state, Result{}, validationErr("nothing to restart at this stage")
	}
	next := state.clearedFromEvaluation().withStage(StageDiscovered)
	p.book.Stage(next.Stage.String(), "selection restarted")
	return next, completed("back to %d candidates", len(next.Candidates)), nil
}

// Generate runs stage four's drafting call. A parse failure keeps the raw
// collaborator payload on the state for inspection; the user can retry. An
// empty plan is a normal outcome the user must decide on, not an error.
func (p *Pipeline) Generate(ctx context.Context, state RunState, notes string) (RunState, Result, error) {
	if state.Stage != StageSelected && state.Stage != StageGenerating {
		return state, Result{}, validationErr("generation needs a selected candidate")
	}
	candidate, ok := state.SelectedCandidate()
	if !ok {
		return state, Result{}, validationErr("selected candidate could not be resolved")
	}
	notes = strings.TrimSpace(notes)

	draft, err := p.reasoner.DraftPlan(ctx, reasoning.PlanRequest{
		Summary:   state.Summary,
		Candidate: candidate,
		Notes:     notes,
	})
	if err != nil {
		p.book.Error("plan generation failed: %v", err)
		wrapped := classify("reasoning", err)
		var parseErr *ParseError
		if errors.As(wrapped, &parseErr) {
			return state.withRawPlanFailure(notes, parseErr.Raw), Result{}, wrapped
		}
		return state, Result{}, wrapped
	}

	next := state.withPlan(notes, draft)
	p.book.Stage(next.Stage.String(), fmt.Sprintf("%d phases, %d steps", len(draft.Phases), draft.TotalSteps()))
	if draft.IsEmpty() {
		return next, needsInput("the drafted plan has no steps; retry or start over"), nil
	}
	return next, completed("drafted %d steps across %d phases", draft.TotalSteps(), len(draft.Phases)), nil
}

// Emit writes the aggregate plan document and one document per step. Prior
// emitted output is cleared first so the output tree always reflects exactly
// one plan.
func (p *Pipeline) Emit(state RunState) (RunState, Result, error) {
	if state.Stage != StageGenerating {
		return state, Result{}, validationErr("emission needs a generated plan")
	}
	if !state.HasPlan {
		return state, Result{}, validationErr("the last generation attempt did not produce a plan")
	}
	candidate, ok := state.SelectedCandidate()
	if !ok {
		return state, Result{}, validationErr("selected candidate could not be resolved")
	}

	if err := p.workspace.ClearEmitted(); err != nil {
		return state, Result{}, fmt.Errorf("pipeline: clear previous emission: %w", err)
	}
	meta := artifact.Metadata{
		StageID: emissionStageID,
		Version: emissionVersion,
		RunID:   state.RunID,
	}
	if err := p.store.Write(artifact.StepsDir, nil, meta); err != nil {
		return state, Result{}, fmt.Errorf("pipeline: prepare steps directory: %w", err)
	}

	aggregate := plan.RenderDocument(plan.DocumentInput{
		Summary:   state.Summary,
		Candidate: candidate,
		Rationale: state.Selection.Rationale,
		Plan:      state.Plan,
	})
	if err := p.store.Write(artifact.PlanDoc, aggregate, meta); err != nil {
		return state, Result{}, fmt.Errorf("pipeline: write plan document: %w", err)
	}

	steps := state.Plan.NumberedSteps()
	for _, ns := range steps {
		ref := artifact.StepDoc(ns.Index, ns.Step.Title)
		if err := p.store.Write(ref, plan.RenderStepDocument(ns), meta); err != nil {
			return state, Result{}, fmt.Errorf("pipeline: write step %d document: %w", ns.Index, err)
		}
	}

	next := state.withStage(StageEmitted)
	p.book.Stage(next.Stage.String(), fmt.Sprintf("plan document and %d step documents written", len(steps)))
	return next, completed("emitted the plan and %d step documents to %s", len(steps), p.workspace.OutputDir()), nil
}

// StartOver abandons the current run and begins a fresh one. Emitted
// documents on disk are untouched until the next emission.
func (p *Pipeline) StartOver() RunState {
	state := NewRunState(p.now())
	p.book.Info("run restarted as %s", state.RunID)
	return state
}
