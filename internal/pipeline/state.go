package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/groundwork/internal/plan"
)

// RunState is the immutable-per-stage value threaded through the pipeline.
// Operations never mutate the state they receive; each transition returns a
// new value layered on the previous one, so a failed stage leaves the
// caller's state exactly as it was.
type RunState struct {
	RunID     string
	Stage     Stage
	StartedAt time.Time

	// Idea accumulates the original idea text plus every clarification
	// answer, in submission order.
	Idea string
	// ClarityRounds counts clarifier calls made this run.
	ClarityRounds int
	// Report is the most recent clarity verdict.
	Report plan.ClarityReport

	Summary plan.Summary
	// Query is the derived (possibly user-edited) search query.
	Query      string
	Candidates []plan.Candidate

	Evaluations []plan.Evaluation
	// Recommended is the evaluator's suggested pick, surfaced to the user.
	Recommended plan.Selection
	// Selection is the confirmed choice; Candidate 0 means none yet.
	Selection plan.Selection

	// Notes holds the user's optional enhancement notes for generation.
	Notes   string
	Plan    plan.Plan
	HasPlan bool
	// RawPlanOutput preserves the collaborator's plan payload when parsing
	// failed, so the user can inspect it before retrying.
	RawPlanOutput string
}

// NewRunState starts a fresh run.
func NewRunState(now time.Time) RunState {
	return RunState{
		RunID:     uuid.NewString(),
		Stage:     StageIdea,
		StartedAt: now,
	}
}

// SelectedCandidate resolves the confirmed selection against the candidate
// set. ok is false until a selection exists.
func (s RunState) SelectedCandidate() (plan.Candidate, bool) {
	return s.candidateByRank(s.Selection.Candidate)
}

func (s RunState) candidateByRank(rank int) (plan.Candidate, bool) {
	if rank < 1 {
		return plan.Candidate{}, false
	}
	for _, c := range s.Candidates {
		if c.Rank == rank {
			return c, true
		}
	}
	return plan.Candidate{}, false
}

// CandidateList returns a defensive copy of the candidate set.
func (s RunState) CandidateList() []plan.Candidate {
	out := make([]plan.Candidate, len(s.Candidates))
	copy(out, s.Candidates)
	return out
}

// EvaluationList returns a defensive copy of the evaluations.
func (s RunState) EvaluationList() []plan.Evaluation {
	out := make([]plan.Evaluation, len(s.Evaluations))
	copy(out, s.Evaluations)
	return out
}

// withStage returns a copy advanced to the given stage.
func (s RunState) withStage(stage Stage) RunState {
	s.Stage = stage
	return s
}

// withClarityRound records one clarifier verdict and the idea context it
// rated.
func (s RunState) withClarityRound(idea string, report plan.ClarityReport) RunState {
	s.Idea = idea
	s.Report = report
	s.ClarityRounds++
	s.Stage = StageClarifying
	return s
}

// withSummary confirms the summary, derives nothing itself — the caller
// supplies the query — and clears all downstream state.
func (s RunState) withSummary(summary plan.Summary, query string) RunState {
	s.Summary = summary
	s.Query = query
	s.Stage = StageClarified
	return s.clearedFromDiscovery()
}

// withCandidates records a discovery result.
func (s RunState) withCandidates(query string, candidates []plan.Candidate) RunState {
	s.Query = query
	s.Candidates = append([]plan.Candidate{}, candidates...)
	s.Stage = StageDiscovered
	return s.clearedFromEvaluation()
}

// withEvaluations records the evaluation result and recommendation.
func (s RunState) withEvaluations(evals []plan.Evaluation, recommended plan.Selection) RunState {
	s.Evaluations = append([]plan.Evaluation{}, evals...)
	s.Recommended = recommended
	s.Stage = StageEvaluating
	return s
}

// withSelection confirms the chosen candidate.
func (s RunState) withSelection(sel plan.Selection) RunState {
	s.Selection = sel
	s.Stage = StageSelected
	return s
}

// withPlan records a successfully parsed plan.
func (s RunState) withPlan(notes string, p plan.Plan) RunState {
	s.Notes = notes
	s.Plan = p
	s.HasPlan = true
	s.RawPlanOutput = ""
	s.Stage = StageGenerating
	return s
}

// withRawPlanFailure preserves an unparseable plan payload for inspection.
func (s RunState) withRawPlanFailure(notes, raw string) RunState {
	s.Notes = notes
	s.HasPlan = false
	s.Plan = plan.Plan{}
	s.RawPlanOutput = raw
	s.Stage = StageGenerating
	return s
}

// clearedFromDiscovery drops everything downstream of the summary.
func (s RunState) clearedFromDiscovery() RunState {
	s.Candidates = nil
	return s.clearedFromEvaluation()
}

// clearedFromEvaluation drops evaluations, the selection, and plan state.
// Candidates survive so a stage-3 restart can re-evaluate them.
func (s RunState) clearedFromEvaluation() RunState {
	s.Evaluations = nil
	s.Recommended = plan.Selection{}
	s.Selection = plan.Selection{}
	s.Notes = ""
	s.Plan = plan.Plan{}
	s.HasPlan = false
	s.RawPlanOutput = ""
	return s
}
