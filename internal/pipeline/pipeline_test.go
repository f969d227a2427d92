package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/groundwork/internal/artifact"
	"github.com/kingrea/groundwork/internal/plan"
	"github.com/kingrea/groundwork/internal/reasoning"
	"github.com/kingrea/groundwork/internal/search"
	"github.com/kingrea/groundwork/internal/workspace"
)

// stubReasoner counts calls and returns canned responses so tests can assert
// exactly which collaborator calls an operation makes.
type stubReasoner struct {
	clarityCalls  int
	summaryCalls  int
	evaluateCalls int
	planCalls     int

	report      plan.ClarityReport
	reportErr   error
	summary     plan.Summary
	summaryErr  error
	evaluations []plan.Evaluation
	recommended plan.Selection
	evaluateErr error
	plan        plan.Plan
	planErr     error
}

func (s *stubReasoner) AssessClarity(ctx context.Context, idea string) (plan.ClarityReport, error) {
	s.clarityCalls++
	return s.report, s.reportErr
}

func (s *stubReasoner) Summarize(ctx context.Context, idea string) (plan.Summary, error) {
	s.summaryCalls++
	return s.summary, s.summaryErr
}

func (s *stubReasoner) Evaluate(ctx context.Context, summary plan.Summary, candidates []plan.Candidate) ([]plan.Evaluation, plan.Selection, error) {
	s.evaluateCalls++
	return s.evaluations, s.recommended, s.evaluateErr
}

func (s *stubReasoner) DraftPlan(ctx context.Context, req reasoning.PlanRequest) (plan.Plan, error) {
	s.planCalls++
	return s.plan, s.planErr
}

type stubSearcher struct {
	calls      int
	lastQuery  string
	candidates []plan.Candidate
	err        error
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]plan.Candidate, error) {
	s.calls++
	s.lastQuery = query
	return append([]plan.Candidate{}, s.candidates...), s.err
}

func testSummary() plan.Summary {
	return plan.Summary{
		Topic:       "expense tracker",
		Scope:       "personal budgets only",
		Platform:    "web",
		TechStack:   []string{"Go", "SQLite"},
		KeyFeatures: []string{"budgets", "reports"},
	}
}

func testCandidates(n int) []plan.Candidate {
	out := make([]plan.Candidate, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, plan.Candidate{
			Title:       fmt.Sprintf("repo-%d", i),
			URL:         fmt.Sprintf("https://github.com/x/repo-%d", i),
			Description: "a candidate",
			Rank:        i,
		})
	}
	return out
}

func evaluationsFor(candidates []plan.Candidate) []plan.Evaluation {
	out := make([]plan.Evaluation, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, plan.Evaluation{Candidate: c.Rank, Score: 5 + c.Rank%3, Summary: "fits"})
	}
	return out
}

func testPlan() plan.Plan {
	return plan.Plan{
		Enhancement: "add budgets on top of the base tracker",
		Phases: []plan.Phase{
			{Title: "Foundation", Steps: []plan.Step{
				{Title: "Fork and build", Description: "get it running", Tasks: []plan.Task{{Text: "fork"}, {Text: "build"}}},
				{Title: "Schema changes", Description: "extend storage", Tasks: []plan.Task{{Text: "add budgets table"}}},
				{Title: "Wire config", Description: "knobs", Tasks: []plan.Task{{Text: "read env"}}},
			}},
			{Title: "Features", Steps: []plan.Step{
				{Title: "Budget UI", Description: "screens", Tasks: []plan.Task{{Text: "list view"}, {Text: "edit view"}}},
				{Title: "Reports", Description: "monthly rollups", Tasks: []plan.Task{{Text: "rollup query"}}},
			}},
		},
	}
}

type harness struct {
	pipeline *Pipeline
	reasoner *stubReasoner
	searcher *stubSearcher
	ws       *workspace.Workspace
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	ws := workspace.New(t.TempDir(), "")
	if err := ws.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	reasoner := &stubReasoner{}
	searcher := &stubSearcher{}
	clock := func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	store := artifact.NewStore(ws, artifact.WithClock(clock))
	opts = append(opts, WithPipelineClock(clock))
	p, err := New(reasoner, searcher, store, ws, nil, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{pipeline: p, reasoner: reasoner, searcher: searcher, ws: ws}
}

// advance drives a harness through a full run up to (not including) Emit.
func (h *harness) advance(t *testing.T) RunState {
	t.Helper()
	h.reasoner.report = plan.ClarityReport{Rating: 9, Sufficient: true}
	h.reasoner.summary = testSummary()
	h.searcher.candidates = testCandidates(3)
	h.reasoner.evaluations = evaluationsFor(h.searcher.candidates)
	h.reasoner.recommended = plan.Selection{Candidate: 2, Rationale: "closest fit"}
	h.reasoner.plan = testPlan()

	ctx := context.Background()
	state := h.pipeline.NewRun()
	state, _, err := h.pipeline.SubmitIdea(ctx, state, "track my expenses with budgets")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	state, _, err = h.pipeline.Discover(ctx, state, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	state, _, err = h.pipeline.EvaluateCandidates(ctx, state)
	if err != nil {
		t.Fatalf("EvaluateCandidates: %v", err)
	}
	state, _, err = h.pipeline.AutoSelect(state)
	if err != nil {
		t.Fatalf("AutoSelect: %v", err)
	}
	state, _, err = h.pipeline.Generate(ctx, state, "keep it simple")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return state
}

func TestSubmitIdeaEmptyMakesNoCalls(t *testing.T) {
	h := newHarness(t)
	state := h.pipeline.NewRun()
	_, _, err := h.pipeline.SubmitIdea(context.Background(), state, "   ")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if h.reasoner.clarityCalls != 0 || h.reasoner.summaryCalls != 0 {
		t.Fatalf("collaborators were called for an empty idea")
	}
}

func TestSubmitIdeaClearEnoughSkipsClarifyLoop(t *testing.T) {
	h := newHarness(t)
	h.reasoner.report = plan.ClarityReport{Rating: 9, Sufficient: true}
	h.reasoner.summary = testSummary()

	state, result, err := h.pipeline.SubmitIdea(context.Background(), h.pipeline.NewRun(), "detailed idea")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	if state.Stage != StageClarified {
		t.Fatalf("stage = %s, want clarified", state.Stage)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if state.Summary.IsZero() {
		t.Fatalf("no summary confirmed")
	}
	if state.Query == "" {
		t.Fatalf("no discovery query derived")
	}
}

func TestSubmitIdeaVagueAsksQuestions(t *testing.T) {
	h := newHarness(t)
	h.reasoner.report = plan.ClarityReport{
		Rating:          3,
		Reflection:      "an app of some kind",
		MissingElements: []string{"platform", "features"},
	}

	state, result, err := h.pipeline.SubmitIdea(context.Background(), h.pipeline.NewRun(), "an app")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	if state.Stage != StageClarifying {
		t.Fatalf("stage = %s, want clarifying", state.Stage)
	}
	if result.Status != StatusNeedsInput {
		t.Fatalf("status = %s, want needs-input", result.Status)
	}
	if !strings.Contains(state.Report.Questions(), "platform") {
		t.Fatalf("questions lost the missing elements: %q", state.Report.Questions())
	}
	if h.reasoner.summaryCalls != 0 {
		t.Fatalf("summarizer called while the idea is still vague")
	}
}

func TestAnswerClarificationAccumulatesContext(t *testing.T) {
	h := newHarness(t)
	h.reasoner.report = plan.ClarityReport{Rating: 4}
	ctx := context.Background()

	state, _, err := h.pipeline.SubmitIdea(ctx, h.pipeline.NewRun(), "an app")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	h.reasoner.report = plan.ClarityReport{Rating: 9, Sufficient: true}
	h.reasoner.summary = testSummary()
	state, _, err = h.pipeline.AnswerClarification(ctx, state, "a web expense tracker")
	if err != nil {
		t.Fatalf("AnswerClarification: %v", err)
	}
	if state.Stage != StageClarified {
		t.Fatalf("stage = %s, want clarified", state.Stage)
	}
	if !strings.Contains(state.Idea, "an app") || !strings.Contains(state.Idea, "expense tracker") {
		t.Fatalf("idea context lost an answer: %q", state.Idea)
	}
	if state.ClarityRounds != 2 {
		t.Fatalf("rounds = %d, want 2", state.ClarityRounds)
	}
}

func TestClarifyRoundCapForcesSummary(t *testing.T) {
	h := newHarness(t, WithClarityRoundCap(2))
	h.reasoner.report = plan.ClarityReport{Rating: 3}
	h.reasoner.summary = testSummary()
	ctx := context.Background()

	state, _, err := h.pipeline.SubmitIdea(ctx, h.pipeline.NewRun(), "an app")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	state, _, err = h.pipeline.AnswerClarification(ctx, state, "still vague")
	if err != nil {
		t.Fatalf("AnswerClarification: %v", err)
	}
	if state.Stage != StageClarified {
		t.Fatalf("stage = %s, want clarified after hitting the cap", state.Stage)
	}
	if h.reasoner.summaryCalls != 1 {
		t.Fatalf("summaryCalls = %d, want 1", h.reasoner.summaryCalls)
	}
}

func TestSkipClarificationSummarizesImmediately(t *testing.T) {
	h := newHarness(t)
	h.reasoner.report = plan.ClarityReport{Rating: 3}
	h.reasoner.summary = testSummary()
	ctx := context.Background()

	state, _, err := h.pipeline.SubmitIdea(ctx, h.pipeline.NewRun(), "an app")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	state, result, err := h.pipeline.SkipClarification(ctx, state)
	if err != nil {
		t.Fatalf("SkipClarification: %v", err)
	}
	if state.Stage != StageClarified || result.Status != StatusCompleted {
		t.Fatalf("stage = %s, status = %s", state.Stage, result.Status)
	}
}

func TestDiscoverIsDeterministicAndLeavesSummaryAlone(t *testing.T) {
	h := newHarness(t)
	state := RunState{Stage: StageClarified, Summary: testSummary(), Query: "expense tracker for web"}
	h.searcher.candidates = testCandidates(3)
	ctx := context.Background()

	first, _, err := h.pipeline.Discover(ctx, state, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	second, _, err := h.pipeline.Discover(ctx, state, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	for i := range first.Candidates {
		if !reflect.DeepEqual(first.Candidates[i], second.Candidates[i]) {
			t.Fatalf("candidate order differs between identical runs")
		}
	}
	if first.Summary.Topic != state.Summary.Topic || first.Summary.Scope != state.Summary.Scope {
		t.Fatalf("discovery mutated the summary")
	}
}

func TestDiscoverEmptyResultNeedsInput(t *testing.T) {
	h := newHarness(t)
	state := RunState{Stage: StageClarified, Summary: testSummary(), Query: "very obscure thing"}

	next, result, err := h.pipeline.Discover(context.Background(), state, "")
	if err != nil {
		t.Fatalf("zero results must not be an error, got %v", err)
	}
	if result.Status != StatusNeedsInput {
		t.Fatalf("status = %s, want needs-input", result.Status)
	}
	if next.Stage != StageClarified {
		t.Fatalf("stage = %s, summary must stay revisable", next.Stage)
	}

	// The summary is still revisable after an empty discovery, and the
	// revision re-derives the query.
	edited := testSummary()
	edited.Topic = "budgeting tool"
	revised, _, err := h.pipeline.ReviseSummary(next, edited)
	if err != nil {
		t.Fatalf("ReviseSummary after empty discovery: %v", err)
	}
	if revised.Stage != StageClarified {
		t.Fatalf("stage = %s after revision", revised.Stage)
	}
	if !strings.Contains(revised.Query, "budgeting tool") {
		t.Fatalf("query not re-derived: %q", revised.Query)
	}
}

func TestDiscoverQueryOverride(t *testing.T) {
	h := newHarness(t)
	h.searcher.candidates = testCandidates(1)
	state := RunState{Stage: StageClarified, Summary: testSummary(), Query: "derived query"}

	next, _, err := h.pipeline.Discover(context.Background(), state, "my own query")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if h.searcher.lastQuery != "my own query" {
		t.Fatalf("sent query = %q, want override", h.searcher.lastQuery)
	}
	if next.Query != "my own query" {
		t.Fatalf("state query = %q", next.Query)
	}
}

func TestEvaluateProducesOnePerCandidate(t *testing.T) {
	h := newHarness(t)
	candidates := testCandidates(3)
	state := RunState{Stage: StageDiscovered, Summary: testSummary(), Candidates: candidates}
	h.reasoner.evaluations = evaluationsFor(candidates)
	h.reasoner.recommended = plan.Selection{Candidate: 2, Rationale: "closest fit"}

	next, _, err := h.pipeline.EvaluateCandidates(context.Background(), state)
	if err != nil {
		t.Fatalf("EvaluateCandidates: %v", err)
	}
	if len(next.Evaluations) != len(next.Candidates) {
		t.Fatalf("evaluations = %d, candidates = %d", len(next.Evaluations), len(next.Candidates))
	}
	if next.Recommended.Candidate != 2 {
		t.Fatalf("recommended = %d, want 2", next.Recommended.Candidate)
	}
}

func TestSelectReferentialIntegrity(t *testing.T) {
	h := newHarness(t)
	candidates := testCandidates(3)
	state := RunState{
		Stage:       StageEvaluating,
		Candidates:  candidates,
		Evaluations: evaluationsFor(candidates),
	}

	if _, _, err := h.pipeline.Select(state, 7, ""); err == nil {
		t.Fatalf("expected error selecting a candidate that does not exist")
	}
	next, _, err := h.pipeline.Select(state, 2, "best docs")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	chosen, ok := next.SelectedCandidate()
	if !ok || chosen.Rank != 2 || chosen.Title != "repo-2" {
		t.Fatalf("selected candidate = %+v, ok = %v", chosen, ok)
	}
	if next.Stage != StageSelected {
		t.Fatalf("stage = %s", next.Stage)
	}
}

func TestAutoSelectFallsBackToBestScore(t *testing.T) {
	h := newHarness(t)
	candidates := testCandidates(3)
	state := RunState{
		Stage:      StageEvaluating,
		Candidates: candidates,
		Evaluations: []plan.Evaluation{
			{Candidate: 1, Score: 6},
			{Candidate: 2, Score: 9, Summary: "strongest match"},
			{Candidate: 3, Score: 9},
		},
	}

	next, _, err := h.pipeline.AutoSelect(state)
	if err != nil {
		t.Fatalf("AutoSelect: %v", err)
	}
	if next.Selection.Candidate != 2 {
		t.Fatalf("selection = %d, want highest score with lowest rank", next.Selection.Candidate)
	}
}

func TestRestartSelectionKeepsCandidates(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)
	if state.Stage != StageGenerating {
		t.Fatalf("setup stage = %s", state.Stage)
	}

	next, _, err := h.pipeline.RestartSelection(state)
	if err != nil {
		t.Fatalf("RestartSelection: %v", err)
	}
	if next.Stage != StageDiscovered {
		t.Fatalf("stage = %s, want discovered", next.Stage)
	}
	if len(next.Candidates) != 3 {
		t.Fatalf("candidates dropped: %d", len(next.Candidates))
	}
	if len(next.Evaluations) != 0 || next.Selection.Candidate != 0 || next.HasPlan {
		t.Fatalf("evaluation state survived the restart: %+v", next)
	}
}

func TestGenerateParseFailureKeepsRawPayload(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)
	state, _, err := h.pipeline.RestartSelection(state)
	if err != nil {
		t.Fatalf("RestartSelection: %v", err)
	}
	state, _, err = h.pipeline.EvaluateCandidates(context.Background(), state)
	if err != nil {
		t.Fatalf("EvaluateCandidates: %v", err)
	}
	state, _, err = h.pipeline.AutoSelect(state)
	if err != nil {
		t.Fatalf("AutoSelect: %v", err)
	}

	h.reasoner.planErr = &reasoning.DecodeError{Raw: "not json at all", Err: errors.New("invalid character")}
	next, _, err := h.pipeline.Generate(context.Background(), state, "")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if next.RawPlanOutput != "not json at all" {
		t.Fatalf("raw payload not preserved: %q", next.RawPlanOutput)
	}
	if next.HasPlan {
		t.Fatalf("a failed parse must not look like a plan")
	}

	// Retry from the same state succeeds.
	h.reasoner.planErr = nil
	h.reasoner.plan = testPlan()
	retried, _, err := h.pipeline.Generate(context.Background(), next, "")
	if err != nil {
		t.Fatalf("retry Generate: %v", err)
	}
	if !retried.HasPlan || retried.RawPlanOutput != "" {
		t.Fatalf("retry did not clear the failure state")
	}
}

func TestGenerateEmptyPlanNeedsDecision(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)
	state, _, err := h.pipeline.RestartSelection(state)
	if err != nil {
		t.Fatalf("RestartSelection: %v", err)
	}
	state, _, err = h.pipeline.EvaluateCandidates(context.Background(), state)
	if err != nil {
		t.Fatalf("EvaluateCandidates: %v", err)
	}
	state, _, err = h.pipeline.AutoSelect(state)
	if err != nil {
		t.Fatalf("AutoSelect: %v", err)
	}

	h.reasoner.plan = plan.Plan{Enhancement: "nothing to do"}
	next, result, err := h.pipeline.Generate(context.Background(), state, "")
	if err != nil {
		t.Fatalf("an empty plan is not an error, got %v", err)
	}
	if result.Status != StatusNeedsInput {
		t.Fatalf("status = %s, want needs-input", result.Status)
	}
	if !next.HasPlan {
		t.Fatalf("empty plan must still be recorded for the user to inspect")
	}
}

func TestCollaboratorFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.reasoner.reportErr = errors.New("connection refused")
	state := h.pipeline.NewRun()

	next, _, err := h.pipeline.SubmitIdea(context.Background(), state, "an idea")
	var collabErr *CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if collabErr.Collaborator != "reasoning" {
		t.Fatalf("collaborator = %q", collabErr.Collaborator)
	}
	if next.Stage != StageIdea || next.ClarityRounds != 0 {
		t.Fatalf("failed call changed the state: %+v", next)
	}
}

func TestDiscoveryDecodeFailureIsParseError(t *testing.T) {
	h := newHarness(t)
	h.reasoner.report = plan.ClarityReport{Rating: 9, Sufficient: true}
	h.reasoner.summary = testSummary()
	ctx := context.Background()

	state, _, err := h.pipeline.SubmitIdea(ctx, h.pipeline.NewRun(), "track my expenses")
	if err != nil {
		t.Fatalf("SubmitIdea: %v", err)
	}
	h.searcher.err = &search.DecodeError{Raw: `{"results": "<html>garbage`, Err: errors.New("unexpected end of JSON input")}

	next, _, err := h.pipeline.Discover(ctx, state, "")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(parseErr.Raw, "garbage") {
		t.Fatalf("raw payload not preserved: %q", parseErr.Raw)
	}
	if next.Stage != StageClarified || len(next.Candidates) != 0 {
		t.Fatalf("failed discovery changed the state: %+v", next)
	}
}

func TestEmitWritesAggregateAndStepDocuments(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)

	final, result, err := h.pipeline.Emit(state)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if final.Stage != StageEmitted || !final.Stage.Terminal() {
		t.Fatalf("stage = %s, want terminal emitted", final.Stage)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("status = %s", result.Status)
	}
	if !h.ws.HasEmitted() {
		t.Fatalf("aggregate document missing")
	}

	entries, err := os.ReadDir(h.ws.StepsPath())
	if err != nil {
		t.Fatalf("read steps dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if len(names) != 5 {
		t.Fatalf("step documents = %d, want 5", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("directory listing not sorted: %v", names)
	}
	// Lexicographic filename order must equal step order.
	for i, ns := range state.Plan.NumberedSteps() {
		want := plan.StepFileName(ns.Index, ns.Step.Title)
		if names[i] != want {
			t.Fatalf("step %d filename = %q, want %q", ns.Index, names[i], want)
		}
	}
}

func TestEmitStepDocumentsRoundTripTasks(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)
	if _, _, err := h.pipeline.Emit(state); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	store := artifact.NewStore(h.ws)
	for _, ns := range state.Plan.NumberedSteps() {
		body, err := store.ReadBody(artifact.StepDoc(ns.Index, ns.Step.Title))
		if err != nil {
			t.Fatalf("read step %d: %v", ns.Index, err)
		}
		tasks := plan.ParseStepTasks(body)
		if len(tasks) != len(ns.Step.Tasks) {
			t.Fatalf("step %d tasks = %d, want %d", ns.Index, len(tasks), len(ns.Step.Tasks))
		}
		for i := range tasks {
			if tasks[i].Text != ns.Step.Tasks[i].Text {
				t.Fatalf("step %d task %d = %q, want %q", ns.Index, i, tasks[i].Text, ns.Step.Tasks[i].Text)
			}
		}
	}
}

func TestEmitReplacesPreviousOutput(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)
	if _, _, err := h.pipeline.Emit(state); err != nil {
		t.Fatalf("first Emit: %v", err)
	}

	stale := filepath.Join(h.ws.StepsPath(), "99-stale-step.md")
	if err := os.WriteFile(stale, []byte("left over"), 0o644); err != nil {
		t.Fatalf("plant stale file: %v", err)
	}
	if _, _, err := h.pipeline.Emit(state); err != nil {
		t.Fatalf("second Emit: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale step document survived re-emission")
	}
}

func TestEmitStampsRunMetadata(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)
	if _, _, err := h.pipeline.Emit(state); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	store := artifact.NewStore(h.ws)
	result, err := store.Check(artifact.PlanDoc)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.State != artifact.StateReady {
		t.Fatalf("state = %s", result.State)
	}
	if result.Metadata.RunID != state.RunID {
		t.Fatalf("run id = %q, want %q", result.Metadata.RunID, state.RunID)
	}
	if result.Metadata.StageID != "emitting" {
		t.Fatalf("stage id = %q", result.Metadata.StageID)
	}
}

func TestStartOverIssuesFreshRun(t *testing.T) {
	h := newHarness(t)
	state := h.advance(t)

	fresh := h.pipeline.StartOver()
	if fresh.RunID == state.RunID {
		t.Fatalf("run id reused")
	}
	if fresh.Stage != StageIdea || fresh.Idea != "" || len(fresh.Candidates) != 0 {
		t.Fatalf("fresh run carries old state: %+v", fresh)
	}
}

func TestOperationsRejectWrongStage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	idle := h.pipeline.NewRun()

	cases := []struct {
		name string
		call func() error
	}{
		{"AnswerClarification", func() error {
			_, _, err := h.pipeline.AnswerClarification(ctx, idle, "answer")
			return err
		}},
		{"Discover", func() error {
			_, _, err := h.pipeline.Discover(ctx, idle, "query")
			return err
		}},
		{"EvaluateCandidates", func() error {
			_, _, err := h.pipeline.EvaluateCandidates(ctx, idle)
			return err
		}},
		{"Select", func() error {
			_, _, err := h.pipeline.Select(idle, 1, "")
			return err
		}},
		{"Generate", func() error {
			_, _, err := h.pipeline.Generate(ctx, idle, "")
			return err
		}},
		{"Emit", func() error {
			_, _, err := h.pipeline.Emit(idle)
			return err
		}},
	}
	for _, tc := range cases {
		err := tc.call()
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError at the idea stage, got %v", tc.name, err)
		}
	}
	if h.reasoner.clarityCalls+h.reasoner.summaryCalls+h.reasoner.evaluateCalls+h.reasoner.planCalls != 0 {
		t.Fatalf("wrong-stage calls reached the reasoning collaborator")
	}
	if h.searcher.calls != 0 {
		t.Fatalf("wrong-stage calls reached the search collaborator")
	}
}
