package plan

import (
	"strings"
	"testing"
)

func twoPhasePlan() Plan {
	return Plan{
		Enhancement: "Adapt the tracker for offline use.",
		Phases: []Phase{
			{
				Title: "Foundation",
				Steps: []Step{
					{Title: "Fork the base project", Description: "Fork and clone."},
					{Title: "Trim unused modules", Description: "Remove dead code."},
					{Title: "Wire local storage", Description: "Add a store."},
				},
			},
			{
				Title: "Enhancement",
				Steps: []Step{
					{Title: "Add sync engine", Description: "Background sync."},
					{Title: "Polish the UI", Description: "Theme pass."},
				},
			},
		},
	}
}

func TestNumberedStepsAreContiguousAcrossPhases(t *testing.T) {
	p := twoPhasePlan()
	numbered := p.NumberedSteps()
	if len(numbered) != 5 {
		t.Fatalf("expected 5 numbered steps, got %d", len(numbered))
	}
	for i, ns := range numbered {
		if ns.Index != i+1 {
			t.Fatalf("step %d has index %d, want %d", i, ns.Index, i+1)
		}
	}
	if numbered[2].Phase != "Foundation" {
		t.Fatalf("step 3 should belong to Foundation, got %q", numbered[2].Phase)
	}
	if numbered[3].Phase != "Enhancement" {
		t.Fatalf("step 4 should belong to Enhancement, got %q", numbered[3].Phase)
	}
	if p.TotalSteps() != 5 {
		t.Fatalf("TotalSteps = %d, want 5", p.TotalSteps())
	}
}

func TestEmptyPlanReportsEmpty(t *testing.T) {
	if !(Plan{}).IsEmpty() {
		t.Fatalf("zero plan should be empty")
	}
	if twoPhasePlan().IsEmpty() {
		t.Fatalf("populated plan should not be empty")
	}
}

func TestRankedOrdersByScoreThenDiscoveryRank(t *testing.T) {
	evals := []Evaluation{
		{Candidate: 1, Score: 6},
		{Candidate: 2, Score: 9},
		{Candidate: 3, Score: 9},
		{Candidate: 4, Score: 7},
	}
	ranked := Ranked(evals)
	want := []int{2, 3, 4, 1}
	for i, eval := range ranked {
		if eval.Candidate != want[i] {
			t.Fatalf("rank %d: got candidate %d, want %d", i, eval.Candidate, want[i])
		}
	}
	// Input order must stay untouched.
	if evals[0].Candidate != 1 || evals[1].Candidate != 2 {
		t.Fatalf("Ranked mutated its input: %+v", evals)
	}
}

func TestBestPrefersLowerDiscoveryRankOnTie(t *testing.T) {
	best, ok := Best([]Evaluation{
		{Candidate: 3, Score: 8},
		{Candidate: 1, Score: 8},
		{Candidate: 2, Score: 5},
	})
	if !ok {
		t.Fatalf("expected a best evaluation")
	}
	if best.Candidate != 1 {
		t.Fatalf("tie should break to discovery rank 1, got %d", best.Candidate)
	}
	if _, ok := Best(nil); ok {
		t.Fatalf("empty evaluation set should not produce a best")
	}
}

func TestClarityReportQuestionsCombineGaps(t *testing.T) {
	report := ClarityReport{
		Reflection:      "A habit tracker of some kind.",
		MissingElements: []string{"platform", "tech stack"},
		Advice:          "Name the platform you want to target.",
	}
	questions := report.Questions()
	for _, fragment := range []string{"habit tracker", "Still missing: platform, tech stack", "Name the platform"} {
		if !strings.Contains(questions, fragment) {
			t.Fatalf("questions missing %q:\n%s", fragment, questions)
		}
	}
}
