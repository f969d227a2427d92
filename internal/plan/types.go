package plan

import (
	"sort"
	"strings"
)

// Summary is the confirmed restatement of a project idea produced by the
// reasoning collaborator once the clarify loop ends.
type Summary struct {
	// Topic is the confirmed purpose of the project in one sentence.
	Topic string
	// Scope is a short statement of what is in and out of bounds.
	Scope string
	// Platform names the delivery target (web, mobile, cli, ...).
	Platform string
	// TechStack lists the confirmed technologies in priority order.
	TechStack []string
	// KeyFeatures lists the features the user confirmed, in priority order.
	KeyFeatures []string
	// OpenQuestions carries anything still unresolved. May be empty.
	OpenQuestions []string
}

// IsZero reports whether the summary carries no confirmed content.
func (s Summary) IsZero() bool {
	return strings.TrimSpace(s.Topic) == "" &&
		strings.TrimSpace(s.Scope) == "" &&
		strings.TrimSpace(s.Platform) == "" &&
		len(s.TechStack) == 0 &&
		len(s.KeyFeatures) == 0
}

// ClarityReport is the reasoning collaborator's verdict on one clarify round.
type ClarityReport struct {
	// Rating scores the idea's clarity from 1 (vague) to 10 (precise).
	Rating int
	// Reflection restates the idea as understood so far.
	Reflection string
	// MissingElements names the details the idea still lacks.
	MissingElements []string
	// Advice suggests how the user should sharpen the idea.
	Advice string
	// Sufficient is the explicit loop-exit predicate: true once the idea is
	// clear enough to summarize without further questions.
	Sufficient bool
}

// Questions renders the report's gaps as a single prompt for the user.
func (r ClarityReport) Questions() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Reflection))
	if len(r.MissingElements) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Still missing: ")
		b.WriteString(strings.Join(r.MissingElements, ", "))
	}
	if advice := strings.TrimSpace(r.Advice); advice != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(advice)
	}
	return b.String()
}

// CandidateMetadata carries best-effort facts scraped from a candidate's
// repository page. All fields may be zero when the scrape fails.
type CandidateMetadata struct {
	Stars     int
	Forks     int
	Languages []string
	// Readme holds a capped excerpt of the repository README text.
	Readme string
}

// Candidate is one discovered reference repository.
type Candidate struct {
	// Title is the result title as reported by the search collaborator.
	Title string
	// URL locates the repository. Always a github.com address.
	URL string
	// Description is the search snippet, truncated to 200 characters.
	Description string
	// Rank is the 1-based relevance position from discovery. Order is
	// meaningful and preserved through evaluation and selection.
	Rank     int
	Metadata CandidateMetadata
}

// Evaluation scores one candidate against the confirmed summary. Exactly one
// evaluation exists per candidate.
type Evaluation struct {
	// Candidate is the 1-based discovery rank of the evaluated candidate.
	Candidate int
	// Score rates overall suitability from 1 to 10.
	Score int
	Pros  []string
	Cons  []string
	// TechMatches lists summary technologies the candidate already uses.
	TechMatches []string
	// FeatureMatches lists summary features the candidate already provides.
	FeatureMatches []string
	// Effort estimates the modification cost in the collaborator's words
	// (for example "low", "moderate", "substantial rewrite").
	Effort  string
	Summary string
}

// Selection records the single candidate chosen for plan generation.
type Selection struct {
	// Candidate is the 1-based discovery rank of the chosen candidate.
	Candidate int
	// Rationale explains the choice for the emitted document.
	Rationale string
}

// Task is one imperative action inside a step. Done starts false and exists
// so emitted checklists can be ticked by the reader.
type Task struct {
	Text string
	Done bool
}

// Resource points the reader at supporting material for a step.
type Resource struct {
	Label string
	Link  string
}

// Step is one unit of work inside a phase.
type Step struct {
	Title       string
	Description string
	Tasks       []Task
	// Outcomes describes what must be true once the step is finished.
	Outcomes  []string
	Resources []Resource
}

// Phase groups consecutive steps under a shared goal.
type Phase struct {
	Title string
	Steps []Step
}

// Plan is the structured implementation roadmap for the selected candidate.
type Plan struct {
	// Enhancement describes how the base project will be adapted.
	Enhancement string
	Phases      []Phase
}

// NumberedStep pairs a step with its global 1-based index and owning phase.
type NumberedStep struct {
	Index int
	Phase string
	Step  Step
}

// Steps flattens the plan's phases into phase-then-step order.
func (p Plan) Steps() []Step {
	var out []Step
	for _, phase := range p.Phases {
		out = append(out, phase.Steps...)
	}
	return out
}

// NumberedSteps flattens the plan and assigns contiguous 1-based indices in
// phase-then-step order.
func (p Plan) NumberedSteps() []NumberedStep {
	var out []NumberedStep
	index := 0
	for _, phase := range p.Phases {
		for _, step := range phase.Steps {
			index++
			out = append(out, NumberedStep{Index: index, Phase: phase.Title, Step: step})
		}
	}
	return out
}

// TotalSteps counts steps across all phases.
func (p Plan) TotalSteps() int {
	total := 0
	for _, phase := range p.Phases {
		total += len(phase.Steps)
	}
	return total
}

// IsEmpty reports whether the plan carries no steps at all. An empty plan is
// a normal outcome the user must decide on, not an error.
func (p Plan) IsEmpty() bool {
	return p.TotalSteps() == 0
}

// Ranked orders evaluations by descending score, breaking ties by discovery
// rank so equal scores keep the search collaborator's relevance order.
func Ranked(evals []Evaluation) []Evaluation {
	out := make([]Evaluation, len(evals))
	copy(out, evals)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Candidate < out[j].Candidate
	})
	return out
}

// Best returns the deterministic automated choice: the highest score, ties
// broken by discovery rank. ok is false for an empty evaluation set.
func Best(evals []Evaluation) (Evaluation, bool) {
	if len(evals) == 0 {
		return Evaluation{}, false
	}
	best := evals[0]
	for _, eval := range evals[1:] {
		if eval.Score > best.Score || (eval.Score == best.Score && eval.Candidate < best.Candidate) {
			best = eval
		}
	}
	return best, true
}
