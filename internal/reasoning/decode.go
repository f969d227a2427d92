package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kingrea/groundwork/internal/plan"
)

// DecodeError reports a collaborator payload that could not be mapped into
// the expected structure. Raw preserves the payload text so the user can
// inspect what came back instead of losing it.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("reasoning: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(raw string, err error) error {
	return &DecodeError{Raw: raw, Err: err}
}

// stripFences removes a markdown code fence wrapper if the model added one
// despite the instructions, then trims to the outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

type clarityPayload struct {
	Rating          flexInt  `json:"rating"`
	Reflection      string   `json:"reflection"`
	MissingElements []string `json:"missing_elements"`
	Advice          string   `json:"advice"`
}

func decodeClarity(raw string) (plan.ClarityReport, error) {
	var payload clarityPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return plan.ClarityReport{}, decodeErr(raw, err)
	}
	rating := int(payload.Rating)
	if rating < 1 || rating > 10 {
		return plan.ClarityReport{}, decodeErr(raw, fmt.Errorf("rating %d out of range", rating))
	}
	return plan.ClarityReport{
		Rating:          rating,
		Reflection:      strings.TrimSpace(payload.Reflection),
		MissingElements: trimAll(payload.MissingElements),
		Advice:          strings.TrimSpace(payload.Advice),
	}, nil
}

// summary payloads arrive with inconsistent key casing from some models, so
// decoding goes through a generic map with alias lookup.
var summaryAliases = map[string][]string{
	"purpose":   {"project_purpose", "Project_purpose", "purpose", "topic"},
	"scope":     {"scope", "Scope"},
	"platform":  {"platform", "Platform"},
	"tech":      {"tech_stack", "Tech_stack", "technologies"},
	"features":  {"key_features", "Key_features", "features"},
	"questions": {"open_questions", "Open_questions", "questions"},
}

func decodeSummary(raw string) (plan.Summary, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return plan.Summary{}, decodeErr(raw, err)
	}
	summary := plan.Summary{
		Topic:         stringField(payload, summaryAliases["purpose"]),
		Scope:         stringField(payload, summaryAliases["scope"]),
		Platform:      stringField(payload, summaryAliases["platform"]),
		TechStack:     listField(payload, summaryAliases["tech"]),
		KeyFeatures:   listField(payload, summaryAliases["features"]),
		OpenQuestions: listField(payload, summaryAliases["questions"]),
	}
	if summary.IsZero() {
		return plan.Summary{}, decodeErr(raw, fmt.Errorf("summary carries no recognized fields"))
	}
	return summary, nil
}

type evaluationPayload struct {
	Evaluations []struct {
		Candidate    flexInt  `json:"candidate"`
		Score        flexInt  `json:"suitability_score"`
		Pros         []string `json:"pros"`
		Cons         []string `json:"cons"`
		TechMatch    []string `json:"tech_match"`
		FeatureMatch []string `json:"feature_match"`
		Effort       string   `json:"modification_effort"`
		Summary      string   `json:"summary"`
	} `json:"evaluations"`
	Best   flexInt `json:"best_candidate"`
	Reason string  `json:"reason"`
}

// decodeEvaluations enforces the one-evaluation-per-candidate contract: any
// arity or index mismatch is a decode failure, never silently padded.
func decodeEvaluations(raw string, candidateCount int) ([]plan.Evaluation, plan.Selection, error) {
	var payload evaluationPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, plan.Selection{}, decodeErr(raw, err)
	}
	if len(payload.Evaluations) != candidateCount {
		return nil, plan.Selection{}, decodeErr(raw,
			fmt.Errorf("expected %d evaluations, got %d", candidateCount, len(payload.Evaluations)))
	}
	seen := make(map[int]bool, candidateCount)
	evals := make([]plan.Evaluation, 0, candidateCount)
	for i, e := range payload.Evaluations {
		candidate := int(e.Candidate)
		if candidate == 0 {
			// Some models omit the index; trust payload order.
			candidate = i + 1
		}
		if candidate < 1 || candidate > candidateCount || seen[candidate] {
			return nil, plan.Selection{}, decodeErr(raw,
				fmt.Errorf("evaluations[%d] has invalid candidate number %d", i, candidate))
		}
		seen[candidate] = true
		score := int(e.Score)
		if score < 1 || score > 10 {
			return nil, plan.Selection{}, decodeErr(raw,
				fmt.Errorf("evaluations[%d] score %d out of range", i, score))
		}
		evals = append(evals, plan.Evaluation{
			Candidate:      candidate,
			Score:          score,
			Pros:           trimAll(e.Pros),
			Cons:           trimAll(e.Cons),
			TechMatches:    trimAll(e.TechMatch),
			FeatureMatches: trimAll(e.FeatureMatch),
			Effort:         strings.TrimSpace(e.Effort),
			Summary:        strings.TrimSpace(e.Summary),
		})
	}
	recommended := plan.Selection{Candidate: int(payload.Best), Rationale: strings.TrimSpace(payload.Reason)}
	if recommended.Candidate < 1 || recommended.Candidate > candidateCount {
		// Recommendation is advisory; fall back to the deterministic best.
		if best, ok := plan.Best(evals); ok {
			recommended = plan.Selection{Candidate: best.Candidate}
		}
	}
	return evals, recommended, nil
}

type planPayload struct {
	Enhancement string `json:"enhancement_description"`
	Phases      []struct {
		Title string `json:"title"`
		Steps []struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Tasks       []string `json:"tasks"`
			Outcomes    []string `json:"expected_outcomes"`
			Outcome     string   `json:"expected_outcome"` // alternative singular form
			Resources   []struct {
				Label string `json:"label"`
				Link  string `json:"link"`
				URL   string `json:"url"` // alternative key
			} `json:"resources"`
		} `json:"steps"`
	} `json:"phases"`
}

func decodePlan(raw string) (plan.Plan, error) {
	var payload planPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return plan.Plan{}, decodeErr(raw, err)
	}
	if len(payload.Phases) == 0 {
		return plan.Plan{}, decodeErr(raw, fmt.Errorf("plan has no phases"))
	}
	result := plan.Plan{Enhancement: strings.TrimSpace(payload.Enhancement)}
	for _, ph := range payload.Phases {
		phase := plan.Phase{Title: strings.TrimSpace(ph.Title)}
		for _, st := range ph.Steps {
			step := plan.Step{
				Title:       strings.TrimSpace(st.Title),
				Description: strings.TrimSpace(st.Description),
				Outcomes:    trimAll(st.Outcomes),
			}
			if len(step.Outcomes) == 0 {
				if outcome := strings.TrimSpace(st.Outcome); outcome != "" {
					step.Outcomes = []string{outcome}
				}
			}
			for _, text := range st.Tasks {
				if text = strings.TrimSpace(text); text != "" {
					step.Tasks = append(step.Tasks, plan.Task{Text: text})
				}
			}
			for _, res := range st.Resources {
				link := strings.TrimSpace(res.Link)
				if link == "" {
					link = strings.TrimSpace(res.URL)
				}
				label := strings.TrimSpace(res.Label)
				if label == "" && link == "" {
					continue
				}
				if label == "" {
					label = link
				}
				step.Resources = append(step.Resources, plan.Resource{Label: label, Link: link})
			}
			phase.Steps = append(phase.Steps, step)
		}
		result.Phases = append(result.Phases, phase)
	}
	if errs := plan.Validate(&result); len(errs) > 0 {
		return plan.Plan{}, decodeErr(raw, fmt.Errorf("plan failed validation: %v", errs[0]))
	}
	return result, nil
}

// flexInt accepts both JSON numbers and numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if trimmed == "" || trimmed == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal([]byte(trimmed), &n); err != nil {
		return err
	}
	*f = flexInt(int(n))
	return nil
}

func stringField(payload map[string]any, keys []string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

func listField(payload map[string]any, keys []string) []string {
	for _, key := range keys {
		switch value := payload[key].(type) {
		case []any:
			var out []string
			for _, item := range value {
				if s, ok := item.(string); ok {
					if s = strings.TrimSpace(s); s != "" {
						out = append(out, s)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			// Some models return a comma-joined string instead of a list.
			var out []string
			for _, part := range strings.Split(value, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
