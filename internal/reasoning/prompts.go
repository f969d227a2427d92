package reasoning

import (
	"fmt"
	"strings"

	"github.com/kingrea/groundwork/internal/plan"
)

// System prompts keep the collaborator answering in strict JSON. Each stage
// prompt names every field the decoder expects.

const systemPrompt = `You are an experienced software project planner. ` +
	`Always answer with a single JSON object and nothing else. ` +
	`Do not wrap the JSON in markdown code fences.`

const clarityPromptTemplate = `Assess how clear and actionable the following project idea is.

Project idea:
%s

Respond with JSON:
{
  "rating": <integer 1-10, where 10 means the idea is precise enough to plan>,
  "reflection": "<one paragraph restating the idea as you understand it>",
  "missing_elements": ["<detail the idea still lacks>", ...],
  "advice": "<how the user should sharpen the idea>"
}`

const summaryPromptTemplate = `Summarize the following project idea into a confirmed project summary.

Project idea and clarifications:
%s

Respond with JSON:
{
  "project_purpose": "<one sentence stating what the project does>",
  "scope": "<short statement of what is in and out of bounds>",
  "platform": "<delivery target such as web, mobile, cli, desktop>",
  "tech_stack": ["<technology>", ...],
  "key_features": ["<feature>", ...],
  "open_questions": ["<anything still unresolved>", ...]
}`

const evaluationPromptTemplate = `Evaluate each candidate repository as a starting point for the project below.

Project summary:
%s

Candidates:
%s

Respond with JSON:
{
  "evaluations": [
    {
      "candidate": <1-based number of the candidate being evaluated>,
      "suitability_score": <integer 1-10>,
      "pros": ["<strength>", ...],
      "cons": ["<risk or weakness>", ...],
      "tech_match": ["<summary technology the candidate already uses>", ...],
      "feature_match": ["<summary feature the candidate already provides>", ...],
      "modification_effort": "<low | moderate | high, with a short qualifier>",
      "summary": "<two sentence verdict>"
    },
    ...
  ],
  "best_candidate": <1-based number of the best candidate>,
  "reason": "<why that candidate is the best fit>"
}
Return exactly one evaluation object per candidate, in candidate order.`

const planPromptTemplate = `Create an implementation plan for building the project below on top of the selected base repository.

Project summary:
%s

Selected base repository:
%s
%s
Organize the work into 2-4 phases, each with 1-5 steps. Every step needs
concrete tasks a developer can check off, expected outcomes, and resources.

Respond with JSON:
{
  "enhancement_description": "<how the base project will be adapted and extended>",
  "phases": [
    {
      "title": "<phase title>",
      "steps": [
        {
          "title": "<step title>",
          "description": "<what this step accomplishes and how>",
          "tasks": ["<short imperative task>", ...],
          "expected_outcomes": ["<what must be true when the step is done>", ...],
          "resources": [{"label": "<resource name>", "link": "<url>"}, ...]
        },
        ...
      ]
    },
    ...
  ]
}`

func clarityPrompt(idea string) string {
	return fmt.Sprintf(clarityPromptTemplate, strings.TrimSpace(idea))
}

func summaryPrompt(idea string) string {
	return fmt.Sprintf(summaryPromptTemplate, strings.TrimSpace(idea))
}

func evaluationPrompt(summary plan.Summary, candidates []plan.Candidate) string {
	return fmt.Sprintf(evaluationPromptTemplate, describeSummary(summary), describeCandidates(candidates))
}

func planPrompt(req PlanRequest) string {
	notes := ""
	if trimmed := strings.TrimSpace(req.Notes); trimmed != "" {
		notes = fmt.Sprintf("\nUser enhancement notes:\n%s\n", trimmed)
	}
	return fmt.Sprintf(planPromptTemplate, describeSummary(req.Summary), describeCandidate(req.Candidate), notes)
}

func describeSummary(s plan.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purpose: %s\n", s.Topic)
	if s.Scope != "" {
		fmt.Fprintf(&b, "Scope: %s\n", s.Scope)
	}
	if s.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", s.Platform)
	}
	if len(s.TechStack) > 0 {
		fmt.Fprintf(&b, "Tech stack: %s\n", strings.Join(s.TechStack, ", "))
	}
	if len(s.KeyFeatures) > 0 {
		fmt.Fprintf(&b, "Key features: %s\n", strings.Join(s.KeyFeatures, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeCandidate(c plan.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", c.Title, c.URL)
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}
	meta := c.Metadata
	if meta.Stars > 0 || meta.Forks > 0 {
		fmt.Fprintf(&b, "Stars: %d, Forks: %d\n", meta.Stars, meta.Forks)
	}
	if len(meta.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(meta.Languages, ", "))
	}
	if meta.Readme != "" {
		fmt.Fprintf(&b, "README excerpt: %s\n", meta.Readme)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeCandidates(candidates []plan.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, describeCandidate(c))
	}
	return strings.TrimRight(b.String(), "\n")
}
