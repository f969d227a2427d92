package plan

import (
	"fmt"
	"strings"
)

// DocumentInput gathers everything the aggregate document needs beyond the
// plan itself.
type DocumentInput struct {
	Summary   Summary
	Candidate Candidate
	Rationale string
	Plan      Plan
}

// nextStepsTail closes every aggregate document. The content is fixed.
var nextStepsTail = []string{
	"Test the application thoroughly",
	"Document any changes from the original plan",
	"Consider improvements for future iterations",
}

// RenderDocument produces the aggregate implementation-plan markdown in its
// fixed section order: project overview, base project, enhancement strategy,
// enumerated steps, next steps.
func RenderDocument(in DocumentInput) []byte {
	var b strings.Builder

	title := strings.TrimSpace(in.Summary.Topic)
	if title == "" {
		title = "Untitled Project"
	}
	fmt.Fprintf(&b, "# Implementation Plan: %s\n\n", title)

	b.WriteString("## 1. Project Overview\n\n")
	writeFact(&b, "Purpose", in.Summary.Topic)
	writeFact(&b, "Scope", in.Summary.Scope)
	writeFact(&b, "Platform", in.Summary.Platform)
	writeFact(&b, "Tech Stack", strings.Join(in.Summary.TechStack, ", "))
	writeFact(&b, "Key Features", strings.Join(in.Summary.KeyFeatures, ", "))
	b.WriteString("\n")

	b.WriteString("## 2. Base Project\n\n")
	writeFact(&b, "Title", in.Candidate.Title)
	writeFact(&b, "URL", in.Candidate.URL)
	writeFact(&b, "Description", in.Candidate.Description)
	if in.Candidate.Metadata.Stars > 0 {
		writeFact(&b, "Stars", fmt.Sprintf("%d", in.Candidate.Metadata.Stars))
	}
	if len(in.Candidate.Metadata.Languages) > 0 {
		writeFact(&b, "Languages", strings.Join(in.Candidate.Metadata.Languages, ", "))
	}
	if rationale := strings.TrimSpace(in.Rationale); rationale != "" {
		writeFact(&b, "Why this base", rationale)
	}
	b.WriteString("\n")

	b.WriteString("## 3. Enhancement Strategy\n\n")
	enhancement := strings.TrimSpace(in.Plan.Enhancement)
	if enhancement == "" {
		enhancement = "Adapt the base project to satisfy the summarized requirements."
	}
	b.WriteString(enhancement)
	b.WriteString("\n\n")

	b.WriteString("## 4. Implementation Steps\n\n")
	numbered := in.Plan.NumberedSteps()
	currentPhase := ""
	for _, ns := range numbered {
		if ns.Phase != currentPhase {
			currentPhase = ns.Phase
			fmt.Fprintf(&b, "### Phase: %s\n\n", currentPhase)
		}
		writeStepBody(&b, ns, 4)
	}
	if len(numbered) == 0 {
		b.WriteString("No implementation steps were generated.\n\n")
	}

	b.WriteString("## 5. Next Steps After Implementation\n\n")
	for i, item := range nextStepsTail {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}

	return []byte(b.String())
}

// RenderStepDocument produces one self-contained step document. The step's
// global index appears in the title so a file can be read in isolation.
func RenderStepDocument(ns NumberedStep) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Step %d: %s\n\n", ns.Index, strings.TrimSpace(ns.Step.Title))
	if ns.Phase != "" {
		fmt.Fprintf(&b, "Phase: %s\n\n", ns.Phase)
	}
	writeStepSections(&b, ns.Step, "##")
	return []byte(b.String())
}

func writeStepBody(b *strings.Builder, ns NumberedStep, level int) {
	heading := strings.Repeat("#", level)
	fmt.Fprintf(b, "%s Step %d: %s\n\n", heading, ns.Index, strings.TrimSpace(ns.Step.Title))
	writeStepSections(b, ns.Step, heading+"#")
}

// writeStepSections renders the shared description/tasks/outcomes/resources
// block used by both the aggregate document and the standalone step files.
func writeStepSections(b *strings.Builder, step Step, heading string) {
	fmt.Fprintf(b, "%s Description\n\n%s\n\n", heading, strings.TrimSpace(step.Description))

	// Empty task lists stay empty: the checklist must re-parse to exactly
	// the in-memory tasks.
	fmt.Fprintf(b, "%s Tasks\n\n", heading)
	for _, task := range step.Tasks {
		box := " "
		if task.Done {
			box = "x"
		}
		fmt.Fprintf(b, "- [%s] %s\n", box, task.Text)
	}
	if len(step.Tasks) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "%s Expected Outcomes\n\n", heading)
	for _, outcome := range step.Outcomes {
		fmt.Fprintf(b, "- %s\n", outcome)
	}
	if len(step.Outcomes) == 0 {
		b.WriteString("- Step completed and verified\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "%s Resources\n\n", heading)
	for _, res := range step.Resources {
		fmt.Fprintf(b, "- [%s](%s)\n", res.Label, res.Link)
	}
	if len(step.Resources) == 0 {
		b.WriteString("- None listed\n")
	}
	b.WriteString("\n")
}

func writeFact(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "Not specified"
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
