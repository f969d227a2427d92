package plan

import (
	"fmt"
	"strings"
)

// Validate checks the structural integrity of a generated plan and returns
// every violation found. An empty plan (no phases) is reported here because
// a plan that reached validation was supposed to carry steps; callers decide
// whether emptiness is an error or a user decision.
func Validate(p *Plan) []error {
	var errs []error
	if p == nil {
		return []error{fmt.Errorf("plan is nil")}
	}
	if len(p.Phases) == 0 {
		errs = append(errs, fmt.Errorf("plan has no phases"))
	}
	for pi, phase := range p.Phases {
		if strings.TrimSpace(phase.Title) == "" {
			errs = append(errs, fmt.Errorf("phases[%d] is untitled", pi))
		}
		if len(phase.Steps) == 0 {
			errs = append(errs, fmt.Errorf("phases[%d] %q has no steps", pi, phase.Title))
		}
		for si, step := range phase.Steps {
			where := fmt.Sprintf("phases[%d].steps[%d]", pi, si)
			if strings.TrimSpace(step.Title) == "" {
				errs = append(errs, fmt.Errorf("%s is untitled", where))
			}
			if strings.TrimSpace(step.Description) == "" {
				errs = append(errs, fmt.Errorf("%s %q has no description", where, step.Title))
			}
			for ti, task := range step.Tasks {
				if strings.TrimSpace(task.Text) == "" {
					errs = append(errs, fmt.Errorf("%s.tasks[%d] is empty", where, ti))
				}
				if task.Done {
					errs = append(errs, fmt.Errorf("%s.tasks[%d] is already marked done", where, ti))
				}
			}
			for ri, res := range step.Resources {
				if strings.TrimSpace(res.Label) == "" {
					errs = append(errs, fmt.Errorf("%s.resources[%d] has no label", where, ri))
				}
				if strings.TrimSpace(res.Link) == "" {
					errs = append(errs, fmt.Errorf("%s.resources[%d] %q has no link", where, ri, res.Label))
				}
			}
		}
	}
	return errs
}
