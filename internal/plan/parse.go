package plan

import (
	"bufio"
	"bytes"
	"strings"
)

// ParseStepTasks recovers the ordered task list from a rendered step
// document. Only checklist lines inside the Tasks section are considered, so
// resource links and outcome bullets never leak into the result.
func ParseStepTasks(doc []byte) []Task {
	var tasks []Task
	inTasks := false
	scanner := bufio.NewScanner(bytes.NewReader(doc))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			inTasks = strings.EqualFold(heading, "Tasks")
			continue
		}
		if !inTasks {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "- [ ] "):
			tasks = append(tasks, Task{Text: trimmed[len("- [ ] "):]})
		case strings.HasPrefix(trimmed, "- [x] "):
			tasks = append(tasks, Task{Text: trimmed[len("- [x] "):], Done: true})
		}
	}
	return tasks
}
