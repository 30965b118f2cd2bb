package intelligence

import (
	"strings"
	"unicode/utf8"

	"github.com/mikey/inbox-intel/internal/core"
)

// ExtractTasks finds imperative phrases in the subject line and body. Each
// task gets the last deadline found anywhere in the message, which may not
// be the one closest to the phrase.
func ExtractTasks(msg core.AnalysisInput) []core.Task {
	text := msg.Subject + "\n" + msg.Body
	deadline := lastDeadline(text)

	tasks := []core.Task{}
	seen := make(map[string]struct{})
	for _, pattern := range taskPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if len(tasks) == maxTasks {
				return tasks
			}
			if loc[2] < 0 {
				continue
			}

			phrase := strings.TrimSpace(text[loc[2]:loc[3]])
			n := utf8.RuneCountInString(phrase)
			if n < minTaskLength || n > maxTaskLength {
				continue
			}
			key := strings.ToLower(phrase)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			tasks = append(tasks, core.Task{
				Text:     phrase,
				Deadline: deadline,
				Priority: taskPriority(phrase, sourceLine(text, loc[0], loc[1]), deadline),
				Source:   taskSource,
			})
		}
	}
	return tasks
}

func taskPriority(phrase, line, deadline string) string {
	if hasUrgency(phrase) || hasUrgency(line) {
		return core.PriorityHigh
	}
	if deadline != "" {
		return core.PriorityMedium
	}
	return core.PriorityLow
}

func hasUrgency(s string) bool {
	return containsAny(strings.ToLower(s), urgencyWords)
}

// lastDeadline returns the captured date of the deadline match that starts
// last in text, or "" when there is none
func lastDeadline(text string) string {
	deadline, at := "", -1
	for _, pattern := range deadlinePatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if loc[0] > at {
				at = loc[0]
				deadline = text[loc[2]:loc[3]]
			}
		}
	}
	return deadline
}

// sourceLine returns the line of text holding the span [start, end)
func sourceLine(text string, start, end int) string {
	from := strings.LastIndexByte(text[:start], '\n') + 1
	to := strings.IndexByte(text[end:], '\n')
	if to < 0 {
		return text[from:]
	}
	return text[from : end+to]
}
