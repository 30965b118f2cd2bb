package intelligence

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mikey/inbox-intel/internal/core"
)

// SummarizeThread describes a conversation. msgs[0] is the message being
// analyzed; it wins ties for the latest message. Returns nil for fewer than
// two messages.
func SummarizeThread(msgs []core.AnalysisInput) *core.ThreadSummary {
	if len(msgs) <= 1 {
		return nil
	}

	participants := []string{}
	seen := make(map[string]struct{})
	for _, m := range msgs {
		if _, ok := seen[m.Sender]; ok {
			continue
		}
		seen[m.Sender] = struct{}{}
		participants = append(participants, m.Sender)
	}

	oldest, newest := msgs[0].Timestamp, msgs[0].Timestamp
	latest := msgs[0]
	for _, m := range msgs[1:] {
		if m.Timestamp.Before(oldest) {
			oldest = m.Timestamp
		}
		if m.Timestamp.After(newest) {
			newest = m.Timestamp
			latest = m
		}
	}

	return &core.ThreadSummary{
		EmailCount:   len(msgs),
		Participants: participants,
		TimeSpan:     timeSpan(newest.Sub(oldest)),
		KeyTopics:    keyTopics(msgs),
		LastActivity: newest,
		Summary: fmt.Sprintf("Thread with %d emails between %s. Latest: %s",
			len(msgs), strings.Join(participants, ", "), latest.Subject),
	}
}

func timeSpan(d time.Duration) string {
	return fmt.Sprintf("%d days", int(math.Ceil(d.Hours()/24)))
}

// keyTopics returns the most frequent words of the thread, ties broken by
// first appearance
func keyTopics(msgs []core.AnalysisInput) []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range msgs {
		for _, field := range strings.Fields(strings.ToLower(m.Subject + " " + m.Body)) {
			word := strings.TrimFunc(field, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsNumber(r)
			})
			if utf8.RuneCountInString(word) < minTopicLength {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxTopics {
		order = order[:maxTopics]
	}
	if order == nil {
		return []string{}
	}
	return order
}
