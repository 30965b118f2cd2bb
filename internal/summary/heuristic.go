package summary

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/utils"
)

type subjectKind struct {
	pattern *regexp.Regexp
	label   string
}

// Subject patterns in priority order; the first match names the digest
var subjectKinds = []subjectKind{
	{regexp.MustCompile(`(?i)meeting|conference|discussion`), "Meeting"},
	{regexp.MustCompile(`(?i)report|quarterly|review|budget`), "Report"},
	{regexp.MustCompile(`(?i)project|proposal|plan`), "Project"},
	{regexp.MustCompile(`(?i)website|update|tech|maintenance`), "Technical update"},
	{regexp.MustCompile(`(?i)training|session|learn|tool`), "Training"},
	{regexp.MustCompile(`(?i)welcome|team|hr|holiday|schedule`), "Team news"},
	{regexp.MustCompile(`(?i)client|feedback|customer|release`), "Client feedback"},
}

const defaultKind = "Message"

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

// maxSentenceRunes keeps each digest line short
const maxSentenceRunes = 160

// Heuristic builds digests without a model: a line naming the kind of
// message followed by its leading sentences
type Heuristic struct {
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewHeuristic creates a new heuristic summarizer
func NewHeuristic(textProcessor *utils.TextProcessor, logger *zap.Logger) *Heuristic {
	return &Heuristic{
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Kind classifies a subject line
func Kind(subject string) string {
	for _, k := range subjectKinds {
		if k.pattern.MatchString(subject) {
			return k.label
		}
	}
	return defaultKind
}

// Summarize never fails
func (h *Heuristic) Summarize(ctx context.Context, env *core.MessageEnvelope, content *core.NormalizedContent) (string, error) {
	subject := strings.TrimSpace(env.Subject)
	if subject == "" {
		subject = "(no subject)"
	}

	lines := []string{Kind(env.Subject) + ": " + subject}
	for _, sentence := range leadingSentences(content.PlainText, MaxBullets-1) {
		lines = append(lines, h.textProcessor.Snippet(sentence, maxSentenceRunes))
	}

	h.logger.Debug("Built heuristic summary",
		zap.String("message_id", env.ID),
		zap.Int("lines", len(lines)))
	return JoinBullets(lines), nil
}

func leadingSentences(text string, n int) []string {
	flat := strings.Join(strings.Fields(text), " ")

	var out []string
	for len(flat) > 0 && len(out) < n {
		loc := sentenceEnd.FindStringIndex(flat)
		if loc == nil {
			out = append(out, flat)
			break
		}
		if s := strings.TrimSpace(flat[:loc[1]]); s != "" {
			out = append(out, s)
		}
		flat = flat[loc[1]:]
	}
	return out
}
