package intelligence

import (
	"math"
	"sort"
	"strings"

	"github.com/mikey/inbox-intel/internal/core"
)

// Engine is a rule based analyzer. Its tables are built once and never
// mutated, so a single Engine may be shared between goroutines.
type Engine struct {
	categories []categoryRule
	sentiments []sentimentRule
	actions    []actionRule
}

// NewEngine creates an engine with the default rule tables
func NewEngine() *Engine {
	return &Engine{
		categories: defaultCategoryRules(),
		sentiments: defaultSentimentRules(),
		actions:    defaultActionRules(),
	}
}

// Version returns the identifier of the rule tables in use
func (e *Engine) Version() string {
	return RulesVersion
}

// Analyze derives the full intelligence record of msg. related holds the
// other messages of the same thread; when it is non-empty the record gets a
// thread summary.
func (e *Engine) Analyze(msg core.AnalysisInput, related []core.AnalysisInput) core.IntelligenceRecord {
	record := core.IntelligenceRecord{
		Category:  e.Categorize(msg),
		Sentiment: e.Sentiment(msg),
		Actions:   e.SuggestActions(msg),
		Tasks:     ExtractTasks(msg),
	}
	if len(related) > 0 {
		thread := append([]core.AnalysisInput{msg}, related...)
		record.Thread = SummarizeThread(thread)
	}
	return record
}

// Categorize returns the first category, in table order, whose keywords
// appear in the subject or body or whose sender fragments appear in the
// sender.
func (e *Engine) Categorize(msg core.AnalysisInput) core.Category {
	text := strings.ToLower(msg.Subject + " " + msg.Body)
	sender := strings.ToLower(msg.Sender)

	for _, rule := range e.categories {
		if containsAny(text, rule.keywords) || containsAny(sender, rule.senders) {
			return core.Category{Name: rule.name, Label: rule.label}
		}
	}
	return core.Category{Name: DefaultCategory, Label: label(DefaultCategory)}
}

// Sentiment returns every tone whose keywords appear in the message, in
// table order
func (e *Engine) Sentiment(msg core.AnalysisInput) []core.SentimentTag {
	text := strings.ToLower(msg.Subject + " " + msg.Body)

	tags := []core.SentimentTag{}
	for _, rule := range e.sentiments {
		if containsAny(text, rule.keywords) {
			tags = append(tags, core.SentimentTag{Name: rule.name, Label: rule.label})
		}
	}
	return tags
}

// SuggestActions scores every action rule by its number of pattern matches
// and returns at most three, most confident first
func (e *Engine) SuggestActions(msg core.AnalysisInput) []core.SuggestedAction {
	text := msg.Subject + " " + msg.Body

	actions := []core.SuggestedAction{}
	for _, rule := range e.actions {
		matches := 0
		for _, pattern := range rule.patterns {
			matches += len(pattern.FindAllStringIndex(text, -1))
		}
		if matches == 0 {
			continue
		}
		// tenths keep 3 matches at exactly 0.9
		confidence := math.Min(float64(matches*actionTenthsPerMatch)/10, maxActionWeight)
		actions = append(actions, core.SuggestedAction{
			Type:       rule.name,
			Action:     rule.action,
			Confidence: confidence,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Confidence > actions[j].Confidence
	})
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	return actions
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
