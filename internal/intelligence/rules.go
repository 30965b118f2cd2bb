package intelligence

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RulesVersion changes whenever a rule table changes, so cached records of
// an older table are never served.
const RulesVersion = "rules-1"

// DefaultCategory is assigned when no category rule matches
const DefaultCategory = "general"

// CategoryOrder is the evaluation order of the category table. The first
// matching category wins.
var CategoryOrder = []string{
	"promotions",
	"receipts",
	"events",
	"travel",
	"action-required",
	"personal",
	"updates",
}

type categoryRule struct {
	name     string
	label    string
	keywords []string
	senders  []string
}

type sentimentRule struct {
	name     string
	label    string
	keywords []string
}

type actionRule struct {
	name     string
	action   string
	patterns []*regexp.Regexp
}

// label renders a rule name for display, e.g. "action-required" becomes
// "Action Required". A Caser is stateful so each call gets its own.
func label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

func defaultCategoryRules() []categoryRule {
	tables := map[string]categoryRule{
		"promotions": {
			keywords: []string{"sale", "discount", "offer", "deal", "promo", "coupon", "% off", "limited time", "black friday", "cyber monday", "flash sale"},
			senders:  []string{"marketing@", "offers@", "deals@", "promo@", "sales@"},
		},
		"receipts": {
			keywords: []string{"receipt", "invoice", "payment", "order confirmation", "purchase", "billing", "subscription", "charged", "transaction"},
			senders:  []string{"noreply@", "billing@", "payments@", "orders@"},
		},
		"events": {
			keywords: []string{"meeting", "calendar", "event", "conference", "webinar", "appointment", "scheduled", "zoom", "teams"},
			senders:  []string{"calendar@", "events@", "meetings@"},
		},
		"travel": {
			keywords: []string{"flight", "hotel", "booking", "reservation", "itinerary", "check-in", "boarding pass", "travel", "trip"},
			senders:  []string{"booking.com", "expedia", "airlines", "hotel"},
		},
		"action-required": {
			keywords: []string{"urgent", "action required", "please", "deadline", "due", "respond", "confirm", "approval", "review"},
		},
		"personal": {
			senders: []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"},
		},
		"updates": {
			keywords: []string{"newsletter", "update", "news", "announcement", "release", "changelog", "version"},
			senders:  []string{"updates@", "news@", "newsletter@"},
		},
	}

	rules := make([]categoryRule, 0, len(CategoryOrder))
	for _, name := range CategoryOrder {
		rule := tables[name]
		rule.name = name
		rule.label = label(name)
		rules = append(rules, rule)
	}
	return rules
}

func defaultSentimentRules() []sentimentRule {
	rules := []sentimentRule{
		{name: "urgent", keywords: []string{"urgent", "asap", "immediately", "critical", "emergency", "deadline", "overdue"}},
		{name: "complaint", keywords: []string{"complaint", "issue", "problem", "error", "bug", "frustrated", "disappointed"}},
		{name: "opportunity", keywords: []string{"opportunity", "proposal", "collaboration", "partnership", "investment"}},
		{name: "friendly", keywords: []string{"thanks", "thank you", "appreciate", "great", "awesome", "congratulations"}},
	}
	for i := range rules {
		rules[i].label = label(rules[i].name)
	}
	return rules
}

func defaultActionRules() []actionRule {
	return []actionRule{
		{
			name:   "calendar",
			action: "Add to Calendar",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`),
				regexp.MustCompile(`(?i)(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`),
				regexp.MustCompile(`(?i)(meeting|appointment|call|conference)`),
			},
		},
		{
			name:   "reminder",
			action: "Set Reminder",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(due|deadline|by|before).{0,20}(\d{1,2}[/\-]\d{1,2})`),
				regexp.MustCompile(`(?i)(remind|follow up|check back)`),
			},
		},
		{
			name:   "receipt",
			action: "Save Receipt",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(receipt|invoice|billing|order)`),
				regexp.MustCompile(`(\$\d+|\d+\.\d{2})`),
			},
		},
		{
			name:   "unsubscribe",
			action: "Unsubscribe",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(unsubscribe|opt.out|remove)`),
			},
		},
		{
			name:   "reply",
			action: "Quick Reply",
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(question|reply|respond|answer)`),
				regexp.MustCompile(`\?`),
			},
		},
	}
}

// Task extraction tables
var (
	taskPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\bplease\s+(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?im)\byou\s+need\s+to\s+(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?im)\bcan\s+you\s+(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?im)\bdon['’]t\s+forget\s+to\s+(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?im)\bmake\s+sure\s+to\s+(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?im)\bremember\s+to\s+(.*?)(?:\.|$)`),
	}

	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bby\s+(\w+\s+\d{1,2})`),
		regexp.MustCompile(`(?i)\bdue\s+(\w+\s+\d{1,2})`),
		regexp.MustCompile(`(?i)\bbefore\s+(\w+\s+\d{1,2})`),
		regexp.MustCompile(`(?i)\bdeadline\s+(\w+\s+\d{1,2})`),
	}

	urgencyWords = []string{"urgent", "asap", "immediately", "critical"}
)

const (
	taskSource           = "ai_extraction"
	maxTasks             = 3
	maxActions           = 3
	minTaskLength        = 6
	maxTaskLength        = 99
	minTopicLength       = 5
	maxTopics            = 3
	actionTenthsPerMatch = 3
	maxActionWeight      = 1.0
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "of": {}, "with": {}, "by": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"about": {}, "after": {}, "again": {}, "there": {}, "their": {}, "which": {}, "would": {},
	"could": {}, "should": {}, "where": {}, "while": {}, "other": {}, "from": {}, "have": {},
	"please": {}, "thanks": {}, "regards": {},
}
