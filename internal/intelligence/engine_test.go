package intelligence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/inbox-intel/internal/core"
)

func TestCategoryOrder(t *testing.T) {
	assert.Equal(t, []string{
		"promotions", "receipts", "events", "travel", "action-required", "personal", "updates",
	}, CategoryOrder)

	engine := NewEngine()
	require.Len(t, engine.categories, len(CategoryOrder))
	for i, rule := range engine.categories {
		assert.Equal(t, CategoryOrder[i], rule.name)
	}
}

func TestCategorize(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name      string
		msg       core.AnalysisInput
		wantName  string
		wantLabel string
	}{
		{
			name:      "promotion by subject and sender",
			msg:       core.AnalysisInput{Subject: "50% off sale this weekend", Sender: "deals@shop.com"},
			wantName:  "promotions",
			wantLabel: "Promotions",
		},
		{
			name:      "first match wins over later categories",
			msg:       core.AnalysisInput{Subject: "Your receipt", Body: "Flash sale on everything"},
			wantName:  "promotions",
			wantLabel: "Promotions",
		},
		{
			name:      "receipt by sender",
			msg:       core.AnalysisInput{Subject: "Hello", Sender: "billing@vendor.io"},
			wantName:  "receipts",
			wantLabel: "Receipts",
		},
		{
			name:      "action required beats personal",
			msg:       core.AnalysisInput{Subject: "Could you please look", Sender: "friend@gmail.com"},
			wantName:  "action-required",
			wantLabel: "Action Required",
		},
		{
			name:      "personal by sender domain",
			msg:       core.AnalysisInput{Subject: "Hi", Body: "Long time no see", Sender: "friend@yahoo.com"},
			wantName:  "personal",
			wantLabel: "Personal",
		},
		{
			name:      "keyword match is case insensitive",
			msg:       core.AnalysisInput{Subject: "WEBINAR tomorrow", Sender: "x@corp.example"},
			wantName:  "events",
			wantLabel: "Events",
		},
		{
			name:      "default",
			msg:       core.AnalysisInput{Subject: "hello", Sender: "x@corp.example"},
			wantName:  DefaultCategory,
			wantLabel: "General",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Categorize(tt.msg)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestSentiment(t *testing.T) {
	engine := NewEngine()

	tags := engine.Sentiment(core.AnalysisInput{
		Subject: "URGENT: bug in checkout",
		Body:    "Thanks for the quick look",
	})

	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"urgent", "complaint", "friendly"}, names)

	assert.Empty(t, engine.Sentiment(core.AnalysisInput{Subject: "hello"}))
}

func TestSuggestActions(t *testing.T) {
	engine := NewEngine()

	t.Run("scored and sorted", func(t *testing.T) {
		actions := engine.SuggestActions(core.AnalysisInput{Subject: "Meeting on Monday?"})
		require.Len(t, actions, 2)
		assert.Equal(t, "calendar", actions[0].Type)
		assert.Equal(t, "Add to Calendar", actions[0].Action)
		assert.InDelta(t, 0.6, actions[0].Confidence, 1e-9)
		assert.Equal(t, "reply", actions[1].Type)
		assert.InDelta(t, 0.3, actions[1].Confidence, 1e-9)
	})

	t.Run("confidence is capped", func(t *testing.T) {
		actions := engine.SuggestActions(core.AnalysisInput{Body: "call call call call"})
		require.Len(t, actions, 1)
		assert.Equal(t, 1.0, actions[0].Confidence)

		actions = engine.SuggestActions(core.AnalysisInput{Body: "call call call"})
		require.Len(t, actions, 1)
		assert.Equal(t, 0.9, actions[0].Confidence)
	})

	t.Run("at most three with stable ties", func(t *testing.T) {
		actions := engine.SuggestActions(core.AnalysisInput{
			Body: "Meeting Monday? Remind me. Invoice $20. Unsubscribe.",
		})
		require.Len(t, actions, 3)
		assert.Equal(t, "calendar", actions[0].Type)
		assert.Equal(t, "receipt", actions[1].Type)
		assert.Equal(t, "reminder", actions[2].Type)
		for i := 1; i < len(actions); i++ {
			assert.GreaterOrEqual(t, actions[i-1].Confidence, actions[i].Confidence)
		}
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, engine.SuggestActions(core.AnalysisInput{Subject: "hello"}))
	})
}

func TestExtractTasks(t *testing.T) {
	t.Run("urgent subject line", func(t *testing.T) {
		tasks := ExtractTasks(core.AnalysisInput{
			Subject: "URGENT: please send the report by Friday",
			Body:    "...",
		})
		require.NotEmpty(t, tasks)
		assert.Contains(t, tasks[0].Text, "send the report")
		assert.Equal(t, core.PriorityHigh, tasks[0].Priority)
		assert.Equal(t, "ai_extraction", tasks[0].Source)
	})

	t.Run("at most three in discovery order", func(t *testing.T) {
		tasks := ExtractTasks(core.AnalysisInput{
			Body: "Please review the draft.\nPlease send the invoice.\nPlease call the vendor.\nPlease book the room.",
		})
		require.Len(t, tasks, 3)
		assert.Equal(t, "review the draft", tasks[0].Text)
		assert.Equal(t, "send the invoice", tasks[1].Text)
		assert.Equal(t, "call the vendor", tasks[2].Text)
	})

	t.Run("length bounds", func(t *testing.T) {
		tasks := ExtractTasks(core.AnalysisInput{Body: "Please go."})
		assert.Empty(t, tasks)
	})

	t.Run("last deadline is attached to every task", func(t *testing.T) {
		tasks := ExtractTasks(core.AnalysisInput{
			Body: "You need to file the report by March 3.\nPlease pay the fee before April 10.",
		})
		require.Len(t, tasks, 2)
		assert.Equal(t, "pay the fee before April 10", tasks[0].Text)
		assert.Equal(t, "file the report by March 3", tasks[1].Text)
		for _, task := range tasks {
			assert.Equal(t, "April 10", task.Deadline)
			assert.Equal(t, core.PriorityMedium, task.Priority)
		}
	})

	t.Run("low priority without deadline", func(t *testing.T) {
		tasks := ExtractTasks(core.AnalysisInput{Body: "Can you share the slides?"})
		require.Len(t, tasks, 1)
		assert.Contains(t, tasks[0].Text, "share the slides")
		assert.Empty(t, tasks[0].Deadline)
		assert.Equal(t, core.PriorityLow, tasks[0].Priority)
	})

	t.Run("typographic apostrophe", func(t *testing.T) {
		tasks := ExtractTasks(core.AnalysisInput{Body: "Don’t forget to water the plants."})
		require.Len(t, tasks, 1)
		assert.Equal(t, "water the plants", tasks[0].Text)
	})
}

func TestSummarizeThread(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("single message has no thread", func(t *testing.T) {
		assert.Nil(t, SummarizeThread([]core.AnalysisInput{{Subject: "x"}}))
		record := NewEngine().Analyze(core.AnalysisInput{Subject: "x"}, nil)
		assert.Nil(t, record.Thread)
	})

	t.Run("same sender three days apart", func(t *testing.T) {
		focal := core.AnalysisInput{ID: "2", Sender: "alice@example.com", Subject: "Re: Plan", Timestamp: base.Add(72 * time.Hour)}
		related := []core.AnalysisInput{{ID: "1", Sender: "alice@example.com", Subject: "Plan", Timestamp: base}}

		record := NewEngine().Analyze(focal, related)
		require.NotNil(t, record.Thread)
		assert.Equal(t, "3 days", record.Thread.TimeSpan)
		assert.Len(t, record.Thread.Participants, 1)
		assert.Equal(t, 2, record.Thread.EmailCount)
	})

	t.Run("participants and latest message", func(t *testing.T) {
		summary := SummarizeThread([]core.AnalysisInput{
			{Sender: "a@example.com", Subject: "Re: Budget", Timestamp: base.Add(48 * time.Hour)},
			{Sender: "b@example.com", Subject: "Budget", Timestamp: base},
			{Sender: "a@example.com", Subject: "Re: Budget draft", Timestamp: base.Add(24 * time.Hour)},
		})
		require.NotNil(t, summary)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, summary.Participants)
		assert.Equal(t, "2 days", summary.TimeSpan)
		assert.Equal(t, base.Add(48*time.Hour), summary.LastActivity)
		assert.Equal(t, "Thread with 3 emails between a@example.com, b@example.com. Latest: Re: Budget", summary.Summary)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		summary := SummarizeThread([]core.AnalysisInput{
			{Sender: "a", Timestamp: base.Add(20 * time.Hour)},
			{Sender: "b", Timestamp: base},
		})
		require.NotNil(t, summary)
		assert.Equal(t, "1 days", summary.TimeSpan)
	})

	t.Run("key topics", func(t *testing.T) {
		summary := SummarizeThread([]core.AnalysisInput{
			{Sender: "a", Subject: "Quarterly budget", Body: "The budget needs review before friday."},
			{Sender: "b", Subject: "Re: Quarterly budget", Body: "Budget approved, thanks"},
		})
		require.NotNil(t, summary)
		assert.Equal(t, []string{"budget", "quarterly", "needs"}, summary.KeyTopics)
	})

	t.Run("courtesy words are not topics", func(t *testing.T) {
		summary := SummarizeThread([]core.AnalysisInput{
			{Sender: "a", Subject: "Venue", Body: "Please confirm the venue. Thanks, regards"},
			{Sender: "b", Subject: "Re: Venue", Body: "Please hold the venue, thanks. Regards"},
		})
		require.NotNil(t, summary)
		assert.Equal(t, []string{"venue", "confirm"}, summary.KeyTopics)
	})
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	engine := NewEngine()
	msg := core.AnalysisInput{
		ID:      "m1",
		Subject: "Invoice for your order",
		Sender:  "billing@vendor.io",
		Body:    "Please pay $45.00 by June 5. Reply if you have a question?",
	}
	related := []core.AnalysisInput{{ID: "m0", Subject: "Order placed", Sender: "orders@vendor.io"}}

	first := engine.Analyze(msg, related)
	second := engine.Analyze(msg, related)
	assert.Equal(t, first, second)
	assert.Equal(t, "receipts", first.Category.Name)
	assert.Equal(t, RulesVersion, engine.Version())
}
