package summary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/utils"
)

func TestKind(t *testing.T) {
	tests := map[string]string{
		"Team meeting tomorrow":      "Meeting",
		"Q3 budget review":           "Report",
		"New project proposal":       "Project",
		"Website maintenance window": "Technical update",
		"Training on the new tool":   "Training",
		"Welcome aboard":             "Team news",
		"Customer feedback round-up": "Client feedback",
		"Hello there":                "Message",
	}
	for subject, want := range tests {
		assert.Equal(t, want, Kind(subject), subject)
	}
}

func TestHeuristicSummarize(t *testing.T) {
	h := NewHeuristic(utils.NewTextProcessor(zap.NewNop()), zap.NewNop())

	digest, err := h.Summarize(context.Background(),
		&core.MessageEnvelope{ID: "1", Subject: "Project kickoff"},
		&core.NormalizedContent{PlainText: "We start Monday. Bring\nyour laptop! Lunch is provided. Parking is free."},
	)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"• Project: Project kickoff",
		"• We start Monday.",
		"• Bring your laptop!",
		"• Lunch is provided.",
	}, "\n"), digest)

	digest, err = h.Summarize(context.Background(), &core.MessageEnvelope{}, &core.NormalizedContent{})
	require.NoError(t, err)
	assert.Equal(t, "• Message: (no subject)", digest)
}

func TestParseResponse(t *testing.T) {
	digest, err := ParseResponse(`{"bullets":["First point.","  ","Second point.","3","4","5"]}`)
	require.NoError(t, err)
	assert.Equal(t, "• First point.\n• Second point.\n• 3\n• 4", digest)

	digest, err = ParseResponse("The report is due. Send the draft first.")
	require.NoError(t, err)
	assert.Equal(t, "• The report is due.\n• Send the draft first.", digest)

	digest, err = ParseResponse("- one\n- two")
	require.NoError(t, err)
	assert.Equal(t, "• one\n• two", digest)

	_, err = ParseResponse("   ")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop())
	prompt := BuildPrompt(tp,
		&core.MessageEnvelope{From: "a@example.com", To: []string{"b@example.com", "c@example.com"}, Subject: "Hi"},
		&core.NormalizedContent{PlainText: strings.Repeat("x", 100)},
		10,
	)
	assert.Contains(t, prompt, "From: a@example.com")
	assert.Contains(t, prompt, "To: b@example.com and 1 others")
	assert.Contains(t, prompt, "Subject: Hi")
	assert.Contains(t, prompt, strings.Repeat("x", 10)+utils.TruncationMarker)
	assert.NotContains(t, prompt, strings.Repeat("x", 11))
}
