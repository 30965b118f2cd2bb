package bedrock

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/utils"
)

type fakeRuntime struct {
	input *bedrockruntime.InvokeModelInput
	body  string
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func newTestSummarizer(runtime InvokeModelAPI, modelID string) *Summarizer {
	logger := zap.NewNop()
	return NewSummarizer(runtime, modelID, 300, 0.2, 0.9, 4096, logger, utils.NewTextProcessor(logger))
}

func TestSummarizeClaude(t *testing.T) {
	runtime := &fakeRuntime{body: `{"content":[{"type":"text","text":"{\"bullets\":[\"Contract needs a signature.\"]}"}]}`}
	s := newTestSummarizer(runtime, "anthropic.claude-3-haiku-20240307-v1:0")

	digest, err := s.Summarize(context.Background(),
		&core.MessageEnvelope{Subject: "Contract"},
		&core.NormalizedContent{PlainText: "Please sign the attached contract."},
	)
	require.NoError(t, err)
	assert.Equal(t, "• Contract needs a signature.", digest)

	require.NotNil(t, runtime.input)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", *runtime.input.ModelId)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(runtime.input.Body, &payload))
	assert.Equal(t, anthropicVersion, payload["anthropic_version"])
	assert.Contains(t, payload, "messages")
}

func TestSummarizeTitan(t *testing.T) {
	runtime := &fakeRuntime{body: `{"results":[{"outputText":"Shipment left the warehouse. Arrives Tuesday."}]}`}
	s := newTestSummarizer(runtime, "amazon.titan-text-express-v1")

	digest, err := s.Summarize(context.Background(), &core.MessageEnvelope{}, &core.NormalizedContent{})
	require.NoError(t, err)
	assert.Equal(t, "• Shipment left the warehouse.\n• Arrives Tuesday.", digest)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(runtime.input.Body, &payload))
	assert.Contains(t, payload, "inputText")
}

func TestSummarizeGeneric(t *testing.T) {
	runtime := &fakeRuntime{body: `{"generation":"- Budget approved"}`}
	s := newTestSummarizer(runtime, "meta.llama3-8b-instruct-v1:0")

	digest, err := s.Summarize(context.Background(), &core.MessageEnvelope{}, &core.NormalizedContent{})
	require.NoError(t, err)
	assert.Equal(t, "• Budget approved", digest)
}

func TestSummarizeEmptyTitan(t *testing.T) {
	s := newTestSummarizer(&fakeRuntime{body: `{"results":[]}`}, "amazon.titan-text-lite-v1")

	_, err := s.Summarize(context.Background(), &core.MessageEnvelope{}, &core.NormalizedContent{})
	assert.ErrorContains(t, err, "empty response")
}
