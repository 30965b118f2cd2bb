package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/summary"
	"github.com/mikey/inbox-intel/internal/utils"
)

// ContentGenerator is the part of *genai.GenerativeModel the summarizer uses
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Summarizer is an implementation of core.Summarizer using Google Gemini
type Summarizer struct {
	model         ContentGenerator
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewSummarizer creates a new Gemini summarizer
func NewSummarizer(
	model ContentGenerator,
	modelName string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Summarizer {
	return &Summarizer{
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Summarize asks the model for a bullet digest of the message
func (s *Summarizer) Summarize(ctx context.Context, env *core.MessageEnvelope, content *core.NormalizedContent) (string, error) {
	prompt := summary.BuildPrompt(s.textProcessor, env, content, s.maxBodySize)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	s.logger.Debug("Received summary from Gemini",
		zap.String("message_id", env.ID),
		zap.String("model", s.modelName))

	return summary.ParseResponse(text.String())
}
