package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/bedrock"
	"github.com/mikey/inbox-intel/internal/adapters/gemini"
	"github.com/mikey/inbox-intel/internal/adapters/openai"
	"github.com/mikey/inbox-intel/internal/config"
	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/summary"
	"github.com/mikey/inbox-intel/internal/utils"
)

// SummarizerFactory creates digest summarizers
type SummarizerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewSummarizerFactory creates a new summarizer factory
func NewSummarizerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *SummarizerFactory {
	return &SummarizerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateSummarizer creates the summarizer named by summary.provider. The
// "none" provider yields a nil summarizer and digests are skipped.
func (f *SummarizerFactory) CreateSummarizer() (core.Summarizer, error) {
	provider := f.cfg.GetSummary().Provider

	switch provider {
	case "", "none":
		return nil, nil
	case "heuristic":
		return summary.NewHeuristic(f.textProcessor, f.logger), nil
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateSummarizer()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateSummarizer()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateSummarizer()
	default:
		return nil, fmt.Errorf("unsupported summary provider: %s", provider)
	}
}
