package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/mime"
	"github.com/mikey/inbox-intel/internal/config"
	"github.com/mikey/inbox-intel/internal/extract"
	"github.com/mikey/inbox-intel/internal/senders"
	"github.com/mikey/inbox-intel/internal/utils"
)

// ContentFactory creates the text handling components of the pipeline
type ContentFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewContentFactory creates a new ContentFactory
func NewContentFactory(cfg *config.Config, logger *zap.Logger) *ContentFactory {
	return &ContentFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *ContentFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateExtractor creates the content extractor
func (f *ContentFactory) CreateExtractor() *extract.Extractor {
	return extract.NewExtractor(f.logger, f.cfg.GetContent().MinCleanLength)
}

// CreateSenderChecker creates the ignored sender checker
func (f *ContentFactory) CreateSenderChecker() *senders.Checker {
	ignored := f.cfg.GetIgnoredSenders()
	if len(ignored) > 0 {
		f.logger.Info("Loaded ignored senders", zap.Strings("senders", ignored))
	}
	return senders.NewChecker(ignored, f.logger)
}

// CreateMessageReader creates the reader for messages stored on disk
func (f *ContentFactory) CreateMessageReader(textProcessor *utils.TextProcessor) *mime.Reader {
	return mime.NewReader(textProcessor, f.logger, 0)
}
