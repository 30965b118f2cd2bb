package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/gmail"
	"github.com/mikey/inbox-intel/internal/auth"
	"github.com/mikey/inbox-intel/internal/config"
	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/extract"
	"github.com/mikey/inbox-intel/internal/factory"
	"github.com/mikey/inbox-intel/internal/intelligence"
	"github.com/mikey/inbox-intel/internal/logging"
	"github.com/mikey/inbox-intel/internal/ports"
	"github.com/mikey/inbox-intel/internal/senders"
	"github.com/mikey/inbox-intel/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideServer(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideServer registers everything below the configuration and logger
func provideServer(container *dig.Container) error {
	if err := provideCommon(container); err != nil {
		return err
	}

	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return err
	}

	// Register session store and Gmail dialer
	if err := container.Provide(func(f *factory.MailboxFactory) *auth.TokenStore {
		return f.CreateTokenStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.MailboxFactory) *gmail.Dialer {
		return f.CreateDialer()
	}); err != nil {
		return err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return err
	}

	// Register inbox service
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		store *auth.TokenStore,
		dialer *gmail.Dialer,
		extractor *extract.Extractor,
		engine *intelligence.Engine,
		summarizer core.Summarizer,
		cacheRepo core.CacheRepository,
		checker *senders.Checker,
	) *core.InboxService {
		serverCfg := cfg.GetServer()
		cacheCfg := cfg.GetCache()
		return core.NewInboxService(
			store,
			dialer,
			extractor,
			engine,
			summarizer,
			cacheRepo,
			checker,
			logger,
			core.InboxOptions{
				DefaultLimit: serverCfg.DefaultLimit,
				MaxLimit:     serverCfg.MaxLimit,
				CacheEnabled: cacheCfg.Enabled && cacheRepo != nil,
				CacheTTL:     cacheCfg.TTL,
			},
		)
	}); err != nil {
		return err
	}

	// Register frontend
	return container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	})
}

// provideCommon registers the components the server and the digest CLI share
func provideCommon(container *dig.Container) error {
	if err := container.Provide(factory.NewContentFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewSummarizerFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.ContentFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register extractor, analyzer and sender checker
	if err := container.Provide(func(f *factory.ContentFactory) *extract.Extractor {
		return f.CreateExtractor()
	}); err != nil {
		return err
	}
	if err := container.Provide(intelligence.NewEngine); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ContentFactory) *senders.Checker {
		return f.CreateSenderChecker()
	}); err != nil {
		return err
	}

	// Register summarizer; nil when summary.provider is none
	return container.Provide(func(f *factory.SummarizerFactory) (core.Summarizer, error) {
		return f.CreateSummarizer()
	})
}
