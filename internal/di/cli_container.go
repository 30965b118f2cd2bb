package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/mime"
	"github.com/mikey/inbox-intel/internal/config"
	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/extract"
	"github.com/mikey/inbox-intel/internal/factory"
	"github.com/mikey/inbox-intel/internal/intelligence"
	"github.com/mikey/inbox-intel/internal/logging"
	"github.com/mikey/inbox-intel/internal/senders"
	"github.com/mikey/inbox-intel/internal/utils"
)

// CLIFlags contains all command line flags for the digest CLI
type CLIFlags struct {
	// Summary flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModelName string

	// Content flags
	MinCleanLength int
	IgnoredSenders string
	CacheDB        string

	// Input and output flags
	Files      []string
	Verbose    bool
	JSONLog    bool
	Compact    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct.
// Remaining arguments are the message files; none means stdin.
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Summary flags
	flag.StringVar(&flags.Provider, "summary", "none", "Digest provider (none, heuristic, bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 400, "Maximum tokens for a model digest")
	flag.Float64Var(&flags.Temperature, "temperature", 0.2, "Temperature for model digests")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for model digests")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum body size sent to a model")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible API")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")

	// Content flags
	flag.IntVar(&flags.MinCleanLength, "min-clean-length", 20, "Shortest cleaned body kept before falling back to the raw text")
	flag.StringVar(&flags.IgnoredSenders, "ignore", "", "Comma separated senders or domains to skip")
	flag.StringVar(&flags.CacheDB, "cache-db", "", "SQLite file caching analyses between runs")

	// Input and output flags
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.BoolVar(&flags.Compact, "compact", false, "Print compact JSON")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	flags.Files = flag.Args()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the digest CLI
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register message reader
	if err := container.Provide(func(f *factory.ContentFactory, tp *utils.TextProcessor) *mime.Reader {
		return f.CreateMessageReader(tp)
	}); err != nil {
		return nil, err
	}

	// Register an inbox service with no mailbox; the CLI only enriches
	// messages it read itself
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		extractor *extract.Extractor,
		engine *intelligence.Engine,
		summarizer core.Summarizer,
		cacheRepo core.CacheRepository,
		checker *senders.Checker,
	) *core.InboxService {
		cacheCfg := cfg.GetCache()
		return core.NewInboxService(
			nil,
			nil,
			extractor,
			engine,
			summarizer,
			cacheRepo,
			checker,
			logger,
			core.InboxOptions{
				CacheEnabled: cacheCfg.Enabled && cacheRepo != nil,
				CacheTTL:     cacheCfg.TTL,
			},
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set content settings
	v.Set("content.min_clean_length", flags.MinCleanLength)
	v.Set("ingest.ignored_senders", splitList(flags.IgnoredSenders))

	// Analyses are only cached when a database is given
	v.Set("cache.enabled", flags.CacheDB != "")
	v.Set("cache.type", "sqlite")
	v.Set("cache.sqlite_path", flags.CacheDB)

	// Set summary provider
	v.Set("summary.provider", flags.Provider)
	v.Set("summary.max_body_size", flags.MaxBodySize)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	return config.NewFromViper(v)
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
