package config

import "time"

// OAuthConfig represents the OAuth client configuration
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	APIEndpoint  string
}

// GmailConfig represents the configuration of the Gmail client
type GmailConfig struct {
	Endpoint         string
	UserID           string
	FetchConcurrency int
	RequestTimeout   time.Duration
}

// ServerConfig represents the configuration of the frontend
type ServerConfig struct {
	Frontend        string
	ListenAddress   string
	SuccessRedirect string
	CookieName      string
	SecureCookie    bool
	DefaultLimit    int
	MaxLimit        int
	ShutdownTimeout time.Duration
}

// ContentConfig represents the content extraction configuration
type ContentConfig struct {
	MinCleanLength int
}

// SummaryConfig represents the digest configuration
type SummaryConfig struct {
	Provider    string
	MaxBodySize int
}

// CacheConfig represents the analysis cache configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetOAuth returns the OAuth configuration
func (c *Config) GetOAuth() OAuthConfig {
	return OAuthConfig{
		ClientID:     c.GetString("oauth.client_id"),
		ClientSecret: c.GetString("oauth.client_secret"),
		RedirectURL:  c.GetString("oauth.redirect_url"),
		AuthURL:      c.GetString("oauth.auth_url"),
		TokenURL:     c.GetString("oauth.token_url"),
		APIEndpoint:  c.GetString("oauth.api_endpoint"),
	}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		Endpoint:         c.GetString("gmail.endpoint"),
		UserID:           c.GetString("gmail.user_id"),
		FetchConcurrency: c.GetInt("gmail.fetch_concurrency"),
		RequestTimeout:   c.durationOr("gmail.request_timeout", 15*time.Second),
	}
}

// GetServer returns the frontend configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Frontend:        c.GetString("server.frontend"),
		ListenAddress:   c.GetString("server.listen_address"),
		SuccessRedirect: c.GetString("server.success_redirect"),
		CookieName:      c.GetString("server.cookie_name"),
		SecureCookie:    c.GetBool("server.secure_cookie"),
		DefaultLimit:    c.GetInt("server.default_limit"),
		MaxLimit:        c.GetInt("server.max_limit"),
		ShutdownTimeout: c.durationOr("server.shutdown_timeout", 10*time.Second),
	}
}

// GetContent returns the content extraction configuration
func (c *Config) GetContent() ContentConfig {
	return ContentConfig{
		MinCleanLength: c.GetInt("content.min_clean_length"),
	}
}

// GetSummary returns the digest configuration
func (c *Config) GetSummary() SummaryConfig {
	return SummaryConfig{
		Provider:    c.GetString("summary.provider"),
		MaxBodySize: c.GetInt("summary.max_body_size"),
	}
}

// GetIgnoredSenders returns the addresses and domains dropped at ingest
func (c *Config) GetIgnoredSenders() []string {
	return c.GetStringSlice("ingest.ignored_senders")
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              c.durationOr("cache.ttl", 24*time.Hour),
		CleanupFrequency: c.durationOr("cache.cleanup_frequency", time.Hour),
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// durationOr parses a duration key, falling back when it is malformed
func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
