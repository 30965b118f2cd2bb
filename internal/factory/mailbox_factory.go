package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/gmail"
	"github.com/mikey/inbox-intel/internal/auth"
	"github.com/mikey/inbox-intel/internal/config"
)

// MailboxFactory creates the OAuth and Gmail components
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTokenStore creates the session store backed by Google OAuth
func (f *MailboxFactory) CreateTokenStore() *auth.TokenStore {
	oauthCfg := f.cfg.GetOAuth()
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		f.logger.Warn("OAuth client credentials are not configured, connections will fail")
	}

	provider := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     oauthCfg.ClientID,
		ClientSecret: oauthCfg.ClientSecret,
		RedirectURL:  oauthCfg.RedirectURL,
		AuthURL:      oauthCfg.AuthURL,
		TokenURL:     oauthCfg.TokenURL,
		APIEndpoint:  oauthCfg.APIEndpoint,
	}, f.logger)

	return auth.NewTokenStore(provider, f.logger)
}

// CreateDialer creates the Gmail dialer
func (f *MailboxFactory) CreateDialer() *gmail.Dialer {
	gmailCfg := f.cfg.GetGmail()
	return gmail.NewDialer(gmail.Options{
		Endpoint:       gmailCfg.Endpoint,
		UserID:         gmailCfg.UserID,
		Concurrency:    gmailCfg.FetchConcurrency,
		RequestTimeout: gmailCfg.RequestTimeout,
	}, f.logger)
}
