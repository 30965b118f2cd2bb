package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/mikey/inbox-intel/internal/core"
)

// Scopes requested on the consent screen
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleConfig holds the OAuth client settings. The URL fields are optional
// and override Google's production endpoints.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	APIEndpoint  string
}

// GoogleProvider implements core.OAuthProvider against Google's OAuth 2.0
// endpoints
type GoogleProvider struct {
	config      *oauth2.Config
	apiEndpoint string
	logger      *zap.Logger
}

// NewGoogleProvider creates a new Google OAuth provider
func NewGoogleProvider(cfg GoogleConfig, logger *zap.Logger) *GoogleProvider {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		apiEndpoint: cfg.APIEndpoint,
		logger:      logger,
	}
}

// AuthCodeURL builds the consent URL. Offline access with a forced consent
// prompt makes Google issue a refresh token on every connection.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"))
}

// Exchange trades an authorization code for a credential pair
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*core.CredentialPair, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", core.ErrExchangeFailed)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrExchangeFailed, err)
	}
	return credentialsFromToken(token), nil
}

// Identity fetches the email address and display name of the account
func (p *GoogleProvider) Identity(ctx context.Context, creds *core.CredentialPair) (*core.Identity, error) {
	token := &oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer", Expiry: creds.ExpiresAt}
	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))),
	}
	if p.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching userinfo: %v", core.ErrRemoteAPI, err)
	}
	return &core.Identity{Email: info.Email, Name: info.Name}, nil
}

// Refresh obtains a new access token from a refresh token
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*core.CredentialPair, error) {
	token, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing token: %v", core.ErrUnauthenticated, err)
	}

	return credentialsFromToken(token), nil
}

func credentialsFromToken(token *oauth2.Token) *core.CredentialPair {
	return &core.CredentialPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
}
