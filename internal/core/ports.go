package core

import (
	"context"
)

// CredentialSource resolves the credentials of a session, re-checking
// their validity on every call
type CredentialSource interface {
	// Credentials returns ErrUnauthenticated unless the session is valid
	Credentials(sessionID string) (*CredentialPair, error)
}

// OAuthProvider defines the interface for the mailbox's OAuth provider
type OAuthProvider interface {
	// AuthCodeURL builds the consent URL for the given state
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a credential pair
	Exchange(ctx context.Context, code string) (*CredentialPair, error)

	// Identity looks up the account the credentials belong to
	Identity(ctx context.Context, creds *CredentialPair) (*Identity, error)

	// Refresh obtains a new credential pair from a refresh token
	Refresh(ctx context.Context, refreshToken string) (*CredentialPair, error)
}

// MailClient defines the interface for reading a remote mailbox
type MailClient interface {
	// ListMessageIDs returns the ids of the most recent messages
	ListMessageIDs(ctx context.Context, limit int) ([]string, error)

	// FetchMetadata retrieves headers, snippet and flags of a message
	FetchMetadata(ctx context.Context, id string) (*MessageEnvelope, error)

	// FetchFull retrieves a message including its MIME payload
	FetchFull(ctx context.Context, id string) (*RawMessage, error)

	// ListEnvelopes lists and fetches messages, skipping the ones that fail
	ListEnvelopes(ctx context.Context, limit int, withBody bool) ([]RawMessage, error)
}

// MailClientFactory binds credentials to a MailClient
type MailClientFactory interface {
	// Initialize returns ErrInitializationFailed for malformed credentials
	Initialize(ctx context.Context, creds *CredentialPair) (MailClient, error)
}

// ContentExtractor turns a raw message into readable text
type ContentExtractor interface {
	Extract(msg *RawMessage) NormalizedContent
}

// Analyzer derives an intelligence record from a message and its thread
type Analyzer interface {
	Analyze(msg AnalysisInput, related []AnalysisInput) IntelligenceRecord

	// Version identifies the rule set; records of different versions differ
	Version() string
}

// Summarizer produces a short digest of a message
type Summarizer interface {
	// Summarize returns a few bullet lines describing the message
	Summarize(ctx context.Context, env *MessageEnvelope, content *NormalizedContent) (string, error)
}

// CacheRepository defines the interface for caching intelligence records
type CacheRepository interface {
	// Get retrieves a cached entry by key
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
