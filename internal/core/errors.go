package core

import "errors"

var (
	// ErrUnauthenticated is returned when no valid session backs a request
	ErrUnauthenticated = errors.New("no valid mailbox session")
	// ErrExchangeFailed is returned when the provider rejects an authorization code
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	// ErrInitializationFailed is returned when credentials cannot be bound to a mail client
	ErrInitializationFailed = errors.New("mail client initialization failed")
	// ErrRemoteAPI wraps failures of single remote API calls
	ErrRemoteAPI = errors.New("remote mail API error")
	// ErrExtraction wraps MIME walk and HTML conversion failures
	ErrExtraction = errors.New("content extraction failed")
)
