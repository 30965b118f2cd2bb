package ports

import (
	"context"

	"github.com/mikey/inbox-intel/internal/core"
)

// Frontend defines the interface for the surfaces that serve enriched mail
type Frontend interface {
	// Refresh fetches the enriched inbox of a session
	Refresh(ctx context.Context, sessionID string, limit int) ([]core.EnrichedMessage, error)

	// Start starts the frontend
	Start() error

	// Stop stops the frontend
	Stop() error
}
