package factory

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/console"
	"github.com/mikey/inbox-intel/internal/adapters/httpapi"
	"github.com/mikey/inbox-intel/internal/auth"
	"github.com/mikey/inbox-intel/internal/config"
	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/ports"
)

// FrontendFactory creates frontends based on configuration
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *auth.TokenStore
	service *core.InboxService
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, store *auth.TokenStore, service *core.InboxService) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: service,
	}
}

// CreateFrontend creates the frontend named by server.frontend
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.Frontend {
	case "http":
		return httpapi.NewServer(f.store, f.service, serverCfg, f.logger), nil
	case "cli":
		return console.NewFrontend(f.store, f.service, os.Stdin, os.Stdout, serverCfg.DefaultLimit, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported frontend: %s", serverCfg.Frontend)
	}
}
