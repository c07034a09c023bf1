// Package app wires configuration, logging, storage, clients, and services
// into the shared core used by cmd/blingsync-server.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/edumoraes/blingsync/internal/clients/bling"
	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/services/auth"
	"github.com/edumoraes/blingsync/internal/services/parser"
	"github.com/edumoraes/blingsync/internal/services/updater"
	"github.com/edumoraes/blingsync/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	TokenStore     interfaces.TokenStore
	ProductClient  interfaces.ProductAPIClient
	OAuthClient    interfaces.OAuthClient
	AuthService    interfaces.AuthService
	ParserService  interfaces.ParserService
	UpdaterService interfaces.UpdaterService
	StartupTime    time.Time
}

// NewApp initializes all services and clients from configuration.
// configPath may be empty, in which case BLINGSYNC_CONFIG and then
// config/blingsync.toml are tried.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("BLINGSYNC_CONFIG")
	}
	if configPath == "" {
		configPath = "config/blingsync.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	if config.Bling.ClientID == "" || config.Bling.RedirectURI == "" {
		logger.Warn().Msg("Bling client id / redirect uri not configured - authorization will fail until set")
	}

	var tokenStore interfaces.TokenStore
	if config.Storage.Path != "" {
		tokenStore, err = storage.NewBadgerTokenStore(logger, config.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize token store: %w", err)
		}
	}

	oauthClient := bling.NewOAuthClient(
		config.Bling.ClientID,
		config.Bling.ClientSecret,
		config.Bling.RedirectURI,
		config.Bling.Scope,
		bling.WithEndpoints(config.Bling.AuthorizeURL, config.Bling.TokenURL),
		bling.WithOAuthLogger(logger),
		bling.WithOAuthTimeout(config.Bling.GetTimeout()),
	)

	productClient := bling.NewClient(
		bling.WithBaseURL(config.Bling.BaseURL),
		bling.WithLogger(logger),
		bling.WithRateLimit(config.Bling.RateLimit),
		bling.WithTimeout(config.Bling.GetTimeout()),
		bling.WithRetryPolicy(config.Bling.MaxRetries, bling.DefaultRetryBackoff),
	)

	authService := auth.NewService(oauthClient, tokenStore, logger)
	if err := authService.Restore(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Could not restore persisted token set")
	}

	parserService := parser.NewService(logger)
	updaterService := updater.NewService(productClient, authService, logger)

	return &App{
		Config:         config,
		Logger:         logger,
		TokenStore:     tokenStore,
		ProductClient:  productClient,
		OAuthClient:    oauthClient,
		AuthService:    authService,
		ParserService:  parserService,
		UpdaterService: updaterService,
		StartupTime:    time.Now(),
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.TokenStore != nil {
		if err := a.TokenStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close token store")
		}
	}
}
