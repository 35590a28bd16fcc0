// Package app provides the main application setup and dependency injection.
package app

import (
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/config"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/extractors"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/handlers/api"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/httpclient"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/providers"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/registry"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/server"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/services"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/session"
)

// App is the main application container.
type App struct {
	Config *config.Config
	Log    *logging.Logger
	Server *server.Server
}

// New creates and initializes the application.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing search backend", "port", cfg.Port, "log_level", cfg.LogLevel)

	httpClient := httpclient.New(cfg, log)

	// Search providers and the fallback chain
	apiProvider := providers.NewAPIProvider(cfg.APIKey, httpClient, log)
	mirrorProvider := providers.NewMirrorProvider(cfg.InvidiousMirrors, cfg.PipedMirrors, cfg.MirrorShuffle, httpClient, log)
	if cfg.APIKey == "" {
		log.Warn("YT_API_KEY not set, the api provider will reject queries")
	}

	chain, err := registry.New(cfg.ProviderPriority, map[string]interfaces.Provider{
		apiProvider.Name():    apiProvider,
		mirrorProvider.Name(): mirrorProvider,
	}, log)
	if err != nil {
		return nil, err
	}
	log.Info("provider chain ready", "order", chain.Names())

	// Extraction engine and application services
	engine := extractors.NewInnerTube(httpClient, log)
	searchService := services.NewSearchService(chain, log)
	resolver := services.NewResolver(engine, cfg.MaxDurationSeconds, log)

	sess := session.NewStore(cfg.DefaultQuery, cfg.DefaultCols, cfg.DefaultRows)
	sheets := services.NewSheetService(searchService, httpClient, sess, log)

	srv := server.New(cfg, log)

	handlers := api.NewHandlers(log, searchService, resolver, sheets, mirrorProvider, sess, httpClient)
	handlers.RegisterRoutes(srv.Router())

	return &App{
		Config: cfg,
		Log:    log,
		Server: srv,
	}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.Log.Info("starting server", "port", a.Config.Port)
	return a.Server.Start()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() {
	a.Log.Info("shutting down application")
}
