package cmd

import (
	"log"

	"songfetch/config"
	"songfetch/handlers"
	"songfetch/services"
)

// App bundles the services shared by the server and the CLI
type App struct {
	Config       *config.Config
	Retriever    services.Retriever
	Lyrics       services.LyricsFinder
	Resolver     services.Resolver
	Orchestrator services.Orchestrator
	Files        services.FileService
	History      handlers.HistoryReader

	closers []func() error
}

// NewApp wires the provider adapters from cfg. A history file that cannot be
// opened only disables history.
func NewApp(cfg *config.Config) *App {
	app := &App{Config: cfg, Files: services.NewFileService()}

	var sink services.HistorySink
	if store, err := services.NewHistoryStore(cfg.HistoryPath); err != nil {
		log.Printf("[app] history disabled: %v", err)
	} else {
		sink = store
		app.History = store
		app.closers = append(app.closers, store.Close)
	}

	app.Retriever = services.NewYouTubeRetriever(cfg.ProviderTimeout)
	search := services.NewYouTubeSearch(services.YouTubeSearchConfig{
		APIKey:    cfg.YouTubeAPIKey,
		BaseURL:   cfg.YouTubeAPIBase,
		Timeout:   cfg.ProviderTimeout,
		RateLimit: cfg.SearchRateLimit,
	})
	if cfg.GeniusAPIKey != "" {
		app.Lyrics = services.NewGeniusClient(services.GeniusConfig{
			APIKey:  cfg.GeniusAPIKey,
			BaseURL: cfg.GeniusAPIBase,
			Timeout: cfg.ProviderTimeout,
		})
	} else {
		log.Println("[app] GENIUS_API_KEY not set, lyrics search disabled")
	}

	app.Resolver = services.NewResolver(search, app.Lyrics, sink)
	app.Orchestrator = services.NewOrchestrator(app.Retriever, services.NewDiskStore(cfg.DownloadDir), sink)
	return app
}

// Close releases resources held by the app
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Printf("[app] close: %v", err)
		}
	}
}
