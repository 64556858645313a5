package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"songfetch/handlers"
	"songfetch/middleware"
	"songfetch/services"
	"songfetch/websocket"
)

// StartWebServer runs the HTTP server until SIGINT or SIGTERM
func StartWebServer(app *App, port string) error {
	cfg := app.Config
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	jobQueue := services.NewJobQueue(app.Orchestrator, hub)
	jobQueue.Start(ctx)

	r := NewRouter(app, jobQueue, hub)

	if port == "" {
		port = cfg.Port
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] songfetch web server starting on port %s (downloads in %s)", port, cfg.DownloadDir())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine with every route
func NewRouter(app *App, jobQueue services.JobQueue, hub websocket.Hub) *gin.Engine {
	cfg := app.Config

	downloadHandler := handlers.NewDownloadHandler(app.Orchestrator, jobQueue, hub, websocket.NewUpgrader(cfg.CORSOrigins))
	fileHandler := handlers.NewFileHandler(app.Files, cfg.DownloadDir)
	searchHandler := handlers.NewSearchHandler(app.Resolver)
	trackHandler := handlers.NewTrackHandler(app.Retriever, app.Lyrics)
	historyHandler := handlers.NewHistoryHandler(app.History)
	healthHandler := handlers.NewHealthHandler(cfg.DownloadDir)
	settingsHandler := handlers.NewSettingsHandler(cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	r.GET("/health", healthHandler.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/status", healthHandler.APIStatus)

		api.GET("/search", searchHandler.Search)
		api.POST("/references/parse", searchHandler.ParseReferences)
		api.GET("/searches/history", historyHandler.Searches)

		api.GET("/tracks/:videoId", trackHandler.GetTrack)
		api.GET("/lyrics", trackHandler.GetLyrics)
		api.GET("/stream/:videoId", trackHandler.StreamPreview)

		downloads := api.Group("/downloads")
		{
			downloads.POST("", downloadHandler.Download)
			downloads.POST("/batch", downloadHandler.QueueBatch)

			downloads.GET("/jobs", downloadHandler.GetAllJobs)
			downloads.GET("/jobs/:jobId", downloadHandler.GetJob)
			downloads.DELETE("/jobs/:jobId", downloadHandler.CancelJob)

			downloads.GET("/history", historyHandler.Downloads)
			downloads.GET("/files/:filename", fileHandler.DownloadFile)
		}

		ws := api.Group("/ws")
		{
			ws.GET("/downloads", downloadHandler.HandleWebSocketAllConnection)
			ws.GET("/downloads/:jobId", downloadHandler.HandleWebSocketConnection)
		}

		api.GET("/files", fileHandler.ListFiles)
		api.GET("/files/stream/*filepath", fileHandler.StreamFile)

		api.GET("/settings", settingsHandler.GetSettings)
		api.POST("/settings", settingsHandler.UpdateSettings)
	}

	return r
}
