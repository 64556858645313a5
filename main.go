package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"songfetch/cmd"
	"songfetch/config"
	"songfetch/types"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens
func run() int {
	var (
		server bool
		port   string
		urls   string
		format string
		search string
		sort   string
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.StringVar(&port, "port", "", "Port for web server mode (default SERVER_PORT or 8080)")
	flag.StringVar(&urls, "urls", "", "Video URLs or IDs to download, separated by commas or whitespace")
	flag.StringVar(&format, "format", "mp3", "Output format: mp3, mp4 or wav")
	flag.StringVar(&search, "search", "", "Search query (song title, artist or a line of lyrics)")
	flag.StringVar(&sort, "sort", "relevance", "Search ordering: relevance or date")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	app := cmd.NewApp(cfg)
	defer app.Close()

	// Server mode takes precedence
	if server {
		if err := cmd.StartWebServer(app, port); err != nil {
			log.Printf("Server error: %v", err)
			return 1
		}
		return 0
	}

	if urls == "" && search == "" {
		flag.Usage()
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if search != "" {
		if err := cmd.PrintSearch(ctx, app, search, types.ParseSortOrder(sort), os.Stdout); err != nil {
			log.Printf("Search failed: %v", err)
			return 1
		}
		return 0
	}

	f, err := types.ParseFormat(format)
	if err != nil {
		log.Printf("Error: %v", err)
		return 2
	}
	report, err := cmd.RunBatch(ctx, app, urls, f, os.Stdout)
	if cmd.IsNoValidReferences(err) {
		log.Printf("No valid video URLs or IDs in %q", urls)
		return 2
	}
	if err != nil {
		log.Printf("Batch stopped: %v", err)
	}
	if report != nil && report.Failed() > 0 {
		return 1
	}
	return 0
}
