package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"primeflip/internal/api"
	"primeflip/internal/catalog"
	"primeflip/internal/db"
	"primeflip/internal/logger"
	"primeflip/internal/ratelimit"
	"primeflip/internal/wfm"
)

var version = "dev"

func main() {
	port := flag.Int("port", 13370, "HTTP server port")
	dataDir := flag.String("data", "data", "directory for the database and catalog cache")
	debug := flag.Bool("debug", false, "log per-item skip reasons")
	flag.Parse()

	logger.SetDebug(*debug)
	logger.Banner(version)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Error("Init", fmt.Sprintf("Data dir: %v", err))
		os.Exit(1)
	}

	// Open SQLite database
	database, err := db.Open(*dataDir)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	// Load config from SQLite
	cfg := database.LoadConfig()

	limiter, err := ratelimit.New(cfg.MaxRequests, cfg.Window())
	if err != nil {
		logger.Error("Init", fmt.Sprintf("Rate limiter: %v", err))
		os.Exit(1)
	}
	client := wfm.NewClient(limiter, cfg.Platform)

	srv := api.NewServer(cfg, client, limiter, database, version)

	// Stored history beyond the market API's own 90 days never feeds a
	// trend again.
	if n, err := database.PrunePriceHistory(90); err == nil && n > 0 {
		logger.Info("DB", fmt.Sprintf("Pruned %d stale price points", n))
	}

	// Build the set catalog in the background so the server comes up
	// instantly; scans 503 until it lands.
	go func() {
		cat, err := catalog.Load(context.Background(), *dataDir, client)
		if err != nil {
			logger.Error("Catalog", fmt.Sprintf("Load failed: %v", err))
			return
		}
		srv.SetCatalog(cat)
		logger.Section("Catalog Statistics")
		logger.Stats("Sets", cat.Size())
		logger.Stats("Parts", cat.PartCount())
		logger.Success("Catalog", "Scanner ready")
	}()

	if cfg.RefreshMinutes > 0 {
		go refreshLoop(srv, time.Duration(cfg.RefreshMinutes)*time.Minute)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}

// refreshLoop re-scans on a fixed cadence so stored runs stay current even
// when nobody asks for one.
func refreshLoop(srv *api.Server, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		srv.RunScheduledScan(context.Background())
	}
}
