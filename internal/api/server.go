// Package api exposes the scanner over HTTP: live scans, stored runs,
// rescoring, the strategy table and persisted settings.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"primeflip/internal/catalog"
	"primeflip/internal/config"
	"primeflip/internal/db"
	"primeflip/internal/engine"
	"primeflip/internal/ratelimit"
)

// Server is the HTTP API server that connects the market client, scoring
// engine and database.
type Server struct {
	market     engine.MarketSource
	limiter    *ratelimit.Limiter
	db         *db.DB
	strategies *engine.StrategyTable
	version    string

	mu      sync.RWMutex
	cfg     *config.Config
	catalog *catalog.Catalog
	ready   bool

	// Scan guard: one scan at a time, manual or scheduled.
	scanMu   sync.Mutex
	scanning bool
}

// NewServer creates a Server with the given config, market client and
// database. The catalog arrives later via SetCatalog.
func NewServer(cfg *config.Config, market engine.MarketSource, limiter *ratelimit.Limiter, database *db.DB, version string) *Server {
	return &Server{
		market:     market,
		limiter:    limiter,
		db:         database,
		strategies: engine.NewStrategyTable(),
		version:    version,
		cfg:        cfg,
	}
}

// SetCatalog is called when the set catalog finishes loading.
func (s *Server) SetCatalog(c *catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
	s.ready = true
}

func (s *Server) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// tryBeginScan claims the scan slot. A caller that gets true must call
// endScan when its scan finishes.
func (s *Server) tryBeginScan() bool {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	if s.scanning {
		return false
	}
	s.scanning = true
	return true
}

func (s *Server) endScan() {
	s.scanMu.Lock()
	s.scanning = false
	s.scanMu.Unlock()
}

func (s *Server) isScanning() bool {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.scanning
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/rescore", s.handleRescore)
	mux.HandleFunc("GET /api/runs", s.handleGetRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRunByID)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("POST /api/runs/clear", s.handleClearRuns)
	mux.HandleFunc("GET /api/items/{id}/history", s.handleGetItemHistory)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// --- Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.ready
	var sets, parts int
	if s.catalog != nil {
		sets = s.catalog.Size()
		parts = s.catalog.PartCount()
	}
	s.mu.RUnlock()

	writeJSON(w, map[string]interface{}{
		"version":        s.version,
		"catalog_loaded": ready,
		"catalog_sets":   sets,
		"catalog_parts":  parts,
		"limiter_load":   s.limiter.CurrentLoad(),
		"limiter_max":    s.limiter.Max(),
		"scan_running":   s.isScanning(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	cfg := *s.cfg
	s.mu.RUnlock()
	writeJSON(w, cfg)
}

var platforms = map[string]bool{"pc": true, "ps4": true, "xbox": true, "switch": true}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	// Reject bad strategy names before touching anything, so a failed
	// patch leaves the config whole.
	var newStrategy string
	if v, ok := patch["default_strategy"]; ok {
		var name string
		json.Unmarshal(v, &name)
		p, err := s.strategies.Get(name)
		if err != nil {
			writeError(w, 400, err.Error())
			return
		}
		newStrategy = p.Name
	}

	s.mu.Lock()
	if v, ok := patch["max_requests"]; ok {
		json.Unmarshal(v, &s.cfg.MaxRequests)
	}
	if v, ok := patch["window_seconds"]; ok {
		json.Unmarshal(v, &s.cfg.WindowSeconds)
	}
	if newStrategy != "" {
		s.cfg.DefaultStrategy = newStrategy
	}
	if v, ok := patch["default_mode"]; ok {
		var mode string
		json.Unmarshal(v, &mode)
		s.cfg.DefaultMode = engine.ParseMode(mode)
	}
	if v, ok := patch["price_depth"]; ok {
		json.Unmarshal(v, &s.cfg.PriceDepth)
	}
	if v, ok := patch["min_set_price"]; ok {
		json.Unmarshal(v, &s.cfg.MinSetPrice)
	}
	if v, ok := patch["max_sets"]; ok {
		json.Unmarshal(v, &s.cfg.MaxSets)
	}
	if v, ok := patch["refresh_minutes"]; ok {
		json.Unmarshal(v, &s.cfg.RefreshMinutes)
	}
	if v, ok := patch["history_lookback_days"]; ok {
		json.Unmarshal(v, &s.cfg.HistoryLookbackDays)
	}
	if v, ok := patch["platform"]; ok {
		var p string
		json.Unmarshal(v, &p)
		p = strings.ToLower(strings.TrimSpace(p))
		if platforms[p] {
			s.cfg.Platform = p
		}
	}

	// Validate bounds. Limiter settings apply on the next start; the
	// running limiter keeps the window it was built with.
	if s.cfg.MaxRequests < 1 {
		s.cfg.MaxRequests = 1
	} else if s.cfg.MaxRequests > 10 {
		s.cfg.MaxRequests = 10
	}
	if s.cfg.WindowSeconds < 0.1 {
		s.cfg.WindowSeconds = 0.1
	}
	if s.cfg.PriceDepth < 1 {
		s.cfg.PriceDepth = 1
	} else if s.cfg.PriceDepth > 20 {
		s.cfg.PriceDepth = 20
	}
	if s.cfg.MinSetPrice < 0 {
		s.cfg.MinSetPrice = 0
	}
	if s.cfg.MaxSets < 0 {
		s.cfg.MaxSets = 0
	}
	if s.cfg.RefreshMinutes < 0 {
		s.cfg.RefreshMinutes = 0
	}
	if s.cfg.HistoryLookbackDays < 1 {
		s.cfg.HistoryLookbackDays = 1
	} else if s.cfg.HistoryLookbackDays > 90 {
		s.cfg.HistoryLookbackDays = 90
	}
	cfg := *s.cfg
	s.mu.Unlock()

	if err := s.db.SaveConfig(&cfg); err != nil {
		writeError(w, 500, "config not saved: "+err.Error())
		return
	}
	writeJSON(w, cfg)
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"strategies": s.strategies.Profiles(),
		"modes":      []string{engine.ModeInstant, engine.ModePatient},
	})
}
