package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"primeflip/internal/engine"
	"primeflip/internal/logger"
)

// scanRequest is the POST /api/scan body. Zero values fall back to the
// stored config.
type scanRequest struct {
	Strategy    string  `json:"strategy"`
	Mode        string  `json:"mode"`
	MaxSets     int     `json:"max_sets"`
	MinSetPrice float64 `json:"min_set_price"`
}

// newAnalyzer assembles an analyzer from the live catalog and config.
func (s *Server) newAnalyzer() *engine.Analyzer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := engine.NewAnalyzer(s.market, s.catalog, s.strategies)
	a.Depth = s.cfg.PriceDepth
	a.LookbackDays = s.cfg.HistoryLookbackDays
	if s.db != nil {
		a.History = s.db
	}
	return a
}

// scanParams fills the blanks of a request from the stored config.
func (s *Server) scanParams(req scanRequest) engine.ScanParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	params := engine.ScanParams{
		Strategy:    req.Strategy,
		Mode:        req.Mode,
		MaxSets:     req.MaxSets,
		MinSetPrice: req.MinSetPrice,
	}
	if params.Strategy == "" {
		params.Strategy = s.cfg.DefaultStrategy
	}
	if params.Mode == "" {
		params.Mode = s.cfg.DefaultMode
	}
	if params.MaxSets == 0 {
		params.MaxSets = s.cfg.MaxSets
	}
	if params.MinSetPrice == 0 {
		params.MinSetPrice = s.cfg.MinSetPrice
	}
	return params
}

// handleScan runs a full scan and streams NDJSON progress lines followed by
// one result line, so a multi-minute scan keeps the connection visibly alive.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, 400, "invalid json")
		return
	}

	if !s.isReady() {
		writeError(w, 503, "catalog not loaded yet")
		return
	}
	params := s.scanParams(req)
	if _, err := s.strategies.Get(params.Strategy); err != nil {
		writeError(w, 400, err.Error())
		return
	}

	if !s.tryBeginScan() {
		writeError(w, 409, "a scan is already running")
		return
	}
	defer s.endScan()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, 500, "streaming not supported")
		return
	}

	logger.Info("API", fmt.Sprintf("Scan starting: strategy=%s mode=%s maxSets=%d minPrice=%.0f",
		params.Strategy, params.Mode, params.MaxSets, params.MinSetPrice))

	result, err := s.newAnalyzer().Run(r.Context(), params, func(msg string) {
		line, _ := json.Marshal(map[string]string{"type": "progress", "message": msg})
		fmt.Fprintf(w, "%s\n", line)
		flusher.Flush()
	})
	if err != nil {
		logger.Error("API", fmt.Sprintf("Scan failed: %v", err))
		line, _ := json.Marshal(map[string]string{"type": "error", "message": err.Error()})
		fmt.Fprintf(w, "%s\n", line)
		flusher.Flush()
		return
	}

	logger.Success("API", fmt.Sprintf("Scan %s: %d records in %s",
		result.RunID, len(result.Records), result.Duration.Round(time.Millisecond)))

	if err := s.db.SaveRun(result); err != nil {
		logger.Warn("API", fmt.Sprintf("Run %s not persisted: %v", result.RunID, err))
	}

	line, marshalErr := json.Marshal(map[string]interface{}{
		"type":   "result",
		"run_id": result.RunID,
		"count":  len(result.Records),
		"data":   result,
	})
	if marshalErr != nil {
		errLine, _ := json.Marshal(map[string]string{"type": "error", "message": "JSON: " + marshalErr.Error()})
		fmt.Fprintf(w, "%s\n", errLine)
		flusher.Flush()
		return
	}
	fmt.Fprintf(w, "%s\n", line)
	flusher.Flush()
}

// RunScheduledScan runs one scan with the configured defaults and persists
// the result. It shares the in-progress guard with the HTTP handler, so a
// manual scan in flight turns this cycle into a no-op.
func (s *Server) RunScheduledScan(ctx context.Context) {
	if !s.isReady() {
		return
	}
	if !s.tryBeginScan() {
		logger.Info("Refresh", "Scan already running, skipping this cycle")
		return
	}
	defer s.endScan()

	params := s.scanParams(scanRequest{})
	result, err := s.newAnalyzer().Run(ctx, params, nil)
	if err != nil {
		logger.Warn("Refresh", fmt.Sprintf("Background scan failed: %v", err))
		return
	}
	if err := s.db.SaveRun(result); err != nil {
		logger.Warn("Refresh", fmt.Sprintf("Run %s not persisted: %v", result.RunID, err))
		return
	}
	logger.Success("Refresh", fmt.Sprintf("Scored %d sets in %s (run %s)",
		len(result.Records), result.Duration.Round(time.Millisecond), result.RunID))
}
