package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"primeflip/internal/engine"
)

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	writeJSON(w, s.db.GetRuns(limit))
}

func (s *Server) handleGetRunByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run := s.db.GetRun(id)
	if run == nil {
		writeError(w, 404, "not found")
		return
	}
	writeJSON(w, map[string]interface{}{
		"run":     run,
		"records": s.db.GetRunRecords(id),
	})
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.db.GetRun(id) == nil {
		writeError(w, 404, "not found")
		return
	}
	if err := s.db.DeleteRun(id); err != nil {
		writeError(w, 500, "delete failed: "+err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearRuns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OlderThanDays int `json:"older_than_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.OlderThanDays = 7 // default: clear older than 7 days
	}
	if req.OlderThanDays < 1 {
		req.OlderThanDays = 7
	}
	count, err := s.db.ClearRuns(req.OlderThanDays)
	if err != nil {
		writeError(w, 500, "clear failed: "+err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"status": "cleared", "deleted": count})
}

func (s *Server) handleGetItemHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	days := 0 // 0 = everything stored
	if d := r.URL.Query().Get("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			days = n
		}
	}
	points, err := s.db.PricePoints(id, days)
	if err != nil {
		writeError(w, 500, "history read failed: "+err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"item_id": id,
		"count":   len(points),
		"points":  points,
	})
}

// rescoreRequest is the POST /api/rescore body. An empty run_id targets the
// most recent stored run; an empty strategy keeps the run's own.
type rescoreRequest struct {
	RunID        string  `json:"run_id"`
	Strategy     string  `json:"strategy"`
	Mode         string  `json:"mode"`
	Formula      string  `json:"formula"` // composite (default) | additive
	MarginWeight float64 `json:"margin_weight"`
	VolumeWeight float64 `json:"volume_weight"`
	Persist      bool    `json:"persist"`
}

// handleRescore replays a stored run through the scoring pipeline under a
// different strategy, mode or formula. No market traffic is involved.
func (s *Server) handleRescore(w http.ResponseWriter, r *http.Request) {
	var req rescoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, 400, "invalid json")
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = s.db.LatestRunID()
	}
	if runID == "" {
		writeError(w, 404, "no stored runs")
		return
	}
	run := s.db.GetRun(runID)
	if run == nil {
		writeError(w, 404, "run not found: "+runID)
		return
	}
	records := s.db.GetRunRecords(runID)

	var (
		rescored     []engine.ScoredRecord
		strategyName string
		modeName     string
	)
	switch strings.ToLower(strings.TrimSpace(req.Formula)) {
	case "", "composite":
		name := req.Strategy
		if name == "" {
			name = run.Strategy
		}
		strategy, err := s.strategies.Get(name)
		if err != nil {
			writeError(w, 400, err.Error())
			return
		}
		rescored = engine.Rescore(records, strategy, req.Mode)
		strategyName = strategy.Name
		modeName = req.Mode
		if modeName == "" {
			modeName = run.Mode
		}
	case "additive":
		mw, vw := req.MarginWeight, req.VolumeWeight
		if mw == 0 && vw == 0 {
			mw, vw = 0.6, 0.4
		}
		margins := make([]engine.MarginRecord, len(records))
		volumes := make(map[string]int, len(records))
		for i, rec := range records {
			margins[i] = rec.MarginRecord
			volumes[rec.ItemID] = rec.Volume
		}
		rescored = engine.AdditiveScores(margins, volumes, mw, vw)
		strategyName = "additive"
		modeName = engine.ModeInstant
	default:
		writeError(w, 400, "unknown formula: "+req.Formula)
		return
	}

	resp := map[string]interface{}{
		"source_run": runID,
		"strategy":   strategyName,
		"mode":       modeName,
		"count":      len(rescored),
		"records":    rescored,
	}

	if req.Persist {
		saved := &engine.ScanResult{
			RunID:    uuid.NewString(),
			Strategy: strategyName,
			Mode:     modeName,
			Records:  rescored,
			Started:  time.Now(),
		}
		if err := s.db.SaveRun(saved); err != nil {
			writeError(w, 500, "rescore not persisted: "+err.Error())
			return
		}
		resp["run_id"] = saved.RunID
	}

	writeJSON(w, resp)
}
