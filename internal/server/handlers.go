package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/quiverlabs/radar/internal/pipeline"
	"github.com/quiverlabs/radar/internal/universe"
)

// handleRoot reports service identity, mirroring the health endpoint.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "radar",
		"version": Version,
		"status":  "running",
	})
}

// handleHealth reports service health plus host CPU and memory usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := s.systemStats()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"service":         "radar",
		"version":         Version,
		"cpu_percent":     cpuPct,
		"memory_percent":  memPct,
		"analysis_status": s.pipeline.Progress().Status,
	})
}

// systemStats returns CPU and RAM usage percentages. The 100ms sampling
// interval keeps the handler responsive for dashboard polling.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// handleAnalysisStart launches an analysis run in the background.
// POST /api/analysis/start
func (s *Server) handleAnalysisStart(w http.ResponseWriter, r *http.Request) {
	runID, err := s.pipeline.Start(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			s.writeJSON(w, http.StatusConflict, map[string]string{
				"status":  "error",
				"message": "analysis run already in progress",
			})
			return
		}
		s.log.Error().Err(err).Msg("Failed to start analysis run")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"run_id": runID,
	})
}

// handleAnalysisProgress reports the current run's progress.
// GET /api/analysis/progress
func (s *Server) handleAnalysisProgress(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.pipeline.Progress())
}

// handleAnalysisStatus is the lightweight polling endpoint.
// GET /api/analysis/status
func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	progress := s.pipeline.Progress()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":     progress.Running,
		"status":      progress.Status,
		"last_update": progress.LastUpdate,
	})
}

// handleAnalysisLatest returns the most recent persisted daily analysis.
// GET /api/analysis/latest
func (s *Server) handleAnalysisLatest(w http.ResponseWriter, r *http.Request) {
	doc, err := s.analysisRepo.Latest()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load latest analysis")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "no analysis available yet",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, doc)
}

// handlePortfolio returns the latest portfolio snapshot.
// GET /api/portfolio
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	state, err := s.portfolioRepo.Latest()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load portfolio snapshot")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if state == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "no portfolio snapshot available",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, state)
}

// handlePortfolioValidate runs the limit checks against the latest snapshot.
// GET /api/portfolio/validate
func (s *Server) handlePortfolioValidate(w http.ResponseWriter, r *http.Request) {
	state, err := s.portfolioRepo.Latest()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load portfolio snapshot")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if state == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "no portfolio snapshot available",
		})
		return
	}

	isValid, violations := s.validator.Validate(state)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"is_valid":   isValid,
		"violations": violations,
	})
}

// handleUniverse returns the full reference table.
// GET /api/universe
func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(universe.All()),
		"etfs":  universe.All(),
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
