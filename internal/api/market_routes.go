package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/models"
	"github.com/borsetrader/rotation-backend/internal/portfolio"
)

type basketJSON struct {
	Instruments []models.Instrument      `json:"instruments"`
	Quotes      map[string]*models.Quote `json:"quotes"`
	Usable      int                      `json:"usable"`
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := s.registry.Symbols()
	instruments := make([]models.Instrument, 0, len(symbols))
	for _, sym := range symbols {
		if inst, ok := s.registry.Instrument(sym); ok {
			instruments = append(instruments, inst)
		}
	}

	writeJSON(w, http.StatusOK, basketJSON{
		Instruments: instruments,
		Quotes:      s.registry.Snapshot(),
		Usable:      s.registry.UsableCount(),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if !s.registry.Has(symbol) {
		writeError(w, http.StatusNotFound, "unknown instrument "+symbol)
		return
	}

	q := s.registry.Quote(symbol)
	if q == nil {
		writeError(w, http.StatusNotFound, "no quote received yet for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleLatestQuotePoint(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if !s.registry.Has(symbol) {
		writeError(w, http.StatusNotFound, "unknown instrument "+symbol)
		return
	}

	p, err := s.quoteRepo.GetLatest(r.Context(), symbol)
	if err != nil {
		log.Error().Str("symbol", symbol).Err(err).Msg("fetch latest quote point")
		writeError(w, http.StatusInternalServerError, "failed to fetch latest quote")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no recorded quotes for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleQuotesByDay(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	date := r.PathValue("date")
	if !s.registry.Has(symbol) {
		writeError(w, http.StatusNotFound, "unknown instrument "+symbol)
		return
	}
	if !validateDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	points, err := s.quoteRepo.GetByDay(r.Context(), symbol, date)
	if err != nil {
		log.Error().Str("symbol", symbol).Str("date", date).Err(err).Msg("fetch quotes by day")
		writeError(w, http.StatusInternalServerError, "failed to fetch quotes")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleAvailableDays(w http.ResponseWriter, r *http.Request) {
	days, err := s.quoteRepo.GetAvailableDays(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("fetch available days")
		writeError(w, http.StatusInternalServerError, "failed to fetch available days")
		return
	}
	if days == nil {
		days = []string{}
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.Snapshot())
}

func (s *Server) handleDeltas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.Snapshot().Deltas)
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	rec := s.analyzer.Snapshot().Recommendation
	if rec == nil {
		writeError(w, http.StatusUnprocessableEntity, "no variation data available yet")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMarketStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.Snapshot().MarketStats)
}

func (s *Server) handleOptimizer(w http.ResponseWriter, r *http.Request) {
	cycles := parseLimit(r, 500)

	results, err := s.analyzer.OptimizeThresholds(r.Context(), cycles)
	if err != nil {
		log.Error().Err(err).Msg("threshold optimization failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleRefresh triggers an immediate fetch-and-analyze pass outside the
// scheduled interval.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	succeeded, _ := s.analyzer.RefreshQuotes(r.Context())
	if succeeded == 0 {
		writeError(w, http.StatusBadGateway, "no quotes could be fetched")
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.Analyze())
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	history := s.tracker.History()
	limit := parseLimit(r, 0)
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSignalPerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, portfolio.AnalyzeSignals(s.tracker.History()))
}
