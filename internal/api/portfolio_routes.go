package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Portfolio())
}

func (s *Server) handlePortfolioStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Stats())
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Simulate())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ledger.Reset(r.Context())
	s.tracker.Reset()
	writeJSON(w, http.StatusOK, s.ledger.Portfolio())
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	writeJSON(w, http.StatusOK, s.ledger.Logs(limit))
}

type executeTradeRequest struct {
	TargetETF string `json:"targetETF"`
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req executeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TargetETF == "" {
		writeError(w, http.StatusBadRequest, "targetETF is required")
		return
	}

	record, err := s.analyzer.ExecuteRotation(r.Context(), req.TargetETF)
	if err != nil {
		log.Warn().Str("target", req.TargetETF).Err(err).Msg("trade rejected")
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := s.ledger.DeleteRecord(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
