package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/engine"
	"github.com/borsetrader/rotation-backend/internal/market"
	"github.com/borsetrader/rotation-backend/internal/portfolio"
	"github.com/borsetrader/rotation-backend/internal/repository"
	"github.com/borsetrader/rotation-backend/internal/signal"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Server struct {
	pool       *pgxpool.Pool
	registry   *market.Registry
	ledger     *portfolio.Ledger
	analyzer   *engine.Analyzer
	tracker    *signal.Tracker
	quoteRepo  *repository.QuoteRepo
	httpServer *http.Server
	apiKey     string
}

func NewServer(
	pool *pgxpool.Pool,
	registry *market.Registry,
	ledger *portfolio.Ledger,
	analyzer *engine.Analyzer,
	tracker *signal.Tracker,
	quoteRepo *repository.QuoteRepo,
	port int,
	apiKey, corsOrigin string,
) *Server {
	s := &Server{
		pool:      pool,
		registry:  registry,
		ledger:    ledger,
		analyzer:  analyzer,
		tracker:   tracker,
		quoteRepo: quoteRepo,
		apiKey:    apiKey,
	}

	mux := http.NewServeMux()

	// Quote routes
	mux.HandleFunc("GET /v1/quotes", s.handleQuotes)
	mux.HandleFunc("GET /v1/quotes/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /v1/quotes/{symbol}/latest", s.handleLatestQuotePoint)
	mux.HandleFunc("GET /v1/quotes/{symbol}/day/{date}", s.handleQuotesByDay)
	mux.HandleFunc("GET /v1/history/days", s.handleAvailableDays)

	// Analysis routes
	mux.HandleFunc("GET /v1/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /v1/deltas", s.handleDeltas)
	mux.HandleFunc("GET /v1/recommendation", s.handleRecommendation)
	mux.HandleFunc("GET /v1/market/stats", s.handleMarketStats)
	mux.HandleFunc("GET /v1/optimizer", s.handleOptimizer)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)

	// Signal routes
	mux.HandleFunc("GET /v1/signals", s.handleSignals)
	mux.HandleFunc("GET /v1/signals/performance", s.handleSignalPerformance)

	// Portfolio routes
	mux.HandleFunc("GET /v1/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /v1/portfolio/stats", s.handlePortfolioStats)
	mux.HandleFunc("GET /v1/portfolio/simulation", s.handleSimulation)
	mux.HandleFunc("POST /v1/portfolio/reset", s.handleReset)

	// Trade routes
	mux.HandleFunc("GET /v1/trades", s.handleTrades)
	mux.HandleFunc("POST /v1/trades", s.handleExecuteTrade)
	mux.HandleFunc("DELETE /v1/trades/{id}", s.handleDeleteTrade)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Bool("auth", s.apiKey != "").
		Msg("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case portfolio.IsDataInsufficient(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, portfolio.ErrTradeInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, portfolio.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case portfolio.IsInvalidOperation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
