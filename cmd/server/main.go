package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/api"
	"github.com/borsetrader/rotation-backend/internal/config"
	"github.com/borsetrader/rotation-backend/internal/db"
	"github.com/borsetrader/rotation-backend/internal/engine"
	"github.com/borsetrader/rotation-backend/internal/external"
	"github.com/borsetrader/rotation-backend/internal/market"
	"github.com/borsetrader/rotation-backend/internal/notifications"
	"github.com/borsetrader/rotation-backend/internal/portfolio"
	"github.com/borsetrader/rotation-backend/internal/repository"
	sig "github.com/borsetrader/rotation-backend/internal/signal"
	"github.com/borsetrader/rotation-backend/internal/strategy"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	cfg.Print()

	basket, err := config.LoadInstruments(cfg.InstrumentsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("instrument basket load failed")
	}
	registry, err := market.NewRegistry(basket)
	if err != nil {
		log.Fatal().Err(err).Msg("registry construction failed")
	}
	if !registry.Has(cfg.DefaultETF) {
		log.Fatal().Str("defaultETF", cfg.DefaultETF).Msg("default instrument is not in the basket")
	}

	log.Info().Int("instruments", registry.Len()).Msg("instrument basket loaded")

	// Database
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.TestConnection(pool); err != nil {
		log.Fatal().Err(err).Msg("database test query failed")
	}
	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	// Repos
	portfolioRepo := repository.NewPortfolioRepo(pool)
	quoteRepo := repository.NewQuoteRepo(pool)

	// Domain wiring
	stratEngine := strategy.NewEngine(registry, strategy.Params{
		Threshold: cfg.TradingThreshold,
		Fee:       cfg.TradingFees,
	})

	ledger := portfolio.NewLedger(portfolioRepo, portfolio.Options{
		DefaultETF:     cfg.DefaultETF,
		InvestedValue:  cfg.InvestedValue,
		Fee:            cfg.TradingFees,
		ReferencePrice: cfg.ReferencePrice,
	})

	bus := sig.NewBus()
	tracker := sig.NewTracker()
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	bus.Subscribe(notifications.NewSubscriber(notify).Handle)

	client := external.NewBoerseClient(cfg.QuoteAPIBaseURL, cfg.RequestDelay(), cfg.QuoteTimeout())
	analyzer := engine.NewAnalyzer(registry, stratEngine, ledger, tracker, bus, client, quoteRepo)
	service := engine.NewService(analyzer, cfg.RefreshInterval())

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Restore persisted portfolio, then optionally seed shares from the
	// configured reference price until the first live quote arrives.
	ledger.Load(ctx)
	if !ledger.Portfolio().Initialized() && cfg.ReferencePrice > 0 {
		ledger.InitializeFromReference(ctx)
	}

	// 1. API server
	srv := api.NewServer(pool, registry, ledger, analyzer, tracker, quoteRepo,
		cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	// 2. Refresh engine
	if cfg.AutoRefresh {
		service.Start(ctx)
	} else {
		log.Warn().Msg("auto refresh disabled, quotes only update via POST /v1/refresh")
	}

	notify.Send(fmt.Sprintf("ETF rotation engine started (%d instruments, threshold %.2f%%)",
		registry.Len(), cfg.TradingThreshold))

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if cfg.AutoRefresh {
		service.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
