package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/borsetrader/rotation-backend/internal/models"
	"github.com/borsetrader/rotation-backend/internal/repository"
	"github.com/borsetrader/rotation-backend/internal/testutil"
)

func ptr(f float64) *float64 { return &f }

// ---------- PortfolioRepo ----------

func TestPortfolioRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewPortfolioRepo(pool)
	ctx := context.Background()

	doc := &models.PortfolioDocument{
		Portfolio: models.Portfolio{
			CurrentETF:    "VWCE",
			Shares:        1000,
			InvestedValue: 100000,
			CurrentValue:  100000,
		},
		TradingLogs: []models.TradeRecord{
			{
				ID:          "test-record-1",
				Timestamp:   time.Now(),
				SoldETF:     "VWCE",
				BoughtETF:   "IWDA",
				SoldValue:   100000,
				BoughtValue: 99950,
				TradingFees: 50,
			},
		},
		LastUpdate: time.Now(),
		Version:    models.DocumentVersion,
	}

	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a document")
	}
	if loaded.Portfolio.CurrentETF != "VWCE" || loaded.Portfolio.Shares != 1000 {
		t.Fatalf("portfolio mismatch: %+v", loaded.Portfolio)
	}
	if len(loaded.TradingLogs) != 1 || loaded.TradingLogs[0].ID != "test-record-1" {
		t.Fatalf("logs mismatch: %+v", loaded.TradingLogs)
	}
	if loaded.Version != models.DocumentVersion {
		t.Fatalf("version mismatch: %s", loaded.Version)
	}
	t.Logf("Round trip: etf=%s shares=%.0f logs=%d", loaded.Portfolio.CurrentETF, loaded.Portfolio.Shares, len(loaded.TradingLogs))

	// Second save deactivates the first snapshot; Load returns the latest.
	doc.Portfolio.CurrentETF = "IWDA"
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("Save(2): %v", err)
	}
	loaded, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load(2): %v", err)
	}
	if loaded.Portfolio.CurrentETF != "IWDA" {
		t.Fatalf("expected latest snapshot, got %s", loaded.Portfolio.CurrentETF)
	}

	var active int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM portfolio_state WHERE is_active = true`).Scan(&active); err != nil {
		t.Fatalf("count active: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected exactly 1 active snapshot, got %d", active)
	}
}

// ---------- QuoteRepo ----------

func TestQuoteRepo(t *testing.T) {
	pool := testutil.SetupPool(t)
	repo := repository.NewQuoteRepo(pool)
	ctx := context.Background()

	cycleAt := time.Now().UTC().Truncate(time.Second)
	quote := &models.Quote{
		Price:         ptr(108.52),
		ChangePercent: ptr(-0.49),
		OpenPrice:     ptr(109.02),
		FetchedAt:     time.Now(),
	}

	p, err := repo.Record(ctx, "VWCE", cycleAt, quote)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if p == nil || p.ID == 0 {
		t.Fatal("expected a persisted quote point")
	}
	if p.Price != 108.52 {
		t.Fatalf("price mismatch: %f", p.Price)
	}
	t.Logf("Recorded quote: id=%d symbol=%s day=%s", p.ID, p.Symbol, p.TradingDay)

	// A second instrument in the same cycle.
	if _, err := repo.Record(ctx, "IWDA", cycleAt, &models.Quote{
		Price:         ptr(95.10),
		ChangePercent: ptr(0.22),
		FetchedAt:     time.Now(),
	}); err != nil {
		t.Fatalf("Record(IWDA): %v", err)
	}

	// Priceless quotes are skipped, not stored.
	skipped, err := repo.Record(ctx, "MEUD", cycleAt, &models.Quote{FetchedAt: time.Now()})
	if err != nil {
		t.Fatalf("Record(priceless): %v", err)
	}
	if skipped != nil {
		t.Fatal("priceless quote must not be stored")
	}

	latest, err := repo.GetLatest(ctx, "VWCE")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil {
		t.Fatal("expected latest quote point")
	}
	t.Logf("Latest: id=%d price=%.2f", latest.ID, latest.Price)

	points, err := repo.GetByDay(ctx, "VWCE", p.TradingDay)
	if err != nil {
		t.Fatalf("GetByDay: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("expected points for trading day")
	}
	t.Logf("GetByDay(%s): %d rows", p.TradingDay, len(points))

	days, err := repo.GetAvailableDays(ctx)
	if err != nil {
		t.Fatalf("GetAvailableDays: %v", err)
	}
	if len(days) == 0 {
		t.Fatal("expected at least one day")
	}
	t.Logf("Available days: %v", days)

	cycles, err := repo.GetCycles(ctx, 10)
	if err != nil {
		t.Fatalf("GetCycles: %v", err)
	}
	if len(cycles) == 0 {
		t.Fatal("expected at least one cycle")
	}

	found := false
	for _, c := range cycles {
		if c.At.Equal(cycleAt) {
			found = true
			if len(c.Variations) != 2 {
				t.Fatalf("cycle variations: expected 2 symbols, got %d", len(c.Variations))
			}
			if c.Variations["VWCE"] != -0.49 {
				t.Fatalf("VWCE variation: %f", c.Variations["VWCE"])
			}
		}
	}
	if !found {
		t.Fatal("recorded cycle not returned by GetCycles")
	}
	t.Logf("GetCycles: %d cycles", len(cycles))
}
