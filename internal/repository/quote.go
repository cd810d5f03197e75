package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/borsetrader/rotation-backend/internal/models"
)

// QuoteRepo records one row per instrument per refresh cycle. Rows of the
// same cycle share a cycle timestamp so the threshold optimizer can replay
// refreshes as units.
type QuoteRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteRepo(pool *pgxpool.Pool) *QuoteRepo {
	return &QuoteRepo{pool: pool}
}

func (r *QuoteRepo) Record(ctx context.Context, symbol string, cycleAt time.Time, q *models.Quote) (*models.QuotePoint, error) {
	if !q.HasPrice() {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO quote_history (symbol, timestamp, cycle_at, trading_day, price, change_percent, open_price, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, symbol, timestamp, trading_day, price, change_percent, open_price, source, created_at`,
		symbol, q.FetchedAt, cycleAt, q.FetchedAt.UTC().Format("2006-01-02"),
		*q.Price, q.ChangePercent, q.OpenPrice, "boerse-frankfurt",
	)
	return scanQuote(row)
}

func (r *QuoteRepo) GetLatest(ctx context.Context, symbol string) (*models.QuotePoint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, symbol, timestamp, trading_day, price, change_percent, open_price, source, created_at
		 FROM quote_history WHERE symbol = $1 ORDER BY timestamp DESC LIMIT 1`,
		symbol,
	)
	p, err := scanQuote(row)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *QuoteRepo) GetByDay(ctx context.Context, symbol, tradingDay string) ([]models.QuotePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, timestamp, trading_day, price, change_percent, open_price, source, created_at
		 FROM quote_history WHERE symbol = $1 AND trading_day = $2 ORDER BY timestamp ASC`,
		symbol, tradingDay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuotes(rows)
}

func (r *QuoteRepo) GetAvailableDays(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT trading_day FROM quote_history ORDER BY trading_day DESC LIMIT 30`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d.Format("2006-01-02"))
	}
	return days, rows.Err()
}

// Cycle is the variation snapshot of one refresh: change percent per
// symbol, for symbols that had variation data.
type Cycle struct {
	At         time.Time
	Variations map[string]float64
}

// GetCycles returns the most recent refresh cycles, oldest first, capped
// at limit cycles.
func (r *QuoteRepo) GetCycles(ctx context.Context, limit int) ([]Cycle, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cycle_at, symbol, change_percent
		 FROM quote_history
		 WHERE change_percent IS NOT NULL
		   AND cycle_at IN (
		     SELECT DISTINCT cycle_at FROM quote_history ORDER BY cycle_at DESC LIMIT $1
		   )
		 ORDER BY cycle_at ASC`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var at time.Time
		var symbol string
		var variation float64
		if err := rows.Scan(&at, &symbol, &variation); err != nil {
			return nil, err
		}
		if len(cycles) == 0 || !cycles[len(cycles)-1].At.Equal(at) {
			cycles = append(cycles, Cycle{At: at, Variations: make(map[string]float64)})
		}
		cycles[len(cycles)-1].Variations[symbol] = variation
	}
	return cycles, rows.Err()
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanQuote(row scannable) (*models.QuotePoint, error) {
	var p models.QuotePoint
	var td time.Time
	err := row.Scan(&p.ID, &p.Symbol, &p.Timestamp, &td, &p.Price, &p.ChangePercent, &p.OpenPrice, &p.Source, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.TradingDay = td.Format("2006-01-02")
	return &p, nil
}

func collectQuotes(rows rowsIter) ([]models.QuotePoint, error) {
	var out []models.QuotePoint
	for rows.Next() {
		var p models.QuotePoint
		var td time.Time
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Timestamp, &td, &p.Price, &p.ChangePercent, &p.OpenPrice, &p.Source, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.TradingDay = td.Format("2006-01-02")
		out = append(out, p)
	}
	return out, rows.Err()
}
