package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/borsetrader/rotation-backend/internal/models"
)

// PortfolioRepo persists the portfolio document as a single active jsonb
// row; saving deactivates the previous snapshot so history stays
// queryable.
type PortfolioRepo struct {
	pool *pgxpool.Pool
}

func NewPortfolioRepo(pool *pgxpool.Pool) *PortfolioRepo {
	return &PortfolioRepo{pool: pool}
}

func (r *PortfolioRepo) Save(ctx context.Context, doc *models.PortfolioDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal portfolio document: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE portfolio_state SET is_active = false WHERE is_active = true`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO portfolio_state (document, is_active, updated_at)
		 VALUES ($1, true, NOW())`,
		data,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PortfolioRepo) Load(ctx context.Context) (*models.PortfolioDocument, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT document FROM portfolio_state WHERE is_active = true ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&data)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, err
	}

	var doc models.PortfolioDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal portfolio document: %w", err)
	}
	return &doc, nil
}
