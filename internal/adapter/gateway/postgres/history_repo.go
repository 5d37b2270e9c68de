package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

// HistoryRepo owns the write path to "PriceHistory" and "Sale". Both tables
// are append-only from the worker's point of view.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// LatestRaps picks each item's newest snapshot (ties broken by id, so
// reruns see the same row) and keeps it only when that snapshot actually
// carries a RAP. An item whose latest snapshot has a null RAP is treated as
// having no prior reference at all.
func (r *HistoryRepo) LatestRaps(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON ("itemId") "itemId", rap
		FROM "PriceHistory"
		ORDER BY "itemId", timestamp DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var rap sql.NullFloat64
		if err := rows.Scan(&itemID, &rap); err != nil {
			return nil, err
		}
		if rap.Valid {
			out[itemID] = rap.Float64
		}
	}
	return out, rows.Err()
}

// Persist writes this cycle's rows inside one transaction: a snapshot per
// result with a usable price, a synthetic sale per RAP change. Any failure
// rolls the whole cycle back, so history never carries a partial cycle.
func (r *HistoryRepo) Persist(ctx context.Context, results []prices.Result, cycleTime time.Time) (snapshots, sales int, err error) {
	if len(results) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	insSnapshot, err := tx.PrepareContext(ctx, `
		INSERT INTO "PriceHistory" (id, "itemId", price, rap, "lowestResale", "salesVolume", timestamp)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer insSnapshot.Close()

	insSale, err := tx.PrepareContext(ctx, `
		INSERT INTO "Sale" (id, "itemId", "salePrice", "sellerUsername", "buyerUsername", "serialNumber", "saleDate")
		VALUES ($1, $2, $3, NULL, NULL, NULL, $4)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("prepare sale insert: %w", err)
	}
	defer insSale.Close()

	for _, res := range results {
		if res.Price == nil && res.Rap == nil {
			continue
		}
		if _, err = insSnapshot.ExecContext(ctx,
			uuid.NewString(), res.ItemID, res.Price, res.Rap, res.LowestResale, cycleTime,
		); err != nil {
			return 0, 0, fmt.Errorf("insert snapshot for %s: %w", res.ItemID, err)
		}
		snapshots++

		if res.RapChanged && res.Rap != nil {
			if _, err = insSale.ExecContext(ctx,
				uuid.NewString(), res.ItemID, *res.Rap, cycleTime,
			); err != nil {
				return 0, 0, fmt.Errorf("insert sale for %s: %w", res.ItemID, err)
			}
			sales++
		}
	}
	return snapshots, sales, nil
}
