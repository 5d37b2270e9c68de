package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/v01dsy/azurewrath/internal/domain/items"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

// QueryRepo backs the read-only HTTP API. Lookups accept the internal id or
// the Roblox asset id, matching what the web app links by.
type QueryRepo struct {
	db *sql.DB
}

func NewQueryRepo(db *sql.DB) *QueryRepo { return &QueryRepo{db: db} }

const latestJoin = `
	SELECT i.id, i."assetId", i.name, ph.price, ph.rap, ph."lowestResale", ph.timestamp
	FROM "Item" i
	LEFT JOIN LATERAL (
		SELECT price, rap, "lowestResale", timestamp
		FROM "PriceHistory"
		WHERE "itemId" = i.id
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	) ph ON TRUE
`

func (r *QueryRepo) ListItems(ctx context.Context) ([]prices.ItemDetail, error) {
	rows, err := r.db.QueryContext(ctx, latestJoin+` ORDER BY i.name, i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prices.ItemDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *QueryRepo) GetItem(ctx context.Context, idOrAssetID string) (prices.ItemDetail, error) {
	row := r.db.QueryRowContext(ctx, latestJoin+` WHERE i.id = $1 OR i."assetId" = $1`, idOrAssetID)
	d, err := scanDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return prices.ItemDetail{}, items.ErrNotFound
	}
	return d, err
}

func (r *QueryRepo) History(ctx context.Context, idOrAssetID string, limit int) ([]prices.Snapshot, error) {
	itemID, err := r.resolveID(ctx, idOrAssetID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, "itemId", price, rap, "lowestResale", "salesVolume", timestamp
		FROM "PriceHistory"
		WHERE "itemId" = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prices.Snapshot
	for rows.Next() {
		var s prices.Snapshot
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Price, &s.Rap, &s.LowestResale, &s.SalesVolume, &s.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *QueryRepo) Sales(ctx context.Context, idOrAssetID string) ([]prices.Sale, error) {
	itemID, err := r.resolveID(ctx, idOrAssetID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, "itemId", "salePrice", "sellerUsername", "buyerUsername", "serialNumber", "saleDate"
		FROM "Sale"
		WHERE "itemId" = $1
		ORDER BY "saleDate" DESC, id DESC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prices.Sale
	for rows.Next() {
		var s prices.Sale
		if err := rows.Scan(&s.ID, &s.ItemID, &s.SalePrice, &s.SellerUsername, &s.BuyerUsername, &s.SerialNumber, &s.SaleDate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *QueryRepo) resolveID(ctx context.Context, idOrAssetID string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM "Item" WHERE id = $1 OR "assetId" = $1`, idOrAssetID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", items.ErrNotFound
	}
	return id, err
}

type scanner interface{ Scan(dest ...any) error }

func scanDetail(s scanner) (prices.ItemDetail, error) {
	var d prices.ItemDetail
	var ts sql.NullTime
	if err := s.Scan(&d.ID, &d.AssetID, &d.Name, &d.Price, &d.Rap, &d.LowestResale, &ts); err != nil {
		return prices.ItemDetail{}, err
	}
	if ts.Valid {
		t := ts.Time
		d.LastUpdated = &t
	}
	return d, nil
}
