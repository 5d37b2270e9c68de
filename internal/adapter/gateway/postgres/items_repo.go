package postgres

import (
	"context"
	"database/sql"

	"github.com/v01dsy/azurewrath/internal/domain/items"
)

// ItemsRepo reads the item catalog. The "Item" table is owned by the web
// app (Prisma migrations); the worker never writes to it.
type ItemsRepo struct {
	db *sql.DB
}

func NewItemsRepo(db *sql.DB) *ItemsRepo { return &ItemsRepo{db: db} }

func (r *ItemsRepo) LoadItems(ctx context.Context) ([]items.Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, "assetId", name FROM "Item" ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []items.Item
	for rows.Next() {
		var it items.Item
		if err := rows.Scan(&it.ID, &it.AssetID, &it.Name); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
