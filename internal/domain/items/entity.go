package items

import (
	"context"
	"errors"
)

// ErrNotFound is returned by read paths when neither the internal id nor
// the Roblox asset id matches a tracked item.
var ErrNotFound = errors.New("item not found")

// Item is one tracked limited. The catalog is owned by the web app; the
// worker only ever reads it.
type Item struct {
	ID      string // cuid, primary key in "Item"
	AssetID string // Roblox asset id, used against the price sources
	Name    string
}

type Repo interface {
	LoadItems(ctx context.Context) ([]Item, error)
}
