// Package store is the storage gateway of the session layer: point lookups
// and selective updates of users, shards, maps, games, inventories and shops.
package store

import (
	"context"
	"errors"

	"github.com/kasuganosora/my2dworld/model"
)

// ErrNotFound is returned by every lookup whose record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Gateway is the storage boundary used by the protocol handler.
type Gateway interface {
	// UserByCredentials returns the user whose username and password match.
	// A wrong password reports ErrNotFound, same as an unknown username.
	UserByCredentials(ctx context.Context, username, password string) (*model.User, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)
	// UpdateUserFields persists only the named columns of u.
	UpdateUserFields(ctx context.Context, u *model.User, fields ...string) error

	Shard(ctx context.Context, id int64) (*model.Shard, error)
	Game(ctx context.Context, id int64) (*model.Game, error)
	Map(ctx context.Context, id int64) (*model.Map, error)

	// InventoryItem returns the item if userID owns it.
	InventoryItem(ctx context.Context, userID, itemID int64) (*model.Item, error)
	// InventoryPage returns entries [offset, offset+limit) in ID order and the total count.
	InventoryPage(ctx context.Context, userID int64, offset, limit int) ([]model.InventoryEntry, int64, error)
	Items(ctx context.Context, ids []int64) ([]model.Item, error)
	// ShopPage returns the shop and entries of the zero-based page in ID order, plus the total count.
	ShopPage(ctx context.Context, shopID int64, page, size int) (*model.Shop, []model.ShopItem, int64, error)
}
