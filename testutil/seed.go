package testutil

import (
	"testing"

	"github.com/kasuganosora/my2dworld/model"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedUser creates a user with a bcrypt hash of password (minimum cost).
func SeedUser(t *testing.T, db *gorm.DB, username, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{Username: username, PasswordHash: string(hash)}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedItem creates a catalogue item of the given type.
func SeedItem(t *testing.T, db *gorm.DB, name string, typ model.ItemType) *model.Item {
	t.Helper()
	it := &model.Item{Name: name, Type: typ, FilePath: "items/" + name + ".png"}
	require.NoError(t, db.Create(it).Error)
	return it
}

// GiveItem puts item into the user's inventory.
func GiveItem(t *testing.T, db *gorm.DB, u *model.User, it *model.Item) {
	t.Helper()
	require.NoError(t, db.Create(&model.InventoryEntry{UserID: u.ID, ItemID: it.ID}).Error)
}

// SeedShard creates a shard with the given capacity.
func SeedShard(t *testing.T, db *gorm.DB, name string, maxPlayers int) *model.Shard {
	t.Helper()
	sh := &model.Shard{Name: name, MaxPlayers: maxPlayers}
	require.NoError(t, db.Create(sh).Error)
	return sh
}

// SeedMap creates an empty map.
func SeedMap(t *testing.T, db *gorm.DB, name string) *model.Map {
	t.Helper()
	m := &model.Map{Name: name, FilePath: "maps/" + name + ".tmx"}
	require.NoError(t, db.Create(m).Error)
	return m
}

// SeedGame creates a mini-game definition.
func SeedGame(t *testing.T, db *gorm.DB, name string) *model.Game {
	t.Helper()
	g := &model.Game{Name: name, FilePath: "games/" + name}
	require.NoError(t, db.Create(g).Error)
	return g
}

// SeedShop creates a shop selling the given items in order.
func SeedShop(t *testing.T, db *gorm.DB, name string, items ...*model.Item) *model.Shop {
	t.Helper()
	shop := &model.Shop{Name: name}
	for _, it := range items {
		shop.Items = append(shop.Items, model.ShopItem{ItemID: it.ID})
	}
	require.NoError(t, db.Create(shop).Error)
	return shop
}
