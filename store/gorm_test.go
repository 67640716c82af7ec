package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/kasuganosora/my2dworld/model"
	"github.com/kasuganosora/my2dworld/store"
	"github.com/kasuganosora/my2dworld/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserByCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", "pw1")

	u, err := s.UserByCredentials(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = s.UserByCredentials(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UserByCredentials(ctx, "bob", "pw1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserByID_NotFound(t *testing.T) {
	s := store.New(testutil.SetupTestDB(t))
	_, err := s.UserByID(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateUserFields_OnlyNamedColumns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "carol", "pw")

	loc := int64(7)
	weapon := int64(3)
	u.LastLocationID = &loc
	u.WeaponItemID = &weapon
	require.NoError(t, s.UpdateUserFields(ctx, u, model.ColLastLocationID))

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLocationID)
	assert.Equal(t, int64(7), *got.LastLocationID)
	assert.Nil(t, got.WeaponItemID, "unselected column must not be written")

	// Clearing a slot writes NULL.
	col, err := model.SlotColumn(model.ItemTypeWeapon)
	require.NoError(t, err)
	require.NoError(t, s.UpdateUserFields(ctx, u, col))
	u.WeaponItemID = nil
	require.NoError(t, s.UpdateUserFields(ctx, u, col))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.WeaponItemID)
}

func TestUpdateUserFields_NoFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	u := testutil.SeedUser(t, db, "dave", "pw")
	assert.Error(t, store.New(db).UpdateUserFields(context.Background(), u))
}

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "erin", "secret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", u.PasswordHash)

	_, err = s.UserByCredentials(ctx, "erin", "secret")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "erin", "other", bcrypt.MinCost)
	assert.ErrorIs(t, err, store.ErrUsernameTaken)
}

func TestShardGameMap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	sh := testutil.SeedShard(t, db, "alpha", 10)
	g := testutil.SeedGame(t, db, "snake")
	m := testutil.SeedMap(t, db, "town")
	require.NoError(t, db.Create(&model.MapExit{MapID: m.ID, TargetMapID: 2}).Error)

	gotShard, err := s.Shard(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, gotShard.MaxPlayers)

	gotGame, err := s.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "snake", gotGame.Name)

	gotMap, err := s.Map(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, gotMap.Exits, 1)

	shards, err := s.Shards(ctx)
	require.NoError(t, err)
	assert.Len(t, shards, 1)

	for _, err := range []error{
		func() error { _, err := s.Shard(ctx, 99); return err }(),
		func() error { _, err := s.Game(ctx, 99); return err }(),
		func() error { _, err := s.Map(ctx, 99); return err }(),
	} {
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestInventoryItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "frank", "pw")
	other := testutil.SeedUser(t, db, "gina", "pw")
	sword := testutil.SeedItem(t, db, "sword", model.ItemTypeWeapon)
	testutil.GiveItem(t, db, u, sword)

	it, err := s.InventoryItem(ctx, u.ID, sword.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemTypeWeapon, it.Type)

	_, err = s.InventoryItem(ctx, other.ID, sword.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInventoryPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "hank", "pw")

	var ids []int64
	for i := 0; i < 45; i++ {
		it := testutil.SeedItem(t, db, fmt.Sprintf("item%02d", i), model.ItemTypeHead)
		testutil.GiveItem(t, db, u, it)
		ids = append(ids, it.ID)
	}

	page, total, err := s.InventoryPage(ctx, u.ID, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(45), total)
	require.Len(t, page, 20)
	assert.Equal(t, ids[20], page[0].ItemID)
	assert.Equal(t, ids[39], page[19].ItemID)
	require.NotNil(t, page[0].Item)

	last, _, err := s.InventoryPage(ctx, u.ID, 40, 20)
	require.NoError(t, err)
	assert.Len(t, last, 5)

	neg, _, err := s.InventoryPage(ctx, u.ID, -5, 20)
	require.NoError(t, err)
	assert.Equal(t, ids[0], neg[0].ItemID)
}

func TestItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	a := testutil.SeedItem(t, db, "a", model.ItemTypeHead)
	b := testutil.SeedItem(t, db, "b", model.ItemTypeBody)

	items, err := s.Items(context.Background(), []int64{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)

	none, err := s.Items(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestShopPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	var items []*model.Item
	for i := 0; i < 7; i++ {
		items = append(items, testutil.SeedItem(t, db, fmt.Sprintf("ware%d", i), model.ItemTypeFeet))
	}
	shop := testutil.SeedShop(t, db, "market", items...)

	gotShop, page, total, err := s.ShopPage(ctx, shop.ID, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "market", gotShop.Name)
	assert.Equal(t, int64(7), total)
	require.Len(t, page, 2)
	assert.Equal(t, items[5].ID, page[0].ItemID)
	require.NotNil(t, page[0].Item)

	_, _, _, err = s.ShopPage(ctx, 999, 0, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
