package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kasuganosora/my2dworld/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrUsernameTaken is returned by CreateUser for a duplicate username.
var ErrUsernameTaken = errors.New("store: username already taken")

// compareHash is swapped in tests to observe credential checks.
var compareHash = bcrypt.CompareHashAndPassword

// GormStore implements Gateway on top of gorm.
type GormStore struct {
	db *gorm.DB

	hashCost  int
	dummyOnce sync.Once
	dummy     []byte
}

// New creates a GormStore.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db, hashCost: bcrypt.DefaultCost}
}

// WithHashCost sets the bcrypt cost of the stand-in hash compared for unknown
// usernames. It should match the cost user passwords are hashed with.
func (s *GormStore) WithHashCost(cost int) *GormStore {
	if cost > 0 {
		s.hashCost = cost
	}
	return s
}

// dummyHash is compared when the username does not exist, so a miss costs as
// much as a wrong password.
func (s *GormStore) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("my2dworld-no-such-user"), s.hashCost)
		if err != nil {
			h, _ = bcrypt.GenerateFromPassword([]byte("my2dworld-no-such-user"), bcrypt.DefaultCost)
		}
		s.dummy = h
	})
	return s.dummy
}

func notFound(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("%s %v: %w", what, id, err)
}

func (s *GormStore) UserByCredentials(ctx context.Context, username, password string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = compareHash(s.dummyHash(), []byte(password))
		}
		return nil, notFound(err, "user", username)
	}
	if err := compareHash([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("user %v: %w", username, ErrNotFound)
	}
	return &u, nil
}

func (s *GormStore) UserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (s *GormStore) UpdateUserFields(ctx context.Context, u *model.User, fields ...string) error {
	if len(fields) == 0 {
		return errors.New("store: no fields to update")
	}
	if err := s.db.WithContext(ctx).Model(u).Select(fields).Updates(u).Error; err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *GormStore) CreateUser(ctx context.Context, username, password string, cost int) (*model.User, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, PasswordHash: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(u).Error
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *GormStore) Shard(ctx context.Context, id int64) (*model.Shard, error) {
	var sh model.Shard
	if err := s.db.WithContext(ctx).First(&sh, id).Error; err != nil {
		return nil, notFound(err, "shard", id)
	}
	return &sh, nil
}

// Shards lists every shard in ID order.
func (s *GormStore) Shards(ctx context.Context) ([]model.Shard, error) {
	var out []model.Shard
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *GormStore) Game(ctx context.Context, id int64) (*model.Game, error) {
	var g model.Game
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err, "game", id)
	}
	return &g, nil
}

func (s *GormStore) Map(ctx context.Context, id int64) (*model.Map, error) {
	var m model.Map
	err := s.db.WithContext(ctx).
		Preload("Exits").
		Preload("Npcs.Npc.Speeches").
		First(&m, id).Error
	if err != nil {
		return nil, notFound(err, "map", id)
	}
	return &m, nil
}

func (s *GormStore) InventoryItem(ctx context.Context, userID, itemID int64) (*model.Item, error) {
	var entry model.InventoryEntry
	err := s.db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err, "inventory item", itemID)
	}
	if entry.Item == nil {
		return nil, fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
	}
	return entry.Item, nil
}

func (s *GormStore) InventoryPage(ctx context.Context, userID int64, offset, limit int) ([]model.InventoryEntry, int64, error) {
	if offset < 0 {
		offset = 0
	}
	q := s.db.WithContext(ctx).Model(&model.InventoryEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []model.InventoryEntry
	err := s.db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ?", userID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *GormStore) Items(ctx context.Context, ids []int64) ([]model.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []model.Item
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&items).Error
	return items, err
}

func (s *GormStore) ShopPage(ctx context.Context, shopID int64, page, size int) (*model.Shop, []model.ShopItem, int64, error) {
	var shop model.Shop
	if err := s.db.WithContext(ctx).First(&shop, shopID).Error; err != nil {
		return nil, nil, 0, notFound(err, "shop", shopID)
	}
	if page < 0 {
		page = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.ShopItem{}).Where("shop_id = ?", shopID).Count(&total).Error; err != nil {
		return nil, nil, 0, err
	}
	var items []model.ShopItem
	err := s.db.WithContext(ctx).
		Preload("Item").
		Where("shop_id = ?", shopID).
		Order("id").
		Offset(page * size).
		Limit(size).
		Find(&items).Error
	if err != nil {
		return nil, nil, 0, err
	}
	return &shop, items, total, nil
}
