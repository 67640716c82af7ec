package model

import (
	"fmt"
	"time"
)

// User is a player account together with its persisted world state.
type User struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash   string `gorm:"size:64;not null" json:"-"`
	LastLocationID *int64 `json:"last_location_id"`

	HeadItemID      *int64 `json:"head_item_id"`
	BodyItemID      *int64 `json:"body_item_id"`
	LegsItemID      *int64 `json:"legs_item_id"`
	FeetItemID      *int64 `json:"feet_item_id"`
	WeaponItemID    *int64 `json:"weapon_item_id"`
	AccessoryItemID *int64 `json:"accessory_item_id"`

	Inventory []InventoryEntry `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Column names of the persisted user fields that handlers update selectively.
const (
	ColLastLocationID = "last_location_id"
)

// SlotColumn returns the database column holding the equip slot for t.
func SlotColumn(t ItemType) (string, error) {
	switch t {
	case ItemTypeHead:
		return "head_item_id", nil
	case ItemTypeBody:
		return "body_item_id", nil
	case ItemTypeLegs:
		return "legs_item_id", nil
	case ItemTypeFeet:
		return "feet_item_id", nil
	case ItemTypeWeapon:
		return "weapon_item_id", nil
	case ItemTypeAccessory:
		return "accessory_item_id", nil
	}
	return "", fmt.Errorf("model: no equip slot for item type %d", t)
}

// slot returns a pointer to the slot field for t, or nil for an unknown type.
func (u *User) slot(t ItemType) **int64 {
	switch t {
	case ItemTypeHead:
		return &u.HeadItemID
	case ItemTypeBody:
		return &u.BodyItemID
	case ItemTypeLegs:
		return &u.LegsItemID
	case ItemTypeFeet:
		return &u.FeetItemID
	case ItemTypeWeapon:
		return &u.WeaponItemID
	case ItemTypeAccessory:
		return &u.AccessoryItemID
	}
	return nil
}

// EquippedItem returns the item id held in the slot for t, or nil when empty.
func (u *User) EquippedItem(t ItemType) *int64 {
	if p := u.slot(t); p != nil {
		return *p
	}
	return nil
}

// SetEquippedItem stores itemID (nil clears) in the slot for t.
func (u *User) SetEquippedItem(t ItemType, itemID *int64) error {
	p := u.slot(t)
	if p == nil {
		return fmt.Errorf("model: no equip slot for item type %d", t)
	}
	*p = itemID
	return nil
}

// EquippedItemIDs returns the non-empty slot values in ItemTypes order.
func (u *User) EquippedItemIDs() []int64 {
	ids := make([]int64, 0, len(ItemTypes))
	for _, t := range ItemTypes {
		if id := u.EquippedItem(t); id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}
