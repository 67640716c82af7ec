package model

import "time"

// ItemType is the equip category of an item. Every type owns exactly one
// equip slot on User.
type ItemType int

const (
	ItemTypeHead ItemType = iota
	ItemTypeBody
	ItemTypeLegs
	ItemTypeFeet
	ItemTypeWeapon
	ItemTypeAccessory
)

// ItemTypes lists every equip category in slot order.
var ItemTypes = []ItemType{
	ItemTypeHead,
	ItemTypeBody,
	ItemTypeLegs,
	ItemTypeFeet,
	ItemTypeWeapon,
	ItemTypeAccessory,
}

func (t ItemType) String() string {
	switch t {
	case ItemTypeHead:
		return "Head"
	case ItemTypeBody:
		return "Body"
	case ItemTypeLegs:
		return "Legs"
	case ItemTypeFeet:
		return "Feet"
	case ItemTypeWeapon:
		return "Weapon"
	case ItemTypeAccessory:
		return "Accessory"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the known equip categories.
func (t ItemType) Valid() bool {
	return t >= ItemTypeHead && t <= ItemTypeAccessory
}

// Item is a catalogue entry. FilePath points at the client-side sprite.
type Item struct {
	ID       int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string   `gorm:"size:64;not null" json:"name"`
	Type     ItemType `gorm:"not null" json:"type"`
	FilePath string   `gorm:"size:256" json:"file_path"`
}

// InventoryEntry is one owned item in a user's bag. Entries are ordered by ID.
type InventoryEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:idx_user_inventory;not null" json:"user_id"`
	ItemID    int64     `gorm:"index:idx_user_inventory;not null" json:"item_id"`
	Item      *Item     `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
