package model

type Shop struct {
	ID    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string     `gorm:"size:64" json:"name"`
	Items []ShopItem `gorm:"foreignKey:ShopID" json:"-"`
}

// ShopItem lists one Item for sale in a Shop. Entries are ordered by ID.
type ShopItem struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID int64 `gorm:"index;not null" json:"shop_id"`
	ItemID int64 `gorm:"not null" json:"item_id"`
	Item   *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
