package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated. Referenced tables come first.
var allModels = []interface{}{
	&Item{},
	&User{},
	&InventoryEntry{},
	&Shard{},
	&Npc{},
	&NpcSpeech{},
	&Map{},
	&MapExit{},
	&MapNpc{},
	&Game{},
	&Shop{},
	&ShopItem{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables in the given database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}
