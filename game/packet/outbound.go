package packet

import "github.com/kasuganosora/my2dworld/model"

// ValidateAuthentication acknowledges or rejects an authenticate request.
type ValidateAuthentication struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Equipment lists the item id held by every equip slot, keyed by slot name.
type Equipment map[string]*int64

// NewEquipment snapshots the equip slots of u.
func NewEquipment(u *model.User) Equipment {
	eq := make(Equipment, len(model.ItemTypes))
	for _, t := range model.ItemTypes {
		eq[t.String()] = u.EquippedItem(t)
	}
	return eq
}

// PushUserInformation is sent after a shard join.
type PushUserInformation struct {
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	LastLocationID *int64    `json:"last_location_id"`
	Equipment      Equipment `json:"equipment"`
	// EquippedItems resolves the item ids in Equipment.
	EquippedItems []model.Item `json:"equipped_items"`
}

// RoomPlayer describes another player present in a map room.
type RoomPlayer struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
}

// ChangeMap moves the client to a map. ExitID 0 means the map spawn, -1 the
// last position before a game was entered.
type ChangeMap struct {
	MapID   int64        `json:"map_id"`
	ExitID  int64        `json:"exit_id"`
	Map     *model.Map   `json:"map,omitempty"`
	Players []RoomPlayer `json:"players"`
}

type UpdatePosition struct {
	UserID int64   `json:"user_id"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
}

type PlayerJoinedRoom struct {
	RoomPlayer
	Equipment Equipment `json:"equipment,omitempty"`
}

type PlayerExitRoom struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type PlayerSpeech struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type PlayerGameLoad struct {
	Game *model.Game `json:"game"`
}

type SendInventoryBatch struct {
	Offset int                    `json:"offset"`
	Total  int64                  `json:"total"`
	Items  []model.InventoryEntry `json:"items"`
}

// EquippedItem is the loadout entry of a PlayerEquipItem.
type EquippedItem struct {
	ID       int64          `json:"id"`
	Type     model.ItemType `json:"type"`
	FilePath string         `json:"file_path"`
}

type PlayerEquipItem struct {
	UserID   int64        `json:"user_id"`
	Username string       `json:"username"`
	Item     EquippedItem `json:"item"`
}

type PlayerUnequipItem struct {
	UserID   int64          `json:"user_id"`
	Username string         `json:"username"`
	ItemType model.ItemType `json:"item_type"`
}

type SendShopLoadBatch struct {
	ShopID int64            `json:"shop_id"`
	Name   string           `json:"name"`
	Page   int              `json:"page"`
	Total  int64            `json:"total"`
	Items  []model.ShopItem `json:"items"`
}

type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Announcement struct {
	Message string `json:"message"`
}
