package packet

type AuthenticateReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangeServerReq struct {
	ServerID int64 `json:"server_id"`
}

type ChatMessageReq struct {
	Message string `json:"message"`
}

type EquipItemReq struct {
	ItemID int64 `json:"item_id"`
}

type GameLoadReq struct {
	GameID int64 `json:"game_id"`
}

type MapChangeReq struct {
	MapID  int64 `json:"map_id"`
	ExitID int64 `json:"exit_id"`
}

type PlayerMoveReq struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type ShopLoadReq struct {
	ShopID int64 `json:"shop_id"`
	Page   int   `json:"page"`
}

type ShopBuyReq struct {
	ShopID int64 `json:"shop_id"`
	ItemID int64 `json:"item_id"`
}

type RequestInventoryBatchReq struct {
	Offset int `json:"offset"`
}
