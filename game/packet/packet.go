// Package packet defines the JSON wire envelope and the payloads of every
// inbound and outbound protocol message.
package packet

import "encoding/json"

// Packet is the unified WS message envelope.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types.
const (
	TypeAuthenticate          = "authenticate"
	TypeChangeServer          = "change_server"
	TypeChatMessage           = "chat_message"
	TypeEquipItem             = "equip_item"
	TypeGameLoad              = "game_load"
	TypeGameProgressUpdate    = "game_progress_update"
	TypeGameQuit              = "game_quit"
	TypeMapChange             = "map_change"
	TypePlayerMove            = "player_move"
	TypeShopBuy               = "shop_buy"
	TypeShopLoad              = "shop_load"
	TypeRequestChangeServer   = "request_change_server"
	TypeRequestInventoryBatch = "request_inventory_batch"
)

// Outbound message types.
const (
	TypeValidateAuthentication = "validate_authentication"
	TypePushUserInformation    = "push_user_information"
	TypeChangeMap              = "change_map"
	TypeUpdatePosition         = "update_position"
	TypePlayerJoinedRoom       = "player_joined_room"
	TypePlayerExitRoom         = "player_exit_room"
	TypePlayerSpeech           = "player_speech"
	TypePlayerGameLoad         = "player_game_load"
	TypeSendInventoryBatch     = "send_inventory_batch"
	TypePlayerEquipItem        = "player_equip_item"
	TypePlayerUnequipItem      = "player_unequip_item"
	TypeSendShopLoadBatch      = "send_shop_load_batch"
	TypeError                  = "error"
	TypeAnnouncement           = "announcement"
)

// Encode marshals payload into an envelope of the given type.
func Encode(typ string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(&Packet{Type: typ, Payload: raw})
}

// Decode unmarshals the payload of pkt into v. An empty payload leaves v untouched.
func Decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
