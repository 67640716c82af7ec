package ws

import (
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/protocol"
)

// RegisterRoutes binds every inbound message type to its protocol handler.
func RegisterRoutes(r *Router, h *protocol.Handler) {
	r.On(packet.TypeAuthenticate, Bind(h.Authenticate))
	r.On(packet.TypeChangeServer, Bind(h.ChangeServer))
	r.On(packet.TypeChatMessage, Bind(h.ChatMessage))
	r.On(packet.TypeEquipItem, Bind(h.EquipItem))
	r.On(packet.TypeGameLoad, Bind(h.GameLoad))
	r.On(packet.TypeGameProgressUpdate, BindEmpty(h.GameProgressUpdate))
	r.On(packet.TypeGameQuit, BindEmpty(h.GameQuit))
	r.On(packet.TypeMapChange, Bind(h.MapChange))
	r.On(packet.TypePlayerMove, Bind(h.PlayerMove))
	r.On(packet.TypeShopBuy, Bind(h.ShopBuy))
	r.On(packet.TypeShopLoad, Bind(h.ShopLoad))
	r.On(packet.TypeRequestChangeServer, BindEmpty(h.RequestChangeServer))
	r.On(packet.TypeRequestInventoryBatch, Bind(h.RequestInventoryBatch))
}
