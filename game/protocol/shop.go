package protocol

import (
	"context"
	"fmt"

	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/model"
)

// ShopLoad sends one zero-based page of a shop's catalogue.
func (h *Handler) ShopLoad(ctx context.Context, s *session.Session, req packet.ShopLoadReq) error {
	if !s.State().InShard() {
		h.skip(s, packet.TypeShopLoad, "not in shard")
		return nil
	}
	page := req.Page
	if page < 0 {
		page = 0
	}
	shop, items, total, err := h.store.ShopPage(ctx, req.ShopID, page, h.cfg.ShopPageSize)
	if err != nil {
		return fmt.Errorf("shop load: %w", err)
	}
	if items == nil {
		items = []model.ShopItem{}
	}
	h.bc.SendTo(s, packet.TypeSendShopLoadBatch, packet.SendShopLoadBatch{
		ShopID: shop.ID,
		Name:   shop.Name,
		Page:   page,
		Total:  total,
		Items:  items,
	})
	return nil
}

// ShopBuy is not supported; the client is told so and the connection stays open.
func (h *Handler) ShopBuy(context.Context, *session.Session, packet.ShopBuyReq) error {
	return &Rejection{Kind: KindUnsupported, Message: MsgShopUnsupported, Notify: true}
}
