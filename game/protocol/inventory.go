package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/my2dworld/game/broadcast"
	"github.com/kasuganosora/my2dworld/game/packet"
	"github.com/kasuganosora/my2dworld/game/session"
	"github.com/kasuganosora/my2dworld/model"
	"github.com/kasuganosora/my2dworld/store"
)

// EquipItem toggles an owned item in the slot of its type: an empty slot or a
// slot holding a different item is set to it, a slot already holding exactly
// this item is cleared. Only that slot's column is written.
func (h *Handler) EquipItem(ctx context.Context, s *session.Session, req packet.EquipItemReq) (err error) {
	st := s.State()
	if !st.InShard() {
		h.skip(s, packet.TypeEquipItem, "not in shard")
		return nil
	}
	start := time.Now()
	defer func() { h.record(s, st, packet.TypeEquipItem, start, req, err) }()

	item, err := h.store.InventoryItem(ctx, *st.UserID, req.ItemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Rejection{Kind: KindInvalidEquipItem, Message: MsgInvalidEquipItem, Err: err}
		}
		return fmt.Errorf("equip item: %w", err)
	}
	col, err := model.SlotColumn(item.Type)
	if err != nil {
		return &Rejection{Kind: KindInvalidEquipItem, Message: MsgInvalidEquipItem, Err: err}
	}
	u, err := h.store.UserByID(ctx, *st.UserID)
	if err != nil {
		return fmt.Errorf("equip item: %w", err)
	}

	equip := true
	if cur := u.EquippedItem(item.Type); cur != nil && *cur == item.ID {
		equip = false
	}
	if equip {
		id := item.ID
		err = u.SetEquippedItem(item.Type, &id)
	} else {
		err = u.SetEquippedItem(item.Type, nil)
	}
	if err != nil {
		return err
	}
	if err := h.store.UpdateUserFields(ctx, u, col); err != nil {
		return fmt.Errorf("equip item: %w", err)
	}

	if st.MapID == nil {
		return nil
	}
	room := broadcast.Room(*st.ShardID, *st.MapID)
	if equip {
		h.bc.SendToFiltered(room, packet.TypePlayerEquipItem, packet.PlayerEquipItem{
			UserID:   u.ID,
			Username: u.Username,
			Item:     packet.EquippedItem{ID: item.ID, Type: item.Type, FilePath: item.FilePath},
		})
	} else {
		h.bc.SendToFiltered(room, packet.TypePlayerUnequipItem, packet.PlayerUnequipItem{
			UserID:   u.ID,
			Username: u.Username,
			ItemType: item.Type,
		})
	}
	return nil
}

// RequestInventoryBatch sends one page of the caller's inventory starting at
// offset. Anonymous sessions get an empty page.
func (h *Handler) RequestInventoryBatch(ctx context.Context, s *session.Session, req packet.RequestInventoryBatchReq) error {
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	batch := packet.SendInventoryBatch{Offset: offset, Items: []model.InventoryEntry{}}

	st := s.State()
	if st.Authenticated {
		entries, total, err := h.store.InventoryPage(ctx, *st.UserID, offset, h.cfg.InventoryPageSize)
		if err != nil {
			return fmt.Errorf("inventory batch: %w", err)
		}
		if entries != nil {
			batch.Items = entries
		}
		batch.Total = total
	}
	h.bc.SendTo(s, packet.TypeSendInventoryBatch, batch)
	return nil
}
