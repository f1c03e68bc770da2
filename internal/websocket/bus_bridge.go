package websocket

import (
	"context"
	"encoding/json"

	"amen-chat/internal/events"
)

// BusBridge drains the in-process event bus and delivers each event to the
// sockets of its named recipients. Recipients never travel over the wire.
type BusBridge struct {
	bus *events.Bus
	hub *Hub
}

func NewBusBridge(bus *events.Bus, hub *Hub) *BusBridge {
	return &BusBridge{bus: bus, hub: hub}
}

func (b *BusBridge) Run(ctx context.Context) {
	sub := b.bus.SubscribeBuffered(256)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			for _, userID := range evt.Recipients {
				b.hub.BroadcastToUser(userID, payload)
			}
		}
	}
}
