package world

import (
	"context"

	"github.com/annel0/blockworld/internal/vec"
)

// Типы событий мира
const (
	EventBlockDestroyed = "block.destroyed"
	EventBlockPlaced    = "block.placed"
	EventItemDropped    = "item.dropped"
	EventWorldGenerated = "world.generated"
)

// BlockEvent описывает изменение блока
type BlockEvent struct {
	WorldID string   `json:"world_id"`
	Pos     vec.Vec3 `json:"pos"`
	Type    string   `json:"type"`
}

// DropEvent описывает выпавший или брошенный предмет
type DropEvent struct {
	WorldID  string        `json:"world_id"`
	PickupID uint64        `json:"pickup_id"`
	Type     string        `json:"type"`
	Count    int           `json:"count"`
	Position vec.Vec3Float `json:"position"`
	Thrown   bool          `json:"thrown"`
}

// GeneratedEvent публикуется по завершении генерации
type GeneratedEvent struct {
	WorldID    string  `json:"world_id"`
	Dimension  string  `json:"dimension"`
	Instances  int     `json:"instances"`
	LedgerSize int     `json:"ledger_size"`
	Seconds    float64 `json:"seconds"`
}

// publish отправляет событие, если шина подключена. Ошибки только логируются.
func (w *World) publish(ctx context.Context, eventType string, payload interface{}) {
	if w.events == nil {
		return
	}
	if err := w.events.Publish(ctx, eventType, payload); err != nil {
		w.log.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}

type pendingEvent struct {
	eventType string
	payload   interface{}
}

// enqueue откладывает событие до снятия блокировки мира. Вызывается под w.mu.
func (w *World) enqueue(eventType string, payload interface{}) {
	w.outbox = append(w.outbox, pendingEvent{eventType: eventType, payload: payload})
}

// takeOutbox забирает отложенные события. Вызывается под w.mu.
func (w *World) takeOutbox() []pendingEvent {
	out := w.outbox
	w.outbox = nil
	return out
}

// flush публикует отложенные события; блокировка мира уже снята
func (w *World) flush(ctx context.Context, events []pendingEvent) {
	for _, e := range events {
		w.publish(ctx, e.eventType, e.payload)
	}
}
