package world

import (
	"context"
	"errors"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"go.opentelemetry.io/otel/attribute"
)

// DestroyResult - итог сноса блока
type DestroyResult struct {
	Previous block.BlockType // Тип блока до сноса
	PickupID uint64          // 0 - предмет не выпал
	Count    int
}

// RegisterDestruction сносит блок: журнал, сохранение, снятие экземпляра,
// пробуждение соседей и выпадение предмета. Повторный снос безопасен.
func (w *World) RegisterDestruction(ctx context.Context, p vec.Vec3) DestroyResult {
	ctx, span := w.tracer.Start(ctx, "world.RegisterDestruction")
	defer span.End()
	span.SetAttributes(attribute.Int("x", p.X), attribute.Int("y", p.Y), attribute.Int("z", p.Z))

	w.mu.Lock()
	res := DestroyResult{Previous: w.oracle.ResolveType(p)}

	w.ledger.MarkDestroyed(p)
	w.persistLedger(ctx)

	w.instances.Remove(p)
	w.metrics.instances.Set(float64(w.instances.Len()))
	w.wake(p)
	w.mu.Unlock()

	w.metrics.edits.WithLabelValues("destroy").Inc()
	w.publish(ctx, EventBlockDestroyed, BlockEvent{WorldID: w.id, Pos: p, Type: res.Previous.String()})

	// Предмет создаётся вне блокировки мира: спаунер сам обращается к миру за твёрдостью
	if res.Previous != block.None {
		id, count, err := w.economy.SpawnDrop(p, res.Previous)
		switch {
		case errors.Is(err, ErrNoSpawner):
			w.log.Debug("Предмет %s не создан: нет спаунера", res.Previous)
		case err != nil:
			w.log.Warn("Не удалось создать предмет %s в %v: %v", res.Previous, p, err)
		case count > 0:
			res.PickupID, res.Count = id, count
			w.metrics.drops.WithLabelValues("drop").Inc()
			w.publish(ctx, EventItemDropped, DropEvent{
				WorldID: w.id, PickupID: id, Type: res.Previous.String(), Count: count, Position: p.ToFloat(),
			})
		}
	}

	span.SetAttributes(attribute.String("previous", res.Previous.String()))
	return res
}

// PlaceTile ставит блок t в позицию p. Соседи не скрываются.
func (w *World) PlaceTile(ctx context.Context, p vec.Vec3, t block.BlockType) error {
	ctx, span := w.tracer.Start(ctx, "world.PlaceTile")
	defer span.End()
	span.SetAttributes(attribute.Int("x", p.X), attribute.Int("y", p.Y), attribute.Int("z", p.Z),
		attribute.String("type", t.String()))

	if !t.Valid() {
		return ErrUnknownBlockType
	}
	if t == block.None {
		return ErrAirPlacement
	}

	w.mu.Lock()
	w.ledger.MarkPlaced(p, t)
	w.persistLedger(ctx)

	// Жидкость в позиции вытесняется поставленным блоком
	if inst, ok := w.instances.Get(p); ok && inst.Type != t && w.blocks.IsFluid(inst.Type) {
		w.instances.Remove(p)
	}
	w.realize(p, t)
	w.mu.Unlock()

	w.metrics.edits.WithLabelValues("place").Inc()
	w.publish(ctx, EventBlockPlaced, BlockEvent{WorldID: w.id, Pos: p, Type: t.String()})
	return nil
}

// HitResult - итог удара по блоку
type HitResult struct {
	Type      block.BlockType
	Remaining int           // оставшаяся прочность
	Destroyed bool          // блок разбит и снесён через RegisterDestruction
	Drop      DestroyResult // заполнен при Destroyed
}

// Hit наносит урон материализованному блоку. Неразбиваемые блоки удары
// не принимают. Когда прочность кончается, блок сносится как RegisterDestruction.
func (w *World) Hit(ctx context.Context, p vec.Vec3, damage int) (HitResult, error) {
	if damage <= 0 {
		return HitResult{}, ErrInvalidDamage
	}

	w.mu.Lock()
	inst, ok := w.instances.Get(p)
	if !ok {
		w.mu.Unlock()
		return HitResult{}, ErrNotRealized
	}
	res := HitResult{Type: inst.Type}
	if !w.blocks.IsMineable(inst.Type) {
		w.mu.Unlock()
		return res, ErrNotMineable
	}

	dealt, _ := w.instances.AddDamage(p, damage)
	res.Remaining = w.blocks.Durability(inst.Type) - dealt
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	w.mu.Unlock()

	w.metrics.edits.WithLabelValues("hit").Inc()
	if res.Remaining > 0 {
		return res, nil
	}

	res.Destroyed = true
	res.Drop = w.RegisterDestruction(ctx, p)
	return res, nil
}

// ThrowItem бросает предмет от origin с импульсом
func (w *World) ThrowItem(ctx context.Context, origin vec.Vec3Float, t block.BlockType, count int, impulse vec.Vec3Float) (uint64, error) {
	ctx, span := w.tracer.Start(ctx, "world.ThrowItem")
	defer span.End()

	id, err := w.economy.Throw(origin, t, count, impulse)
	if err != nil {
		return 0, err
	}

	w.metrics.drops.WithLabelValues("throw").Inc()
	w.publish(ctx, EventItemDropped, DropEvent{
		WorldID: w.id, PickupID: id, Type: t.String(), Count: count, Position: origin, Thrown: true,
	})
	return id, nil
}

// wake материализует твёрдых незарегистрированных соседей p. Ничего не снимает.
func (w *World) wake(p vec.Vec3) {
	for _, n := range p.Neighbors() {
		if w.instances.Has(n) || !w.oracle.IsSolid(n) {
			continue
		}
		w.realize(n, w.oracle.ResolveType(n))
	}
}
