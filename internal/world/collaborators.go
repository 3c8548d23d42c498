package world

import (
	"context"
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Handle - представление материализованного блока (визуал + коллизия)
type Handle interface {
	// Valid сообщает, живо ли ещё представление
	Valid() bool
	Active() bool
	SetActive(active bool)
	// Release уничтожает представление
	Release()
}

// Realizer создаёт представления блоков
type Realizer interface {
	Realize(pos vec.Vec3, t block.BlockType, representation string) (Handle, error)
}

// Observer - игрок или камера, относительно которых считается дальность прорисовки
type Observer interface {
	// Position возвращает позицию наблюдателя; false - наблюдатель недоступен
	Position() (vec.Vec3Float, bool)
	Teleport(pos vec.Vec3Float)
	ResetVelocity()
	BodyID() uint64
}

// PickupSpec описывает подбираемый предмет
type PickupSpec struct {
	Type        block.BlockType
	Count       int
	Position    vec.Vec3Float
	Impulse     vec.Vec3Float
	PickupDelay time.Duration
	MagnetRange float64
	MagnetSpeed float64
	IgnoreBody  uint64 // 0 - не игнорировать
}

// PickupSpawner создаёт подбираемые предметы в мире
type PickupSpawner interface {
	SpawnPickup(spec PickupSpec) (uint64, error)
}

// EventSink принимает события мира (шина событий)
type EventSink interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// LedgerStore сохраняет журнал изменений и сид мира
type LedgerStore interface {
	LoadLedger(ctx context.Context, worldID string) (*Ledger, error)
	SaveLedger(ctx context.Context, worldID string, ledger *Ledger) error
	// LoadSeed возвращает сохранённые смещения; false - сид ещё не создан
	LoadSeed(ctx context.Context, worldID string) (Seed, bool, error)
	SaveSeed(ctx context.Context, worldID string, seed Seed) error
	// Reset удаляет все ключи мира
	Reset(ctx context.Context, worldID string) error
}
