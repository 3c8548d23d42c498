package world

import (
	"fmt"
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Параметры подбираемых предметов
const (
	DropPickupDelay    = 500 * time.Millisecond
	ThrowPickupDelay   = 1500 * time.Millisecond
	DefaultMagnetRange = 3.0
	DefaultMagnetSpeed = 10.0
)

// Economy создаёт выпавшие и брошенные предметы
type Economy struct {
	spawner  PickupSpawner
	blocks   *block.Registry
	observer Observer

	MagnetRange float64
	MagnetSpeed float64
}

// NewEconomy создаёт экономику предметов
func NewEconomy(spawner PickupSpawner, blocks *block.Registry, observer Observer) *Economy {
	return &Economy{
		spawner:     spawner,
		blocks:      blocks,
		observer:    observer,
		MagnetRange: DefaultMagnetRange,
		MagnetSpeed: DefaultMagnetSpeed,
	}
}

func (e *Economy) ignoredBody() uint64 {
	if e.observer == nil {
		return 0
	}
	return e.observer.BodyID()
}

// SpawnDrop создаёт предмет от снесённого блока с количеством из определения.
// Нулевое количество - предмет не создаётся.
func (e *Economy) SpawnDrop(p vec.Vec3, t block.BlockType) (uint64, int, error) {
	count := e.blocks.DropCount(t)
	if t == block.None || count <= 0 {
		return 0, 0, nil
	}
	if e.spawner == nil {
		return 0, 0, ErrNoSpawner
	}

	id, err := e.spawner.SpawnPickup(PickupSpec{
		Type:        t,
		Count:       count,
		Position:    p.ToFloat(),
		PickupDelay: DropPickupDelay,
		MagnetRange: e.MagnetRange,
		MagnetSpeed: e.MagnetSpeed,
		IgnoreBody:  e.ignoredBody(),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("spawn drop %s: %w", t, err)
	}
	return id, count, nil
}

// Throw бросает count предметов типа t от origin с импульсом
func (e *Economy) Throw(origin vec.Vec3Float, t block.BlockType, count int, impulse vec.Vec3Float) (uint64, error) {
	if !t.Valid() || t == block.None {
		return 0, ErrUnknownBlockType
	}
	if count <= 0 {
		return 0, ErrInvalidCount
	}
	if e.spawner == nil {
		return 0, ErrNoSpawner
	}

	id, err := e.spawner.SpawnPickup(PickupSpec{
		Type:        t,
		Count:       count,
		Position:    origin,
		Impulse:     impulse,
		PickupDelay: ThrowPickupDelay,
		MagnetRange: e.MagnetRange,
		MagnetSpeed: e.MagnetSpeed,
		IgnoreBody:  e.ignoredBody(),
	})
	if err != nil {
		return 0, fmt.Errorf("throw %s: %w", t, err)
	}
	return id, nil
}
