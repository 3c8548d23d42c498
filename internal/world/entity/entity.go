package entity

import (
	"github.com/annel0/blockworld/internal/vec"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeItem              // Подбираемый предмет
)

func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeItem:
		return "item"
	default:
		return "unknown"
	}
}

// Entity представляет базовую сущность в мире
type Entity struct {
	ID       uint64        // Уникальный идентификатор сущности
	Type     EntityType    // Тип сущности
	Position vec.Vec3Float // Текущая позиция в мире
	Velocity vec.Vec3Float // Текущая скорость
	Active   bool          // Активна ли сущность
}

// NewEntity создаёт новую сущность
func NewEntity(id uint64, entityType EntityType, position vec.Vec3Float) *Entity {
	return &Entity{
		ID:       id,
		Type:     entityType,
		Position: position,
		Active:   true,
	}
}

// EntityAPI предоставляет интерфейс для взаимодействия сущностей с миром
type EntityAPI interface {
	// IsSolid сообщает, занята ли позиция твёрдым блоком
	IsSolid(p vec.Vec3) bool
}
