package entity

import (
	"sync"

	"github.com/annel0/blockworld/internal/vec"
)

// Player - тело игрока-наблюдателя. Относительно него считается дальность
// прорисовки и к нему притягиваются предметы.
type Player struct {
	mu        sync.RWMutex
	entity    Entity
	available bool
}

// NewPlayer создаёт игрока в указанной позиции
func NewPlayer(id uint64, position vec.Vec3Float) *Player {
	return &Player{
		entity:    *NewEntity(id, EntityTypePlayer, position),
		available: true,
	}
}

// Position возвращает позицию игрока; false - игрок недоступен (вышел, удалён)
func (p *Player) Position() (vec.Vec3Float, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entity.Position, p.available
}

// Teleport мгновенно перемещает игрока
func (p *Player) Teleport(pos vec.Vec3Float) {
	p.mu.Lock()
	p.entity.Position = pos
	p.mu.Unlock()
}

// ResetVelocity гасит скорость игрока
func (p *Player) ResetVelocity() {
	p.mu.Lock()
	p.entity.Velocity = vec.Vec3Float{}
	p.mu.Unlock()
}

// BodyID возвращает идентификатор тела для фильтра коллизий
func (p *Player) BodyID() uint64 {
	return p.entity.ID
}

// SetAvailable помечает игрока доступным или недоступным
func (p *Player) SetAvailable(available bool) {
	p.mu.Lock()
	p.available = available
	p.mu.Unlock()
}
