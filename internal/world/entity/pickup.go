package entity

import (
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

// Параметры физики предметов
const (
	Gravity         = 9.81
	Drag            = 2.0 // Доля скорости, теряемая за секунду
	CollectDistance = 0.5
	BodyRadius      = 0.5 // Радиус тела игрока для столкновений с предметами
)

// Body - тело, с которым сталкиваются предметы
type Body struct {
	ID       uint64
	Position vec.Vec3Float
}

// Pickup - подбираемый предмет
type Pickup struct {
	Entity
	BlockType   block.BlockType
	Count       int
	Age         time.Duration
	PickupDelay time.Duration
	MagnetRange float64
	MagnetSpeed float64
	IgnoreBody  uint64
}

// NewPickup создаёт предмет по описанию из мира
func NewPickup(id uint64, spec world.PickupSpec) *Pickup {
	p := &Pickup{
		Entity:      *NewEntity(id, EntityTypeItem, spec.Position),
		BlockType:   spec.Type,
		Count:       spec.Count,
		PickupDelay: spec.PickupDelay,
		MagnetRange: spec.MagnetRange,
		MagnetSpeed: spec.MagnetSpeed,
		IgnoreBody:  spec.IgnoreBody,
	}
	p.Velocity = spec.Impulse
	return p
}

// Collectable сообщает, истекла ли задержка подбора
func (p *Pickup) Collectable() bool {
	return p.Age >= p.PickupDelay
}

// Update продвигает предмет на dt. Если задержка истекла и игрок в радиусе магнита,
// предмет летит к нему. Возвращает true, когда предмет подобран.
func (p *Pickup) Update(api EntityAPI, dt time.Duration, target Body, hasTarget bool) bool {
	p.Age += dt
	sec := dt.Seconds()

	if hasTarget && p.Collectable() {
		dist := p.Position.DistanceTo(target.Position)
		if dist <= CollectDistance {
			return true
		}
		if dist <= p.MagnetRange {
			p.Velocity = vec.Vec3Float{}
			p.Position = p.Position.MoveTowards(target.Position, p.MagnetSpeed*sec)
			return p.Position.DistanceTo(target.Position) <= CollectDistance
		}
	}

	var bodies []Body
	if hasTarget {
		bodies = append(bodies, target)
	}
	p.applyPhysics(api, sec, bodies)
	return false
}

// collides проверяет, упирается ли позиция в одно из тел. Тело IgnoreBody пропускается.
func (p *Pickup) collides(pos vec.Vec3Float, bodies []Body) bool {
	for _, b := range bodies {
		if b.ID == p.IgnoreBody {
			continue
		}
		if pos.DistanceTo(b.Position) < BodyRadius {
			return true
		}
	}
	return false
}

// applyPhysics - гравитация и сопротивление; падение останавливается на твёрдом блоке,
// горизонтальное движение - на теле
func (p *Pickup) applyPhysics(api EntityAPI, sec float64, bodies []Body) {
	p.Velocity.Y -= Gravity * sec
	damp := 1 - Drag*sec
	if damp < 0 {
		damp = 0
	}
	p.Velocity.X *= damp
	p.Velocity.Z *= damp

	next := p.Position.Add(p.Velocity.Mul(sec))
	if api != nil && p.Velocity.Y < 0 && api.IsSolid(next.Sub(vec.Vec3Float{Y: 0.5}).Round()) {
		next.Y = p.Position.Y
		p.Velocity.Y = 0
	}
	if p.collides(next, bodies) {
		next.X, next.Z = p.Position.X, p.Position.Z
		p.Velocity.X, p.Velocity.Z = 0, 0
	}
	p.Position = next
}
