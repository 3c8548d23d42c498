package entity

import (
	"testing"
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// floorAPI - мир с твёрдым полом на y <= 0
type floorAPI struct{}

func (floorAPI) IsSolid(p vec.Vec3) bool { return p.Y <= 0 }

var _ world.PickupSpawner = (*EntityManager)(nil)
var _ world.Observer = (*Player)(nil)

func dropSpec(pos vec.Vec3Float) world.PickupSpec {
	return world.PickupSpec{
		Type:        block.Dirt,
		Count:       2,
		Position:    pos,
		PickupDelay: world.DropPickupDelay,
		MagnetRange: world.DefaultMagnetRange,
		MagnetSpeed: world.DefaultMagnetSpeed,
		IgnoreBody:  1,
	}
}

func TestEntityManager_SpawnPickup(t *testing.T) {
	em := NewEntityManager(nil, nil)

	id, err := em.SpawnPickup(dropSpec(vec.Vec3Float{Y: 5}))
	require.NoError(t, err)
	assert.Greater(t, id, uint64(1000), "ID предметов начинаются после зарезервированных")

	p, ok := em.GetPickup(id)
	require.True(t, ok)
	assert.Equal(t, block.Dirt, p.BlockType)
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, uint64(1), p.IgnoreBody)

	_, err = em.SpawnPickup(world.PickupSpec{Type: block.Dirt})
	assert.Error(t, err, "предмет без количества не создаётся")

	assert.True(t, em.DespawnEntity(id))
	assert.False(t, em.DespawnEntity(id))
}

func TestEntityManager_PickupDelayAndMagnet(t *testing.T) {
	player := NewPlayer(1, vec.Vec3Float{X: 2, Y: 1, Z: 0})
	em := NewEntityManager(player, nil)

	id, err := em.SpawnPickup(dropSpec(vec.Vec3Float{X: 0, Y: 1, Z: 0}))
	require.NoError(t, err)

	// До истечения задержки предмет не притягивается
	collected := em.UpdateEntities(100*time.Millisecond, floorAPI{})
	assert.Zero(t, collected)
	p, ok := em.GetPickup(id)
	require.True(t, ok)
	assert.InDelta(t, 0, p.Position.X, 1e-9, "до задержки предмет не летит к игроку")

	total := 0
	for i := 0; i < 20; i++ {
		total += em.UpdateEntities(100*time.Millisecond, floorAPI{})
	}
	assert.Equal(t, 1, total, "предмет подобран")
	assert.Equal(t, 2, em.Inventory().Count(block.Dirt))
	_, ok = em.GetPickup(id)
	assert.False(t, ok)
}

func TestEntityManager_OutOfMagnetRange(t *testing.T) {
	player := NewPlayer(1, vec.Vec3Float{X: 50, Y: 1})
	em := NewEntityManager(player, nil)

	id, err := em.SpawnPickup(dropSpec(vec.Vec3Float{Y: 1}))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		em.UpdateEntities(100*time.Millisecond, floorAPI{})
	}
	p, ok := em.GetPickup(id)
	require.True(t, ok, "далёкий предмет не подбирается")
	assert.InDelta(t, 1, p.Position.Y, 1e-9, "предмет лежит на полу")
}

func TestEntityManager_UnavailablePlayer(t *testing.T) {
	player := NewPlayer(1, vec.Vec3Float{Y: 1})
	player.SetAvailable(false)
	em := NewEntityManager(player, nil)

	_, err := em.SpawnPickup(dropSpec(vec.Vec3Float{Y: 1}))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Zero(t, em.UpdateEntities(100*time.Millisecond, floorAPI{}))
	}
}

func TestPickup_ThrowImpulseDecays(t *testing.T) {
	spec := dropSpec(vec.Vec3Float{Y: 1})
	spec.Impulse = vec.Vec3Float{X: 4}
	p := NewPickup(1, spec)

	p.Update(floorAPI{}, 100*time.Millisecond, Body{}, false)
	assert.Greater(t, p.Position.X, 0.0, "импульс сдвигает предмет")
	assert.Less(t, p.Velocity.X, 4.0, "сопротивление гасит скорость")
}

func TestPickup_BodyCollision(t *testing.T) {
	player := Body{ID: 7, Position: vec.Vec3Float{X: 0.6, Y: 1}}

	thrown := func(ignore uint64) *Pickup {
		spec := dropSpec(vec.Vec3Float{Y: 1})
		spec.PickupDelay = world.ThrowPickupDelay
		spec.Impulse = vec.Vec3Float{X: 4}
		spec.IgnoreBody = ignore
		return NewPickup(1, spec)
	}

	t.Run("чужое тело останавливает предмет", func(t *testing.T) {
		p := thrown(99)
		p.Update(floorAPI{}, 100*time.Millisecond, player, true)
		assert.InDelta(t, 0, p.Position.X, 1e-9)
		assert.Zero(t, p.Velocity.X)
	})

	t.Run("тело наблюдателя игнорируется", func(t *testing.T) {
		p := thrown(player.ID)
		p.Update(floorAPI{}, 100*time.Millisecond, player, true)
		assert.InDelta(t, 0.32, p.Position.X, 1e-9, "предмет пролетает сквозь игрока")
		assert.InDelta(t, 1, p.Position.Y, 1e-9, "предмет лежит на полу")
	})
}

func TestPlayer_Observer(t *testing.T) {
	player := NewPlayer(7, vec.Vec3Float{})
	player.entity.Velocity = vec.Vec3Float{X: 1}

	player.Teleport(vec.Vec3Float{X: 2, Y: 10, Z: 2})
	player.ResetVelocity()

	pos, ok := player.Position()
	assert.True(t, ok)
	assert.Equal(t, vec.Vec3Float{X: 2, Y: 10, Z: 2}, pos)
	assert.Equal(t, vec.Vec3Float{}, player.entity.Velocity)
	assert.Equal(t, uint64(7), player.BodyID())
}

func TestInventory(t *testing.T) {
	inv := NewInventory()
	inv.Add(block.Wood, 3)
	inv.Add(block.Wood, 0)

	assert.Equal(t, 3, inv.Count(block.Wood))
	assert.False(t, inv.Take(block.Wood, 4))
	assert.True(t, inv.Take(block.Wood, 3))
	assert.Empty(t, inv.Snapshot())
}
