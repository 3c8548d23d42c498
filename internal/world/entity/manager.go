package entity

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

// EntityManager управляет подбираемыми предметами и доставляет их игроку.
// Реализует world.PickupSpawner.
type EntityManager struct {
	pickups      map[uint64]*Pickup // Хранилище всех предметов
	player       *Player            // Сборщик предметов; nil - предметы только падают
	inventory    *Inventory
	nextEntityID uint64 // Счетчик для генерации ID
	collected    uint64
	mu           sync.RWMutex // Мьютекс для безопасного доступа
}

// NewEntityManager создаёт новый менеджер сущностей
func NewEntityManager(player *Player, inventory *Inventory) *EntityManager {
	if inventory == nil {
		inventory = NewInventory()
	}
	return &EntityManager{
		pickups:      make(map[uint64]*Pickup),
		player:       player,
		inventory:    inventory,
		nextEntityID: 1000, // ID ниже 1000 зарезервированы за игроками
	}
}

// SpawnPickup создаёт предмет в мире
func (em *EntityManager) SpawnPickup(spec world.PickupSpec) (uint64, error) {
	if spec.Count <= 0 {
		return 0, fmt.Errorf("pickup count must be positive, got %d", spec.Count)
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	em.nextEntityID++
	id := em.nextEntityID
	em.pickups[id] = NewPickup(id, spec)
	return id, nil
}

// GetPickup возвращает предмет по ID
func (em *EntityManager) GetPickup(id uint64) (*Pickup, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	p, ok := em.pickups[id]
	return p, ok
}

// DespawnEntity удаляет предмет из мира
func (em *EntityManager) DespawnEntity(id uint64) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	if _, ok := em.pickups[id]; !ok {
		return false
	}
	delete(em.pickups, id)
	return true
}

// GetEntitiesInRange возвращает предметы в указанном радиусе, отсортированные по ID
func (em *EntityManager) GetEntitiesInRange(center vec.Vec3Float, radius float64) []*Pickup {
	em.mu.RLock()
	defer em.mu.RUnlock()

	var result []*Pickup
	for _, p := range em.pickups {
		if p.Active && center.DistanceTo(p.Position) <= radius {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// UpdateEntities продвигает все предметы и переносит подобранные в инвентарь.
// Возвращает число подобранных за вызов предметов.
func (em *EntityManager) UpdateEntities(dt time.Duration, api EntityAPI) int {
	var target Body
	hasTarget := false
	if em.player != nil {
		target.ID = em.player.BodyID()
		target.Position, hasTarget = em.player.Position()
	}

	// Держим блокировку на всё время обновления
	em.mu.Lock()
	defer em.mu.Unlock()

	collected := 0
	for id, p := range em.pickups {
		if !p.Active {
			continue
		}
		if p.Update(api, dt, target, hasTarget) {
			em.inventory.Add(p.BlockType, p.Count)
			delete(em.pickups, id)
			collected++
		}
	}
	em.collected += uint64(collected)
	return collected
}

// Inventory возвращает инвентарь сборщика
func (em *EntityManager) Inventory() *Inventory {
	return em.inventory
}

// Run обновляет предметы с фиксированным шагом, пока не закрыт done
func (em *EntityManager) Run(done <-chan struct{}, step time.Duration, api EntityAPI) {
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			em.UpdateEntities(step, api)
		}
	}
}

// GetStats возвращает статистику по сущностям
func (em *EntityManager) GetStats() map[string]interface{} {
	em.mu.RLock()
	defer em.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["total_entities"] = len(em.pickups)

	activeCount := 0
	for _, p := range em.pickups {
		if p.Active {
			activeCount++
		}
	}
	stats["active_entities"] = activeCount
	stats["collected_total"] = em.collected
	stats["inventory"] = em.inventory.Snapshot()
	return stats
}
