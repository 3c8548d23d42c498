package entity

import (
	"sync"

	"github.com/annel0/blockworld/internal/world/block"
)

// Inventory накапливает подобранные предметы игрока
type Inventory struct {
	mu    sync.RWMutex
	items map[block.BlockType]int
}

// NewInventory создаёт пустой инвентарь
func NewInventory() *Inventory {
	return &Inventory{items: make(map[block.BlockType]int)}
}

// Add добавляет предметы
func (inv *Inventory) Add(t block.BlockType, count int) {
	if count <= 0 {
		return
	}
	inv.mu.Lock()
	inv.items[t] += count
	inv.mu.Unlock()
}

// Take забирает предметы; false - не хватает
func (inv *Inventory) Take(t block.BlockType, count int) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if count <= 0 || inv.items[t] < count {
		return false
	}
	inv.items[t] -= count
	if inv.items[t] == 0 {
		delete(inv.items, t)
	}
	return true
}

// Count возвращает количество предметов типа t
func (inv *Inventory) Count(t block.BlockType) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.items[t]
}

// Snapshot возвращает копию содержимого по именам типов
func (inv *Inventory) Snapshot() map[string]int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make(map[string]int, len(inv.items))
	for t, n := range inv.items {
		out[t.String()] = n
	}
	return out
}
