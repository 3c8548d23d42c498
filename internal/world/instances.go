package world

import (
	"sort"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Instance - материализованный блок
type Instance struct {
	Type   block.BlockType
	Handle Handle
	Damage int // накопленный урон; сбрасывается вместе с экземпляром
}

// InstanceRegistry хранит материализованные блоки по позициям.
// Позиция присутствует, только если она занята и (жидкость или открыта).
type InstanceRegistry struct {
	items map[vec.Vec3]Instance
}

// NewInstanceRegistry создаёт пустой реестр
func NewInstanceRegistry() *InstanceRegistry {
	return &InstanceRegistry{items: make(map[vec.Vec3]Instance)}
}

// Add регистрирует экземпляр; существующая запись перезаписывается
func (r *InstanceRegistry) Add(p vec.Vec3, inst Instance) {
	r.items[p] = inst
}

// Get возвращает экземпляр по позиции
func (r *InstanceRegistry) Get(p vec.Vec3) (Instance, bool) {
	inst, ok := r.items[p]
	return inst, ok
}

// AddDamage увеличивает накопленный урон экземпляра и возвращает новое значение
func (r *InstanceRegistry) AddDamage(p vec.Vec3, damage int) (int, bool) {
	inst, ok := r.items[p]
	if !ok {
		return 0, false
	}
	inst.Damage += damage
	r.items[p] = inst
	return inst.Damage, true
}

// Has проверяет наличие экземпляра
func (r *InstanceRegistry) Has(p vec.Vec3) bool {
	_, ok := r.items[p]
	return ok
}

// Remove снимает регистрацию и освобождает представление
func (r *InstanceRegistry) Remove(p vec.Vec3) bool {
	inst, ok := r.items[p]
	if !ok {
		return false
	}
	delete(r.items, p)
	if inst.Handle != nil && inst.Handle.Valid() {
		inst.Handle.Release()
	}
	return true
}

// Len возвращает число материализованных блоков
func (r *InstanceRegistry) Len() int {
	return len(r.items)
}

// Each обходит все экземпляры
func (r *InstanceRegistry) Each(fn func(p vec.Vec3, inst Instance)) {
	for p, inst := range r.items {
		fn(p, inst)
	}
}

// Positions возвращает отсортированные позиции экземпляров
func (r *InstanceRegistry) Positions() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(r.items))
	for p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// Clear освобождает все представления и очищает реестр
func (r *InstanceRegistry) Clear() {
	for p := range r.items {
		r.Remove(p)
	}
}
