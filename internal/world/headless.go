package world

import (
	"sync"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// HeadlessRealizer материализует блоки без графики: только учёт представлений.
// Используется сервером без клиента и в тестах.
type HeadlessRealizer struct {
	mu       sync.Mutex
	live     map[*HeadlessHandle]struct{}
	realized uint64
}

// NewHeadlessRealizer создаёт пустой реализатор
func NewHeadlessRealizer() *HeadlessRealizer {
	return &HeadlessRealizer{live: make(map[*HeadlessHandle]struct{})}
}

// HeadlessHandle - представление блока без графики
type HeadlessHandle struct {
	owner          *HeadlessRealizer
	Pos            vec.Vec3
	Type           block.BlockType
	Representation string

	mu       sync.Mutex
	active   bool
	released bool
}

// Realize создаёт активное представление
func (r *HeadlessRealizer) Realize(pos vec.Vec3, t block.BlockType, representation string) (Handle, error) {
	h := &HeadlessHandle{owner: r, Pos: pos, Type: t, Representation: representation, active: true}

	r.mu.Lock()
	r.live[h] = struct{}{}
	r.realized++
	r.mu.Unlock()

	return h, nil
}

// Live возвращает число неосвобождённых представлений
func (r *HeadlessRealizer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Realized возвращает общее число созданных представлений
func (r *HeadlessRealizer) Realized() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.realized
}

func (h *HeadlessHandle) Valid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.released
}

func (h *HeadlessHandle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *HeadlessHandle) SetActive(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.released {
		h.active = active
	}
}

func (h *HeadlessHandle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.active = false
	h.mu.Unlock()

	h.owner.mu.Lock()
	delete(h.owner.live, h)
	h.owner.mu.Unlock()
}
