package world

import (
	"math"

	"github.com/annel0/blockworld/internal/util"
	"github.com/annel0/blockworld/internal/vec"
)

// Extent задаёт размеры генерируемой области: столбцы x ∈ [0, Width), z ∈ [0, Depth)
type Extent struct {
	Width     int
	Depth     int
	MaxHeight int
}

// ContainsColumn проверяет, входит ли столбец в область генерации
func (e Extent) ContainsColumn(x, z int) bool {
	return x >= 0 && x < e.Width && z >= 0 && z < e.Depth
}

// IsBoundary проверяет, лежит ли блок на внешней границе мира.
// Граничными считаются крайние столбцы, всё за пределами области и слой y = 0.
func (e Extent) IsBoundary(p vec.Vec3) bool {
	if p.Y <= 0 {
		return true
	}
	if !e.ContainsColumn(p.X, p.Z) {
		return true
	}
	return p.X == 0 || p.Z == 0 || p.X == e.Width-1 || p.Z == e.Depth-1
}

// Columns возвращает все столбцы области в порядке обхода генератора
func (e Extent) Columns() []vec.Vec2 {
	out := make([]vec.Vec2, 0, e.Width*e.Depth)
	for x := 0; x < e.Width; x++ {
		for z := 0; z < e.Depth; z++ {
			out = append(out, vec.Vec2{X: x, Z: z})
		}
	}
	return out
}

// Center возвращает центральный столбец области
func (e Extent) Center() vec.Vec2 {
	return vec.Vec2{X: e.Width / 2, Z: e.Depth / 2}
}

// HeightField вычисляет и кеширует высоту столбцов по сиду мира
type HeightField struct {
	seed      Seed
	maxHeight int
	noise     *util.Noise2D
	cache     map[vec.Vec2]int
}

// NewHeightField создаёт карту высот для сида
func NewHeightField(seed Seed, maxHeight int) *HeightField {
	return &HeightField{
		seed:      seed,
		maxHeight: maxHeight,
		noise:     util.NewNoise2D(),
		cache:     make(map[vec.Vec2]int),
	}
}

// HeightAt возвращает высоту столбца (x, z), не меньше 1
func (h *HeightField) HeightAt(x, z int) int {
	key := vec.Vec2{X: x, Z: z}
	if v, ok := h.cache[key]; ok {
		return v
	}

	scale := h.seed.scale()
	nx := (float64(x) + h.seed.OffsetX) / scale
	nz := (float64(z) + h.seed.OffsetZ) / scale

	height := int(math.Floor(h.noise.At(nx, nz) * float64(h.maxHeight)))
	if height < 1 {
		height = 1
	}

	h.cache[key] = height
	return height
}

// Precompute заполняет кеш для всех столбцов области
func (h *HeightField) Precompute(e Extent) {
	for x := 0; x < e.Width; x++ {
		for z := 0; z < e.Depth; z++ {
			h.HeightAt(x, z)
		}
	}
}
