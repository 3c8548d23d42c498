package world

import "github.com/annel0/blockworld/internal/vec"

// Culler решает, нужно ли материализовать твёрдый блок.
// Блок скрыт, если все шесть соседей твёрдые; граничные блоки видны всегда.
type Culler struct {
	oracle *Oracle
	extent Extent
}

// NewCuller создаёт отсекатель поверх оракула
func NewCuller(oracle *Oracle, extent Extent) *Culler {
	return &Culler{oracle: oracle, extent: extent}
}

// NeedsRealization возвращает true, если блок в p должен быть материализован
func (c *Culler) NeedsRealization(p vec.Vec3) bool {
	if c.extent.IsBoundary(p) {
		return true
	}
	for _, n := range p.Neighbors() {
		if !c.oracle.IsSolid(n) {
			return true
		}
	}
	return false
}
