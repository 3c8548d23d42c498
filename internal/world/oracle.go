package world

import (
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Oracle отвечает на вопрос, занята ли позиция, с учётом журнала и процедурной базы.
// Приоритет: журнал, затем карта высот, затем полоса жидкости.
type Oracle struct {
	ledger     *Ledger
	heights    *HeightField
	extent     Extent
	theme      Theme
	fluidLevel int
	stoneDepth int
}

// NewOracle создаёт оракул для текущей сессии мира
func NewOracle(ledger *Ledger, heights *HeightField, extent Extent, theme Theme, fluidLevel, stoneDepth int) *Oracle {
	return &Oracle{
		ledger:     ledger,
		heights:    heights,
		extent:     extent,
		theme:      theme,
		fluidLevel: fluidLevel,
		stoneDepth: stoneDepth,
	}
}

// IsSolid сообщает, занята ли позиция твёрдым блоком.
// Полоса жидкости твёрдой не считается.
func (o *Oracle) IsSolid(p vec.Vec3) bool {
	if e, ok := o.ledger.Get(p); ok {
		return e.Kind == EntryPlaced
	}
	return o.baselineSolid(p)
}

func (o *Oracle) baselineSolid(p vec.Vec3) bool {
	if p.Y < 0 || !o.extent.ContainsColumn(p.X, p.Z) {
		return false
	}
	return p.Y <= o.heights.HeightAt(p.X, p.Z)
}

// BaselineType возвращает тип блока процедурной базы без учёта журнала
func (o *Oracle) BaselineType(p vec.Vec3) block.BlockType {
	if p.Y < 0 || !o.extent.ContainsColumn(p.X, p.Z) {
		return block.None
	}

	h := o.heights.HeightAt(p.X, p.Z)
	switch {
	case p.Y == h:
		return o.theme.Surface
	case p.Y < h:
		if o.theme.GenerateStone && h-p.Y >= o.stoneDepth {
			return block.Stone
		}
		return o.theme.Fill
	case p.Y <= o.fluidLevel && o.theme.HasFluid():
		return o.theme.Fluid
	}
	return block.None
}

// ResolveType возвращает фактический тип блока в позиции
func (o *Oracle) ResolveType(p vec.Vec3) block.BlockType {
	if e, ok := o.ledger.Get(p); ok {
		if e.Kind == EntryDestroyed {
			return block.None
		}
		return e.Type
	}
	return o.BaselineType(p)
}

// InFluidBand сообщает, лежит ли позиция в полосе жидкости над рельефом
func (o *Oracle) InFluidBand(p vec.Vec3) bool {
	if !o.theme.HasFluid() || !o.extent.ContainsColumn(p.X, p.Z) {
		return false
	}
	return p.Y > o.heights.HeightAt(p.X, p.Z) && p.Y <= o.fluidLevel
}
