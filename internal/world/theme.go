package world

import (
	"strings"

	"github.com/annel0/blockworld/internal/world/block"
)

// Theme определяет набор блоков для генерации измерения
type Theme struct {
	Name          string
	Surface       block.BlockType
	Fill          block.BlockType
	Fluid         block.BlockType // block.None - без жидкости
	GenerateTrees bool
	GenerateStone bool
}

// HasFluid сообщает, заполняется ли низина жидкостью
func (t Theme) HasFluid() bool {
	return t.Fluid != block.None
}

var (
	OverWorldTheme = Theme{
		Name:          "OverWorld",
		Surface:       block.Grass,
		Fill:          block.Dirt,
		Fluid:         block.Water,
		GenerateTrees: true,
		GenerateStone: true,
	}
	NetherTheme = Theme{
		Name:    "Nether",
		Surface: block.Netherrack,
		Fill:    block.Netherrack,
		Fluid:   block.Lava,
	}
	EndTheme = Theme{
		Name:    "End",
		Surface: block.EndStone,
		Fill:    block.EndStone,
		Fluid:   block.None,
	}
)

// ResolveTheme выбирает тему по имени измерения. Неизвестные имена дают OverWorld;
// второй результат сообщает, было ли имя распознано.
func ResolveTheme(dimension string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(dimension)) {
	case "overworld", "":
		return OverWorldTheme, true
	case "nether":
		return NetherTheme, true
	case "end", "theend":
		return EndTheme, true
	default:
		return OverWorldTheme, false
	}
}
