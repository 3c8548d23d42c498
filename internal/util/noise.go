package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина, общие для всех миров
const (
	NoiseAlpha   = 2.0  // Сглаживание шума
	NoiseBeta    = 2.0  // Частота шума
	NoiseOctaves = 3    // Количество октав
	NoiseSeed    = 1337 // Сид таблицы перестановок; смещения мира задаются отдельно
)

// Noise2D оборачивает генератор шума Перлина конкретного мира.
// Экземпляр не разделяется между мирами, поэтому перезагрузка одного мира
// не влияет на другой.
type Noise2D struct {
	perlin *perlin.Perlin
}

// NewNoise2D создаёт генератор шума с фиксированной таблицей перестановок
func NewNoise2D() *Noise2D {
	return NewNoise2DWithSeed(NoiseSeed)
}

// NewNoise2DWithSeed создаёт генератор шума с указанным сидом таблицы перестановок
func NewNoise2DWithSeed(seed int64) *Noise2D {
	return &Noise2D{
		perlin: perlin.NewPerlin(NoiseAlpha, NoiseBeta, NoiseOctaves, seed),
	}
}

// At возвращает значение шума для указанных координат в диапазоне [0, 1]
func (n *Noise2D) At(x, y float64) float64 {
	// Значение шума лежит в диапазоне [-1, 1]
	v := (n.perlin.Noise2D(x, y) + 1.0) / 2.0

	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
