package world

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// Диапазон случайных смещений шума для нового мира
const seedOffsetRange = 9999.0

// Seed полностью определяет карту высот мира.
// Смещения генерируются один раз и сохраняются; масштаб берётся из конфигурации.
type Seed struct {
	OffsetX float64
	OffsetZ float64
	Scale   float64
}

// NewRandomSeed создаёт сид со случайными смещениями в [-9999, 9999]
func NewRandomSeed(rng *rand.Rand, scale float64) Seed {
	return Seed{
		OffsetX: (rng.Float64()*2 - 1) * seedOffsetRange,
		OffsetZ: (rng.Float64()*2 - 1) * seedOffsetRange,
		Scale:   scale,
	}
}

// scale возвращает масштаб шума; неположительные значения заменяются единицей
func (s Seed) scale() float64 {
	if s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

// derivedSource возвращает детерминированный сид ГСЧ для вторичной генерации
// (деревья), чтобы перезагрузка мира выбирала те же столбцы.
func (s Seed) derivedSource() int64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range []float64{s.OffsetX, s.OffsetZ} {
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	return int64(h.Sum64())
}
