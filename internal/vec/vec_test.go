package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Neighbors(t *testing.T) {
	p := Vec3{X: 2, Y: 3, Z: 4}
	n := p.Neighbors()

	seen := make(map[Vec3]bool)
	for _, q := range n {
		assert.Equal(t, 1, p.DistanceSq(q), "сосед %v должен отстоять на 1", q)
		seen[q] = true
	}
	assert.Len(t, seen, 6, "все шесть соседей должны быть различны")
	assert.True(t, seen[Vec3{X: 2, Y: 4, Z: 4}])
	assert.True(t, seen[Vec3{X: 2, Y: 3, Z: 3}])
}

func TestVec3FloatMoveTowards(t *testing.T) {
	from := Vec3Float{X: 0, Y: 0, Z: 0}
	to := Vec3Float{X: 10, Y: 0, Z: 0}

	step := from.MoveTowards(to, 2.5)
	assert.InDelta(t, 2.5, step.X, 1e-9)

	// Не перелетаем цель
	assert.Equal(t, to, Vec3Float{X: 9, Y: 0, Z: 0}.MoveTowards(to, 5))
}

func TestVec3FloatRound(t *testing.T) {
	assert.Equal(t, Vec3{X: 1, Y: -2, Z: 3}, Vec3Float{X: 0.6, Y: -1.7, Z: 3.4}.Round())
}
