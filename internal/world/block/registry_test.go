package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, 3, r.DropCount(Wood), "дерево выпадает тремя единицами")
	assert.Equal(t, 0, r.DropCount(Water), "вода не выпадает")
	assert.Equal(t, 0, r.DropCount(None))
	assert.True(t, r.IsFluid(Lava))
	assert.False(t, r.IsFluid(Stone))

	_, ok := r.Representation(Iron)
	assert.False(t, ok, "у железа нет представления по умолчанию")

	repr, ok := r.Representation(Grass)
	assert.True(t, ok)
	assert.Equal(t, "prefab/grass", repr)
}

func TestParseBlockType(t *testing.T) {
	tests := []struct {
		in   string
		want BlockType
		ok   bool
	}{
		{"stone", Stone, true},
		{"EndStone", EndStone, true},
		{"NETHERRACK", Netherrack, true},
		{"diamond", None, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBlockType(tt.in)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestApplyYAMLOverrides(t *testing.T) {
	r := DefaultRegistry()
	err := r.ApplyYAML([]byte(`
blocks:
  - name: Iron
    representation: prefab/iron
    drop_count: 2
  - name: Dirt
    mineable: false
  - name: Stone
    max_hp: 0
`))
	require.NoError(t, err)

	repr, ok := r.Representation(Iron)
	assert.True(t, ok)
	assert.Equal(t, "prefab/iron", repr)
	assert.Equal(t, 2, r.DropCount(Iron))

	dirt, _ := r.Get(Dirt)
	assert.False(t, dirt.Mineable)
	assert.Equal(t, 1, dirt.DropCount, "незаданные поля сохраняются")
	assert.False(t, r.IsMineable(Dirt))
	assert.Equal(t, 3, r.Durability(Dirt))
	assert.Equal(t, 1, r.Durability(Stone), "нулевая прочность поднимается до 1")
}

func TestRegistry_Mineable(t *testing.T) {
	r := DefaultRegistry()
	assert.True(t, r.IsMineable(Stone))
	assert.False(t, r.IsMineable(Water), "жидкость не разбивается")
	assert.False(t, r.IsMineable(None))
	assert.Equal(t, 5, r.Durability(Stone))
	assert.Equal(t, 1, r.Durability(None))
}

func TestApplyYAMLUnknownType(t *testing.T) {
	r := DefaultRegistry()
	assert.Error(t, r.ApplyYAML([]byte("blocks:\n  - name: Diamond\n")))
}
