package world

import (
	"context"
	"math"
	"testing"

	"github.com/annel0/blockworld/internal/util"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_RequiresIDAndExtent(t *testing.T) {
	_, err := New(context.Background(), Options{Params: smallParams()})
	assert.ErrorIs(t, err, ErrInvalidWorldID, "без ID мир не создаётся")

	_, err = New(context.Background(), Options{ID: "a:b", Params: smallParams()})
	assert.ErrorIs(t, err, ErrInvalidWorldID, "':' в ID пересекается с ключами других миров")

	params := smallParams()
	params.Extent.Width = 0
	_, err = New(context.Background(), Options{ID: "x", Params: params})
	assert.ErrorIs(t, err, ErrInvalidExtent)
}

func TestWorld_HeightMatchesNoise(t *testing.T) {
	env := newTestEnv()
	params := smallParams()
	w := env.open(t, env.options(params))

	nx := (2 + testSeed.OffsetX) / params.NoiseScale
	nz := (2 + testSeed.OffsetZ) / params.NoiseScale
	want := int(math.Floor(util.NewNoise2D().At(nx, nz) * float64(params.Extent.MaxHeight)))

	assert.Equal(t, want, w.HeightAt(2, 2), "высота считается по шуму со смещениями сида")
	assert.Equal(t, 3, w.HeightAt(2, 2), "эталонная высота для testSeed")
}

func TestWorld_DestroyTopAndReload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.open(t, env.options(smallParams()))

	h := w.HeightAt(2, 2)
	top := vec.Vec3{X: 2, Y: h, Z: 2}
	below := vec.Vec3{X: 2, Y: h - 1, Z: 2}
	require.Equal(t, block.Grass, w.ResolveType(top), "вершина столбца - трава")

	res := w.RegisterDestruction(ctx, top)
	assert.Equal(t, block.Grass, res.Previous)
	assert.Equal(t, 1, res.Count, "трава даёт один предмет")
	require.Len(t, env.spawner.specs, 1)
	assert.Equal(t, block.Grass, env.spawner.specs[0].Type)
	assert.Equal(t, 1, env.spawner.specs[0].Count)

	_, ok := w.Instance(top)
	assert.False(t, ok, "снесённый блок снят с регистрации")
	_, ok = w.Instance(below)
	assert.True(t, ok, "блок под снесённым должен быть материализован")

	// Перезагрузка: сид и журнал берутся из хранилища
	reopened := env.options(smallParams())
	reopened.Seed = nil
	reopened.Realizer = NewHeadlessRealizer()
	w2 := env.open(t, reopened)

	assert.Equal(t, h, w2.HeightAt(2, 2), "карта высот совпадает после перезагрузки")
	assert.False(t, w2.IsSolid(top))
	_, ok = w2.Instance(top)
	assert.False(t, ok, "снесённый блок не появляется после перезагрузки")
	_, ok = w2.Instance(below)
	assert.True(t, ok, "открытый блок материализуется после перезагрузки")
}

func TestWorld_PlaceStoneAndReload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.open(t, env.options(smallParams()))

	h := w.HeightAt(0, 0)
	p := vec.Vec3{X: 0, Y: h + 1, Z: 0}
	require.NoError(t, w.PlaceTile(ctx, p, block.Stone))

	inst, ok := w.Instance(p)
	require.True(t, ok)
	assert.Equal(t, block.Stone, inst.Type)

	reopened := env.options(smallParams())
	reopened.Seed = nil
	w2 := env.open(t, reopened)

	inst, ok = w2.Instance(p)
	require.True(t, ok, "поставленный блок восстанавливается после перезагрузки")
	assert.Equal(t, block.Stone, inst.Type)
	assert.True(t, w2.IsSolid(p))
}

func TestWorld_SeedGeneratedOnceAndReused(t *testing.T) {
	env := newTestEnv()
	opts := env.options(smallParams())
	opts.Seed = nil

	w1 := env.open(t, opts)
	w2 := env.open(t, opts)
	assert.Equal(t, w1.Seed(), w2.Seed(), "сид сохраняется между загрузками")
	assert.Equal(t, w1.InstancePositions(), w2.InstancePositions())
}

func TestWorld_FreshSessionClearsKeys(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.open(t, env.options(smallParams()))
	require.NoError(t, w.PlaceTile(ctx, vec.Vec3{X: 1, Y: 7, Z: 1}, block.Sand))

	opts := env.options(smallParams())
	opts.Seed = nil
	opts.FreshSession = true
	w2 := env.open(t, opts)

	assert.Equal(t, 1, env.store.resets, "ключи мира очищаются")
	assert.Equal(t, 0, w2.LedgerSnapshot().Len(), "журнал новой сессии пуст")
}

func TestWorld_ResetRestartsGeneration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.open(t, env.options(smallParams()))
	before := len(w.InstancePositions())
	require.NotZero(t, before)

	require.NoError(t, w.Reset(ctx, false))
	assert.True(t, w.Generating(), "после сброса генерация начинается заново")
	assert.Empty(t, w.InstancePositions(), "реестр очищен")

	w.GenerateAll(ctx)
	assert.Len(t, w.InstancePositions(), before)

	require.NoError(t, w.Reset(ctx, true))
	assert.Equal(t, 0, w.LedgerSnapshot().Len())
	assert.Equal(t, 1, env.store.resets)
}

func TestWorld_StatsAndInspect(t *testing.T) {
	env := newTestEnv()
	w := env.open(t, env.options(smallParams()))

	st := w.Stats()
	assert.Equal(t, "test", st.ID)
	assert.Equal(t, "OverWorld", st.Theme)
	assert.False(t, st.Generating)
	assert.Equal(t, "done", st.Phase)
	assert.Equal(t, 1.0, st.Progress)
	assert.Equal(t, st.Instances, st.Generated, "все экземпляры созданы генерацией")

	info := w.Inspect(vec.Vec3{X: 0, Y: 0, Z: 0})
	assert.True(t, info.Solid)
	assert.True(t, info.Realized, "нижний слой всегда материализован")
	assert.False(t, info.Edited)
	assert.Equal(t, 1, env.sink.count(EventWorldGenerated))
}

func TestWorld_CloseReleasesHandles(t *testing.T) {
	env := newTestEnv()
	w := env.open(t, env.options(smallParams()))
	require.NotZero(t, env.realizer.Live())

	w.Close()
	assert.Zero(t, env.realizer.Live(), "все представления освобождены")
}
