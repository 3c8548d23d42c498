package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("storage", io.Discard, logging.ERROR)
}

func newCodec(t *testing.T, store KeyValueStore, compress bool) *LedgerCodec {
	t.Helper()
	c, err := NewLedgerCodec(store, compress, quietLogger())
	require.NoError(t, err, "кодек должен создаваться")
	t.Cleanup(c.Close)
	return c
}

func sampleLedger() *world.Ledger {
	l := world.NewLedger()
	l.MarkDestroyed(vec.Vec3{X: 2, Y: 5, Z: 2})
	l.MarkPlaced(vec.Vec3{X: 0, Y: 6, Z: 0}, block.Stone)
	l.MarkPlaced(vec.Vec3{X: -3, Y: 1, Z: 7}, block.Wood)
	return l
}

func TestEncodeLedger_Format(t *testing.T) {
	l := world.NewLedger()
	l.MarkDestroyed(vec.Vec3{X: 1, Y: 2, Z: 3})
	l.MarkPlaced(vec.Vec3{X: 4, Y: 5, Z: 6}, block.Stone)

	assert.Equal(t, "1,2,3,0|4,5,6,6|", EncodeLedger(l))
	assert.Equal(t, "", EncodeLedger(world.NewLedger()), "пустой журнал - пустая строка")
}

func TestDecodeLedger_SkipsMalformed(t *testing.T) {
	l, skipped := DecodeLedger("1,2,3,0|garbage|4,5,6|7,8,9,x|10,11,12,999|4,5,6,6||")
	assert.Equal(t, 4, skipped)
	require.Equal(t, 2, l.Len())

	e, ok := l.Get(vec.Vec3{X: 1, Y: 2, Z: 3})
	require.True(t, ok)
	assert.Equal(t, world.EntryDestroyed, e.Kind)

	e, ok = l.Get(vec.Vec3{X: 4, Y: 5, Z: 6})
	require.True(t, ok)
	assert.Equal(t, world.PlacedEntry(block.Stone), e)
}

func TestLedgerCodec_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			c := newCodec(t, store, compress)

			original := sampleLedger()
			require.NoError(t, c.SaveLedger(ctx, "w", original))

			raw, err := store.Get(ctx, LedgerKey("w"))
			require.NoError(t, err)
			assert.Equal(t, compress, strings.HasPrefix(raw, zstdEnvelope))

			loaded, err := c.LoadLedger(ctx, "w")
			require.NoError(t, err)
			assert.Equal(t, EncodeLedger(original), EncodeLedger(loaded), "журнал восстанавливается без потерь")
		})
	}
}

func TestLedgerCodec_EmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	c := newCodec(t, NewMemoryStore(), true)

	l, err := c.LoadLedger(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, l.Len(), "отсутствующий журнал - пустой")

	require.NoError(t, c.SaveLedger(ctx, "empty", world.NewLedger()))
	l, err = c.LoadLedger(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, l.Len())
}

func TestLedgerCodec_ReadsPlainWhenCompressing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, LedgerKey("w"), "1,1,1,5|"))

	c := newCodec(t, store, true)
	l, err := c.LoadLedger(ctx, "w")
	require.NoError(t, err)
	e, ok := l.Get(vec.Vec3{X: 1, Y: 1, Z: 1})
	require.True(t, ok)
	assert.Equal(t, block.Wood, e.Type)
}

func TestLedgerCodec_CorruptEnvelope(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, LedgerKey("w"), zstdEnvelope+"!!!"))

	_, err := newCodec(t, store, false).LoadLedger(ctx, "w")
	assert.Error(t, err)
}

func TestLedgerCodec_SeedAndReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := newCodec(t, store, false)

	_, ok, err := c.LoadSeed(ctx, "w")
	require.NoError(t, err)
	assert.False(t, ok, "сид ещё не создан")

	seed := world.Seed{OffsetX: 1234.5678901, OffsetZ: -9876.54321}
	require.NoError(t, c.SaveSeed(ctx, "w", seed))
	require.NoError(t, c.SaveLedger(ctx, "w", sampleLedger()))
	require.NoError(t, store.Set(ctx, LedgerKey("other"), "1,1,1,0|"))

	loaded, ok, err := c.LoadSeed(ctx, "w")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, seed.OffsetX, loaded.OffsetX, "смещения сохраняются точно")
	assert.Equal(t, seed.OffsetZ, loaded.OffsetZ)

	require.NoError(t, c.Reset(ctx, "w"))
	_, ok, err = c.LoadSeed(ctx, "w")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len(), "ключи других миров остаются")

	require.NoError(t, store.Set(ctx, SeedXKey("bad"), "abc"))
	require.NoError(t, store.Set(ctx, SeedZKey("bad"), "1"))
	_, _, err = c.LoadSeed(ctx, "bad")
	assert.Error(t, err)
}

func TestLedgerCodec_ResetKeepsNestedWorldIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := newCodec(t, store, false)

	require.NoError(t, c.SaveSeed(ctx, "a", world.Seed{OffsetX: 1, OffsetZ: 2}))
	require.NoError(t, c.SaveSeed(ctx, "a-b", world.Seed{OffsetX: 3, OffsetZ: 4}))

	// Мир "a:b" попал бы под префикс мира "a"
	assert.ErrorIs(t, c.SaveSeed(ctx, "a:b", world.Seed{}), world.ErrInvalidWorldID)
	assert.ErrorIs(t, c.SaveLedger(ctx, "a:b", world.NewLedger()), world.ErrInvalidWorldID)
	assert.ErrorIs(t, c.Reset(ctx, "a:b"), world.ErrInvalidWorldID)

	require.NoError(t, c.Reset(ctx, "a"))
	_, ok, err := c.LoadSeed(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "сид мира a удалён")

	_, ok, err = c.LoadSeed(ctx, "a-b")
	require.NoError(t, err)
	assert.True(t, ok, "соседний мир не затронут")
}
