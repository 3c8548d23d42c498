package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/klauspost/compress/zstd"
)

// Префикс сжатого журнала: z1:<base64(zstd(записи))>
const zstdEnvelope = "z1:"

// WorldPrefix возвращает префикс всех ключей мира
func WorldPrefix(worldID string) string {
	return "world:" + worldID + ":"
}

// LedgerKey возвращает ключ журнала изменений мира
func LedgerKey(worldID string) string {
	return WorldPrefix(worldID) + "ledger"
}

// SeedXKey и SeedZKey - ключи смещений сида
func SeedXKey(worldID string) string { return WorldPrefix(worldID) + "seed_x" }
func SeedZKey(worldID string) string { return WorldPrefix(worldID) + "seed_z" }

// LedgerCodec сохраняет журнал и сид мира в строковом хранилище.
// Реализует world.LedgerStore.
type LedgerCodec struct {
	store   KeyValueStore
	encoder *zstd.Encoder // nil - журнал пишется без сжатия
	decoder *zstd.Decoder
	log     *logging.Logger
}

// NewLedgerCodec создаёт кодек поверх хранилища. При compress журнал пишется в zstd-конверте;
// читаются оба формата.
func NewLedgerCodec(store KeyValueStore, compress bool, log *logging.Logger) (*LedgerCodec, error) {
	if log == nil {
		log = logging.GetStorageLogger()
	}
	c := &LedgerCodec{store: store, log: log}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	c.decoder = dec

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			dec.Close()
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		c.encoder = enc
	}
	return c, nil
}

// EncodeLedger сериализует журнал в записи "x,y,z,code|"
func EncodeLedger(l *world.Ledger) string {
	var b strings.Builder
	for _, p := range l.Positions() {
		e, _ := l.Get(p)
		b.WriteString(strconv.Itoa(p.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.Y))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.Z))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(e.Code()))
		b.WriteByte('|')
	}
	return b.String()
}

// DecodeLedger разбирает записи журнала. Некорректные записи пропускаются;
// второй результат - их число.
func DecodeLedger(s string) (*world.Ledger, int) {
	l := world.NewLedger()
	skipped := 0

	for _, rec := range strings.Split(s, "|") {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		p, e, ok := decodeRecord(rec)
		if !ok {
			skipped++
			continue
		}
		l.Set(p, e)
	}
	return l, skipped
}

func decodeRecord(rec string) (vec.Vec3, world.Entry, bool) {
	parts := strings.Split(rec, ",")
	if len(parts) != 4 {
		return vec.Vec3{}, world.Entry{}, false
	}

	var nums [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return vec.Vec3{}, world.Entry{}, false
		}
		nums[i] = n
	}

	e, ok := world.EntryFromCode(nums[3])
	if !ok {
		return vec.Vec3{}, world.Entry{}, false
	}
	return vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}, e, true
}

func (c *LedgerCodec) wrap(raw string) string {
	if c.encoder == nil || raw == "" {
		return raw
	}
	return zstdEnvelope + base64.StdEncoding.EncodeToString(c.encoder.EncodeAll([]byte(raw), nil))
}

func (c *LedgerCodec) unwrap(value string) (string, error) {
	if !strings.HasPrefix(value, zstdEnvelope) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, zstdEnvelope))
	if err != nil {
		return "", fmt.Errorf("decode ledger envelope: %w", err)
	}
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("decompress ledger: %w", err)
	}
	return string(raw), nil
}

// SaveLedger сохраняет журнал мира
func (c *LedgerCodec) SaveLedger(ctx context.Context, worldID string, l *world.Ledger) error {
	if err := world.ValidateID(worldID); err != nil {
		return err
	}
	return c.store.Set(ctx, LedgerKey(worldID), c.wrap(EncodeLedger(l)))
}

// LoadLedger загружает журнал мира; отсутствие ключа даёт пустой журнал
func (c *LedgerCodec) LoadLedger(ctx context.Context, worldID string) (*world.Ledger, error) {
	value, err := c.store.Get(ctx, LedgerKey(worldID))
	if errors.Is(err, ErrNotFound) {
		return world.NewLedger(), nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := c.unwrap(value)
	if err != nil {
		return nil, err
	}

	l, skipped := DecodeLedger(raw)
	if skipped > 0 {
		c.log.Warn("Журнал мира %s: пропущено %d некорректных записей", worldID, skipped)
	}
	return l, nil
}

// LoadSeed загружает смещения сида; false - сид ещё не сохранён
func (c *LedgerCodec) LoadSeed(ctx context.Context, worldID string) (world.Seed, bool, error) {
	x, okX, err := c.loadFloat(ctx, SeedXKey(worldID))
	if err != nil {
		return world.Seed{}, false, err
	}
	z, okZ, err := c.loadFloat(ctx, SeedZKey(worldID))
	if err != nil {
		return world.Seed{}, false, err
	}
	if !okX || !okZ {
		return world.Seed{}, false, nil
	}
	return world.Seed{OffsetX: x, OffsetZ: z}, true, nil
}

func (c *LedgerCodec) loadFloat(ctx context.Context, key string) (float64, bool, error) {
	s, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, true, nil
}

// SaveSeed сохраняет смещения сида; масштаб не сохраняется
func (c *LedgerCodec) SaveSeed(ctx context.Context, worldID string, seed world.Seed) error {
	if err := world.ValidateID(worldID); err != nil {
		return err
	}
	if err := c.store.Set(ctx, SeedXKey(worldID), strconv.FormatFloat(seed.OffsetX, 'g', -1, 64)); err != nil {
		return err
	}
	return c.store.Set(ctx, SeedZKey(worldID), strconv.FormatFloat(seed.OffsetZ, 'g', -1, 64))
}

// Reset удаляет все ключи мира. ID без ':' гарантирует, что префикс
// не задевает ключи других миров.
func (c *LedgerCodec) Reset(ctx context.Context, worldID string) error {
	if err := world.ValidateID(worldID); err != nil {
		return err
	}
	return c.store.DeletePrefix(ctx, WorldPrefix(worldID))
}

// Close освобождает ресурсы zstd
func (c *LedgerCodec) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	c.decoder.Close()
}
