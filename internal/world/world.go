package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Ошибки мира
var (
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrAirPlacement     = errors.New("cannot place air")
	ErrInvalidCount     = errors.New("item count must be positive")
	ErrNoSpawner        = errors.New("pickup spawner is not configured")
	ErrInvalidExtent    = errors.New("world extent must be positive")
	ErrInvalidWorldID   = errors.New("world id must be non-empty and contain no ':'")
	ErrInvalidDamage    = errors.New("damage must be positive")
	ErrNotRealized      = errors.New("no realized block at position")
	ErrNotMineable      = errors.New("block is not mineable")
)

// Params - параметры генерации и обслуживания мира
type Params struct {
	Extent       Extent
	FluidLevel   int
	StoneDepth   int
	NoiseScale   float64
	BatchQuota   int // Блоков за тик; <= 0 - без ограничения
	MinTrees     int
	MaxTrees     int
	ViewDistance float64
	ViewInterval time.Duration
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return ParamsFromConfig(config.Default().World)
}

// ParamsFromConfig переводит секцию конфигурации в параметры мира
func ParamsFromConfig(cfg config.WorldConfig) Params {
	return Params{
		Extent:       Extent{Width: cfg.Width, Depth: cfg.Depth, MaxHeight: cfg.MaxHeight},
		FluidLevel:   cfg.FluidLevel,
		StoneDepth:   cfg.StoneDepth,
		NoiseScale:   cfg.NoiseScale,
		BatchQuota:   cfg.BatchQuota,
		MinTrees:     cfg.MinTrees,
		MaxTrees:     cfg.MaxTrees,
		ViewDistance: float64(cfg.ViewDistance),
		ViewInterval: cfg.ViewIntervalDuration(),
	}
}

// Options - зависимости мира. Обязателен только ID.
type Options struct {
	ID        string
	Dimension string
	Params    Params

	// FreshSession очищает все ключи мира перед генерацией
	FreshSession bool
	// Seed фиксирует сид (иначе он загружается или создаётся)
	Seed *Seed

	Blocks   *block.Registry
	Realizer Realizer
	Observer Observer
	Pickups  PickupSpawner
	Store    LedgerStore
	Events   EventSink
	Metrics  *Metrics
	Logger   *logging.Logger
	Rand     *rand.Rand
}

// World - хост мира: владеет журналом, реестром экземпляров и планировщиками.
// Все операции сериализуются мьютексом: у мира один логический писатель.
type World struct {
	mu sync.Mutex

	id        string
	dimension string
	params    Params
	theme     Theme
	seed      Seed

	blocks   *block.Registry
	realizer Realizer
	observer Observer
	store    LedgerStore
	events   EventSink
	metrics  *Metrics
	log      *logging.Logger
	tracer   trace.Tracer
	rng      *rand.Rand

	ledger    *Ledger
	heights   *HeightField
	oracle    *Oracle
	culler    *Culler
	instances *InstanceRegistry
	gen       *Generation
	view      *ViewDistance
	economy   *Economy
	outbox    []pendingEvent
}

// New создаёт мир, загружает (или создаёт) сид и журнал и запускает генерацию.
// Генерация продвигается вызовами Tick.
func New(ctx context.Context, opts Options) (*World, error) {
	if err := ValidateID(opts.ID); err != nil {
		return nil, err
	}
	e := opts.Params.Extent
	if e.Width <= 0 || e.Depth <= 0 || e.MaxHeight <= 0 {
		return nil, ErrInvalidExtent
	}

	theme, known := ResolveTheme(opts.Dimension)

	w := &World{
		id:        opts.ID,
		dimension: opts.Dimension,
		params:    opts.Params,
		theme:     theme,
		blocks:    opts.Blocks,
		realizer:  opts.Realizer,
		observer:  opts.Observer,
		store:     opts.Store,
		events:    opts.Events,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		tracer:    otel.Tracer("blockworld/world"),
		rng:       opts.Rand,
	}
	if w.blocks == nil {
		w.blocks = block.DefaultRegistry()
	}
	if w.realizer == nil {
		w.realizer = NewHeadlessRealizer()
	}
	if w.metrics == nil {
		w.metrics = NewMetrics(nil)
	}
	if w.log == nil {
		w.log = logging.GetWorldLogger()
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	w.economy = NewEconomy(opts.Pickups, w.blocks, w.observer)

	if !known {
		w.log.Warn("Неизвестное измерение %q, используется тема %s", opts.Dimension, theme.Name)
	}

	if opts.FreshSession && w.store != nil {
		if err := w.store.Reset(ctx, w.id); err != nil {
			return nil, fmt.Errorf("reset world %s: %w", w.id, err)
		}
		w.log.Info("Мир %s очищен перед новой сессией", w.id)
	}

	if err := w.bootstrapSeed(ctx, opts.Seed); err != nil {
		return nil, err
	}
	if err := w.loadLedger(ctx); err != nil {
		return nil, err
	}

	w.startSession()
	w.log.Info("Мир %s (%s) готов: %dx%d, сид (%.2f, %.2f), записей журнала %d",
		w.id, w.theme.Name, e.Width, e.Depth, w.seed.OffsetX, w.seed.OffsetZ, w.ledger.Len())
	return w, nil
}

// ValidateID проверяет идентификатор мира. ':' разделяет части ключа хранилища,
// поэтому в идентификаторе запрещён: иначе префикс мира "a" покрыл бы мир "a:b".
func ValidateID(id string) error {
	if id == "" || strings.ContainsRune(id, ':') {
		return fmt.Errorf("%w: %q", ErrInvalidWorldID, id)
	}
	return nil
}

func (w *World) bootstrapSeed(ctx context.Context, fixed *Seed) error {
	if fixed != nil {
		w.seed = *fixed
		w.seed.Scale = w.params.NoiseScale
		return w.saveSeed(ctx)
	}

	if w.store != nil {
		seed, ok, err := w.store.LoadSeed(ctx, w.id)
		if err != nil {
			return fmt.Errorf("load seed for %s: %w", w.id, err)
		}
		if ok {
			seed.Scale = w.params.NoiseScale
			w.seed = seed
			return nil
		}
	}

	w.seed = NewRandomSeed(w.rng, w.params.NoiseScale)
	return w.saveSeed(ctx)
}

func (w *World) saveSeed(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	if err := w.store.SaveSeed(ctx, w.id, w.seed); err != nil {
		return fmt.Errorf("save seed for %s: %w", w.id, err)
	}
	return nil
}

func (w *World) loadLedger(ctx context.Context) error {
	if w.store == nil {
		w.ledger = NewLedger()
		return nil
	}
	l, err := w.store.LoadLedger(ctx, w.id)
	if err != nil {
		return fmt.Errorf("load ledger for %s: %w", w.id, err)
	}
	if l == nil {
		l = NewLedger()
	}
	w.ledger = l
	return nil
}

// startSession собирает оракул, отсекатель и планировщики поверх текущих сида и журнала
func (w *World) startSession() {
	w.heights = NewHeightField(w.seed, w.params.Extent.MaxHeight)
	w.oracle = NewOracle(w.ledger, w.heights, w.params.Extent, w.theme, w.params.FluidLevel, w.params.StoneDepth)
	w.culler = NewCuller(w.oracle, w.params.Extent)
	if w.instances == nil {
		w.instances = NewInstanceRegistry()
	}
	w.gen = newGeneration(w)
	w.view = NewViewDistance(w.instances, w.observer, w.params.ViewDistance, w.params.ViewInterval, w.log)
	w.metrics.instances.Set(float64(w.instances.Len()))
}

// Tick продвигает генерацию на одну порцию и обслуживает дальность прорисовки
func (w *World) Tick(ctx context.Context, now time.Time) {
	w.mu.Lock()
	if !w.gen.Done() {
		w.gen.Step(ctx, w.params.BatchQuota)
	}
	w.view.Update(now)
	pending := w.takeOutbox()
	w.mu.Unlock()

	w.flush(ctx, pending)
}

// GenerateAll доводит текущую генерацию до конца без ожидания тиков
func (w *World) GenerateAll(ctx context.Context) {
	w.mu.Lock()
	for !w.gen.Step(ctx, w.params.BatchQuota) {
	}
	pending := w.takeOutbox()
	w.mu.Unlock()

	w.flush(ctx, pending)
}

// Run запускает игровой цикл с заданным интервалом тика до отмены контекста
func (w *World) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.Tick(ctx, now)
		}
	}
}

// Reset сбрасывает реестр и запускает генерацию заново.
// При wipe все ключи мира удаляются, создаётся новый сид и пустой журнал.
func (w *World) Reset(ctx context.Context, wipe bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.instances.Clear()

	if wipe {
		if w.store != nil {
			if err := w.store.Reset(ctx, w.id); err != nil {
				return fmt.Errorf("reset world %s: %w", w.id, err)
			}
		}
		w.seed = NewRandomSeed(w.rng, w.params.NoiseScale)
		if err := w.saveSeed(ctx); err != nil {
			return err
		}
		w.ledger = NewLedger()
	}

	w.startSession()
	w.log.Info("Мир %s сброшен (wipe=%v), генерация начата заново", w.id, wipe)
	return nil
}

// Close освобождает все представления
func (w *World) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.instances.Clear()
	w.metrics.instances.Set(0)
}

// realize материализует блок, если позиция ещё не зарегистрирована
func (w *World) realize(p vec.Vec3, t block.BlockType) bool {
	if t == block.None || w.instances.Has(p) {
		return false
	}

	repr, ok := w.blocks.Representation(t)
	if !ok {
		w.log.Warn("Нет представления для блока %s, позиция %v пропущена", t, p)
		w.metrics.skipped.WithLabelValues("no_representation").Inc()
		return false
	}

	h, err := w.realizer.Realize(p, t, repr)
	if err != nil {
		w.log.Warn("Не удалось материализовать %s в %v: %v", t, p, err)
		w.metrics.skipped.WithLabelValues("realize_error").Inc()
		return false
	}

	w.instances.Add(p, Instance{Type: t, Handle: h})
	w.metrics.instances.Set(float64(w.instances.Len()))
	return true
}

// persistLedger синхронно сохраняет журнал; ошибки не прерывают правку
func (w *World) persistLedger(ctx context.Context) {
	if w.store == nil {
		return
	}
	if err := w.store.SaveLedger(ctx, w.id, w.ledger); err != nil {
		w.log.Error("Не удалось сохранить журнал мира %s: %v", w.id, err)
	}
}

// placeObserver ставит наблюдателя над центром мира и гасит его скорость
func (w *World) placeObserver() {
	if w.observer == nil {
		return
	}
	if _, ok := w.observer.Position(); !ok {
		w.log.Warn("Наблюдатель недоступен, размещение пропущено")
		return
	}

	c := w.params.Extent.Center()
	top := w.heights.HeightAt(c.X, c.Z)
	if w.theme.HasFluid() && w.params.FluidLevel > top {
		top = w.params.FluidLevel
	}

	w.observer.Teleport(vec.Vec3Float{X: float64(c.X), Y: float64(top + 2), Z: float64(c.Z)})
	w.observer.ResetVelocity()
}

// ID возвращает идентификатор мира
func (w *World) ID() string {
	return w.id
}

// Theme возвращает тему измерения
func (w *World) Theme() Theme {
	return w.theme
}

// Seed возвращает сид текущей сессии
func (w *World) Seed() Seed {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seed
}

// HeightAt возвращает высоту столбца
func (w *World) HeightAt(x, z int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.heights.HeightAt(x, z)
}

// IsSolid сообщает, занята ли позиция
func (w *World) IsSolid(p vec.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.oracle.IsSolid(p)
}

// ResolveType возвращает тип блока в позиции
func (w *World) ResolveType(p vec.Vec3) block.BlockType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.oracle.ResolveType(p)
}

// NeedsRealization сообщает, должен ли твёрдый блок быть материализован
func (w *World) NeedsRealization(p vec.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.culler.NeedsRealization(p)
}

// Instance возвращает материализованный блок
func (w *World) Instance(p vec.Vec3) (Instance, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.instances.Get(p)
}

// InstancePositions возвращает позиции всех материализованных блоков
func (w *World) InstancePositions() []vec.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.instances.Positions()
}

// LedgerSnapshot возвращает копию журнала
func (w *World) LedgerSnapshot() *Ledger {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Clone()
}

// Generating сообщает, идёт ли генерация
func (w *World) Generating() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.gen.Done()
}

// BlockInfo - сведения о позиции
type BlockInfo struct {
	Pos      vec.Vec3 `json:"pos"`
	Type     string   `json:"type"`
	Solid    bool     `json:"solid"`
	Realized bool     `json:"realized"`
	Active   bool     `json:"active"`
	Edited   bool     `json:"edited"`
}

// Inspect возвращает сведения о позиции
func (w *World) Inspect(p vec.Vec3) BlockInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	info := BlockInfo{
		Pos:   p,
		Type:  w.oracle.ResolveType(p).String(),
		Solid: w.oracle.IsSolid(p),
	}
	if inst, ok := w.instances.Get(p); ok {
		info.Realized = true
		info.Active = inst.Handle != nil && inst.Handle.Active()
	}
	_, info.Edited = w.ledger.Get(p)
	return info
}

// Stats - сводка состояния мира
type Stats struct {
	ID         string  `json:"id"`
	Dimension  string  `json:"dimension"`
	Theme      string  `json:"theme"`
	SeedX      float64 `json:"seed_x"`
	SeedZ      float64 `json:"seed_z"`
	Instances  int     `json:"instances"`
	LedgerSize int     `json:"ledger_size"`
	Generating bool    `json:"generating"`
	Phase      string  `json:"phase"`
	Progress   float64 `json:"progress"`
	Generated  int     `json:"generated"` // блоков, материализованных текущей генерацией
}

// Stats возвращает сводку состояния мира
func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Stats{
		ID:         w.id,
		Dimension:  w.dimension,
		Theme:      w.theme.Name,
		SeedX:      w.seed.OffsetX,
		SeedZ:      w.seed.OffsetZ,
		Instances:  w.instances.Len(),
		LedgerSize: w.ledger.Len(),
		Generating: !w.gen.Done(),
		Phase:      w.gen.phase.String(),
		Progress:   w.gen.Progress(),
		Generated:  w.gen.Realized(),
	}
}
