package world

import (
	"context"
	"math/rand"
	"time"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

type genPhase int

const (
	phaseHeights genPhase = iota
	phaseColumns
	phaseLedger
	phaseTrees
	phaseObserver
	phaseDone
)

func (p genPhase) String() string {
	switch p {
	case phaseHeights:
		return "heights"
	case phaseColumns:
		return "columns"
	case phaseLedger:
		return "ledger"
	case phaseTrees:
		return "trees"
	case phaseObserver:
		return "observer"
	default:
		return "done"
	}
}

// Generation - возобновляемый курсор генерации мира.
// Каждый вызов Step материализует не больше квоты блоков и запоминает позицию.
type Generation struct {
	w     *World
	phase genPhase

	columns []vec.Vec2
	col     int
	y       int

	pending []vec.Vec3
	trees   []vec.Vec2
	idx     int
	dirty   bool

	realized int
	steps    int
	started  time.Time
}

func newGeneration(w *World) *Generation {
	return &Generation{w: w, started: time.Now()}
}

// Done сообщает о завершении генерации
func (g *Generation) Done() bool {
	return g.phase == phaseDone
}

// Realized возвращает число блоков, материализованных генерацией
func (g *Generation) Realized() int {
	return g.realized
}

// Progress возвращает долю обработанных столбцов
func (g *Generation) Progress() float64 {
	switch {
	case g.phase == phaseDone:
		return 1
	case len(g.columns) == 0:
		return 0
	}
	return float64(g.col) / float64(len(g.columns))
}

// Step продвигает генерацию. quota <= 0 - без ограничения.
// Возвращает true, когда генерация завершена.
func (g *Generation) Step(ctx context.Context, quota int) bool {
	budget := quota
	if budget <= 0 {
		budget = -1
	}
	g.steps++

	for g.phase != phaseDone {
		switch g.phase {
		case phaseHeights:
			g.w.heights.Precompute(g.w.params.Extent)
			g.columns = g.w.params.Extent.Columns()
			g.phase = phaseColumns

		case phaseColumns:
			if !g.stepColumns(&budget) {
				return false
			}
			g.pending = g.ledgerPlacements()
			g.idx = 0
			g.phase = phaseLedger

		case phaseLedger:
			if !g.stepLedger(&budget) {
				return false
			}
			g.trees = g.pickTrees()
			g.idx = 0
			g.phase = phaseTrees

		case phaseTrees:
			if !g.stepTrees(&budget) {
				return false
			}
			if g.dirty {
				g.w.persistLedger(ctx)
				g.dirty = false
			}
			g.phase = phaseObserver

		case phaseObserver:
			g.w.placeObserver()
			g.finish()
		}
	}
	return true
}

// spend учитывает материализованный блок; false - квота исчерпана
func (g *Generation) spend(budget *int) bool {
	g.realized++
	*budget--
	return *budget != 0
}

func (g *Generation) stepColumns(budget *int) bool {
	w := g.w
	for g.col < len(g.columns) {
		c := g.columns[g.col]
		top := w.heights.HeightAt(c.X, c.Z)
		if w.theme.HasFluid() && w.params.FluidLevel > top {
			top = w.params.FluidLevel
		}

		for g.y <= top {
			p := c.At(g.y)
			g.y++
			if g.realizeCell(p) && !g.spend(budget) {
				return false
			}
		}

		g.col++
		g.y = 0
		w.metrics.generationProg.Set(g.Progress())
	}
	return true
}

// realizeCell обрабатывает ячейку столбца: рельеф с отсечением, жидкость без него
func (g *Generation) realizeCell(p vec.Vec3) bool {
	w := g.w
	if e, ok := w.ledger.Get(p); ok && e.Kind == EntryDestroyed {
		return false
	}
	if w.oracle.InFluidBand(p) {
		return w.realize(p, w.oracle.ResolveType(p))
	}
	if !w.oracle.IsSolid(p) || !w.culler.NeedsRealization(p) {
		return false
	}
	return w.realize(p, w.oracle.ResolveType(p))
}

// ledgerPlacements возвращает поставленные блоки вне диапазонов столбцов
func (g *Generation) ledgerPlacements() []vec.Vec3 {
	w := g.w
	var out []vec.Vec3
	for _, p := range w.ledger.Positions() {
		e, _ := w.ledger.Get(p)
		if e.Kind != EntryPlaced {
			continue
		}
		if w.instances.Has(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (g *Generation) stepLedger(budget *int) bool {
	w := g.w
	for g.idx < len(g.pending) {
		p := g.pending[g.idx]
		g.idx++
		if !w.culler.NeedsRealization(p) {
			continue
		}
		if w.realize(p, w.oracle.ResolveType(p)) && !g.spend(budget) {
			return false
		}
	}
	return true
}

// pickTrees детерминированно выбирает столбцы для деревьев из тех, что не ниже уровня жидкости
func (g *Generation) pickTrees() []vec.Vec2 {
	w := g.w
	p := w.params
	if !w.theme.GenerateTrees || p.MaxTrees <= 0 {
		return nil
	}

	var candidates []vec.Vec2
	for _, c := range g.columns {
		if w.heights.HeightAt(c.X, c.Z) >= p.FluidLevel {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	minTrees, maxTrees := p.MinTrees, p.MaxTrees
	if minTrees < 0 {
		minTrees = 0
	}
	if minTrees > maxTrees {
		minTrees = maxTrees
	}

	rng := rand.New(rand.NewSource(w.seed.derivedSource()))
	n := minTrees + rng.Intn(maxTrees-minTrees+1)
	if n > len(candidates) {
		n = len(candidates)
	}

	out := make([]vec.Vec2, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		out = append(out, candidates[i])
	}
	return out
}

func (g *Generation) stepTrees(budget *int) bool {
	w := g.w
	for g.idx < len(g.trees) {
		c := g.trees[g.idx]
		g.idx++

		target := c.At(w.heights.HeightAt(c.X, c.Z) + 1)
		e, ok := w.ledger.Get(target)
		if ok && e.Kind == EntryDestroyed {
			continue
		}
		if !ok {
			w.ledger.MarkPlaced(target, block.Wood)
			g.dirty = true
		}
		if w.realize(target, w.oracle.ResolveType(target)) && !g.spend(budget) {
			return false
		}
	}
	return true
}

func (g *Generation) finish() {
	w := g.w
	g.phase = phaseDone
	elapsed := time.Since(g.started)

	w.metrics.generationProg.Set(1)
	w.metrics.generationSeconds.Observe(elapsed.Seconds())
	w.log.Info("Генерация мира %s завершена: %d блоков за %d шагов (%v)",
		w.id, g.realized, g.steps, elapsed)

	w.enqueue(EventWorldGenerated, GeneratedEvent{
		WorldID:    w.id,
		Dimension:  w.theme.Name,
		Instances:  w.instances.Len(),
		LedgerSize: w.ledger.Len(),
		Seconds:    elapsed.Seconds(),
	})
}
