package block

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BlockType представляет тип блока. Числовое значение используется
// как код типа в сохранённом журнале изменений, поэтому менять его нельзя.
type BlockType uint16

// Константы типов блоков
const (
	None       BlockType = iota // 0 - воздух / разрушенный блок
	Dirt                        // 1
	Grass                       // 2
	Water                       // 3
	Iron                        // 4
	Wood                        // 5
	Stone                       // 6
	Sand                        // 7
	Netherrack                  // 8
	Lava                        // 9
	EndStone                    // 10

	maxBlockType // всегда последний
)

var typeNames = [...]string{
	None:       "None",
	Dirt:       "Dirt",
	Grass:      "Grass",
	Water:      "Water",
	Iron:       "Iron",
	Wood:       "Wood",
	Stone:      "Stone",
	Sand:       "Sand",
	Netherrack: "Netherrack",
	Lava:       "Lava",
	EndStone:   "EndStone",
}

// String возвращает имя типа
func (t BlockType) String() string {
	if t < maxBlockType {
		return typeNames[t]
	}
	return fmt.Sprintf("BlockType(%d)", uint16(t))
}

// Valid проверяет, что код относится к известному типу
func (t BlockType) Valid() bool {
	return t < maxBlockType
}

// ParseBlockType разбирает имя типа без учёта регистра
func ParseBlockType(name string) (BlockType, error) {
	for i, n := range typeNames {
		if strings.EqualFold(n, name) {
			return BlockType(i), nil
		}
	}
	return None, fmt.Errorf("неизвестный тип блока: %q", name)
}

// Definition описывает внешние свойства типа блока: представление для
// рендера/коллизий и экономику выпадения.
type Definition struct {
	Type           BlockType
	Name           string
	Representation string // идентификатор префаба; пусто - представления нет
	DropCount      int    // сколько единиц выпадает при разрушении
	MaxHP          int    // прочность: столько урона выдерживает блок
	Mineable       bool   // false - удары по блоку игнорируются
	Fluid          bool   // жидкости всегда реализуются и не считаются твёрдыми
}

// Registry хранит таблицу BlockType -> Definition.
// Генерация и оракул твёрдости не ветвятся по типам: всё берётся отсюда.
type Registry struct {
	mu   sync.RWMutex
	defs map[BlockType]Definition
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{defs: make(map[BlockType]Definition)}
}

// DefaultRegistry возвращает реестр со стандартным набором блоков
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range defaultDefinitions() {
		r.Register(d)
	}
	return r
}

func defaultDefinitions() []Definition {
	return []Definition{
		{Type: Dirt, Name: "Dirt", Representation: "prefab/dirt", DropCount: 1, MaxHP: 3, Mineable: true},
		{Type: Grass, Name: "Grass", Representation: "prefab/grass", DropCount: 1, MaxHP: 3, Mineable: true},
		{Type: Water, Name: "Water", Representation: "prefab/water", DropCount: 0, MaxHP: 1, Fluid: true},
		// Для железа префаба пока нет: такие клетки пропускаются при реализации
		{Type: Iron, Name: "Iron", Representation: "", DropCount: 1, MaxHP: 6, Mineable: true},
		{Type: Wood, Name: "Wood", Representation: "prefab/wood", DropCount: 3, MaxHP: 4, Mineable: true},
		{Type: Stone, Name: "Stone", Representation: "prefab/stone", DropCount: 1, MaxHP: 5, Mineable: true},
		{Type: Sand, Name: "Sand", Representation: "prefab/sand", DropCount: 1, MaxHP: 2, Mineable: true},
		{Type: Netherrack, Name: "Netherrack", Representation: "prefab/netherrack", DropCount: 1, MaxHP: 3, Mineable: true},
		{Type: Lava, Name: "Lava", Representation: "prefab/lava", DropCount: 0, MaxHP: 1, Fluid: true},
		{Type: EndStone, Name: "EndStone", Representation: "prefab/endstone", DropCount: 1, MaxHP: 5, Mineable: true},
	}
}

// Register добавляет или заменяет описание блока
func (r *Registry) Register(def Definition) {
	if def.Name == "" {
		def.Name = def.Type.String()
	}
	r.mu.Lock()
	r.defs[def.Type] = def
	r.mu.Unlock()
}

// Get возвращает описание для указанного типа
func (r *Registry) Get(t BlockType) (Definition, bool) {
	r.mu.RLock()
	def, exists := r.defs[t]
	r.mu.RUnlock()
	return def, exists
}

// Representation возвращает идентификатор представления; false если его нет
func (r *Registry) Representation(t BlockType) (string, bool) {
	def, exists := r.Get(t)
	if !exists || def.Representation == "" {
		return "", false
	}
	return def.Representation, true
}

// DropCount возвращает число единиц, выпадающих при разрушении
func (r *Registry) DropCount(t BlockType) int {
	def, exists := r.Get(t)
	if !exists || def.DropCount < 0 {
		return 0
	}
	return def.DropCount
}

// Durability возвращает прочность блока; не меньше 1
func (r *Registry) Durability(t BlockType) int {
	def, exists := r.Get(t)
	if !exists || def.MaxHP < 1 {
		return 1
	}
	return def.MaxHP
}

// IsMineable проверяет, можно ли разбить блок ударами
func (r *Registry) IsMineable(t BlockType) bool {
	def, exists := r.Get(t)
	return exists && def.Mineable
}

// IsFluid проверяет, является ли тип жидкостью
func (r *Registry) IsFluid(t BlockType) bool {
	def, exists := r.Get(t)
	return exists && def.Fluid
}

// Types возвращает зарегистрированные типы в порядке кодов
func (r *Registry) Types() []BlockType {
	r.mu.RLock()
	out := make([]BlockType, 0, len(r.defs))
	for t := range r.defs {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
