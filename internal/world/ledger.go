package world

import (
	"sort"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// EntryKind различает записи журнала изменений
type EntryKind uint8

const (
	EntryDestroyed EntryKind = iota // Блок снесён, позиция пуста
	EntryPlaced                     // Игрок поставил блок
)

// Entry - запись журнала изменений для одной позиции
type Entry struct {
	Kind EntryKind
	Type block.BlockType // Только для EntryPlaced
}

// DestroyedEntry возвращает запись о снесённом блоке
func DestroyedEntry() Entry {
	return Entry{Kind: EntryDestroyed}
}

// PlacedEntry возвращает запись о поставленном блоке
func PlacedEntry(t block.BlockType) Entry {
	return Entry{Kind: EntryPlaced, Type: t}
}

// Code возвращает код записи для сериализации: 0 - снесён, иначе код типа
func (e Entry) Code() int {
	if e.Kind == EntryDestroyed {
		return 0
	}
	return int(e.Type)
}

// EntryFromCode восстанавливает запись по коду сериализации
func EntryFromCode(code int) (Entry, bool) {
	if code == 0 {
		return DestroyedEntry(), true
	}
	t := block.BlockType(code)
	if code < 0 || int(t) != code || !t.Valid() {
		return Entry{}, false
	}
	return PlacedEntry(t), true
}

// Ledger хранит отличия мира от процедурной базы.
// Записи не удаляются, только перезаписываются.
type Ledger struct {
	entries map[vec.Vec3]Entry
}

// NewLedger создаёт пустой журнал
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[vec.Vec3]Entry)}
}

// Get возвращает запись по позиции
func (l *Ledger) Get(p vec.Vec3) (Entry, bool) {
	e, ok := l.entries[p]
	return e, ok
}

// Set записывает (или перезаписывает) запись
func (l *Ledger) Set(p vec.Vec3, e Entry) {
	l.entries[p] = e
}

// MarkDestroyed отмечает позицию как снесённую
func (l *Ledger) MarkDestroyed(p vec.Vec3) {
	l.entries[p] = DestroyedEntry()
}

// MarkPlaced отмечает позицию как занятую блоком t
func (l *Ledger) MarkPlaced(p vec.Vec3, t block.BlockType) {
	l.entries[p] = PlacedEntry(t)
}

// Len возвращает количество записей
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Positions возвращает позиции записей в стабильном порядке (y, x, z)
func (l *Ledger) Positions() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(l.entries))
	for p := range l.entries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return out
}

// Clone возвращает независимую копию журнала
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{entries: make(map[vec.Vec3]Entry, len(l.entries))}
	for p, e := range l.entries {
		c.entries[p] = e
	}
	return c
}
