package world

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/stretchr/testify/require"
)

var testSeed = Seed{OffsetX: 123.4, OffsetZ: -56.7}

// memStore - хранилище журнала в памяти, копирующее данные как настоящее
type memStore struct {
	mu      sync.Mutex
	ledgers map[string]*Ledger
	seeds   map[string]Seed
	saves   int
	resets  int
	failErr error
}

func newMemStore() *memStore {
	return &memStore{ledgers: make(map[string]*Ledger), seeds: make(map[string]Seed)}
}

func (s *memStore) LoadLedger(_ context.Context, id string) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.ledgers[id]; ok {
		return l.Clone(), nil
	}
	return NewLedger(), nil
}

func (s *memStore) SaveLedger(_ context.Context, id string, l *Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.saves++
	s.ledgers[id] = l.Clone()
	return nil
}

func (s *memStore) LoadSeed(_ context.Context, id string) (Seed, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed, ok := s.seeds[id]
	return seed, ok, nil
}

func (s *memStore) SaveSeed(_ context.Context, id string, seed Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds[id] = seed
	return nil
}

func (s *memStore) Reset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	delete(s.ledgers, id)
	delete(s.seeds, id)
	return nil
}

type fakeSpawner struct {
	specs []PickupSpec
	fail  bool
}

func (s *fakeSpawner) SpawnPickup(spec PickupSpec) (uint64, error) {
	if s.fail {
		return 0, errors.New("spawn failed")
	}
	s.specs = append(s.specs, spec)
	return uint64(len(s.specs)), nil
}

type fakeObserver struct {
	pos       vec.Vec3Float
	available bool
	teleports int
	velResets int
	bodyID    uint64
}

func (o *fakeObserver) Position() (vec.Vec3Float, bool) { return o.pos, o.available }
func (o *fakeObserver) Teleport(p vec.Vec3Float)        { o.pos = p; o.teleports++ }
func (o *fakeObserver) ResetVelocity()                  { o.velResets++ }
func (o *fakeObserver) BodyID() uint64                  { return o.bodyID }

type recordedEvent struct {
	kind    string
	payload interface{}
}

type fakeSink struct {
	events    []recordedEvent
	onPublish func(kind string)
}

func (s *fakeSink) Publish(_ context.Context, kind string, payload interface{}) error {
	if s.onPublish != nil {
		s.onPublish(kind)
	}
	s.events = append(s.events, recordedEvent{kind: kind, payload: payload})
	return nil
}

func (s *fakeSink) count(kind string) int {
	n := 0
	for _, e := range s.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// smallParams - мир 4x4 высотой 8 без деревьев и жидкости
func smallParams() Params {
	return Params{
		Extent:       Extent{Width: 4, Depth: 4, MaxHeight: 8},
		FluidLevel:   0,
		StoneDepth:   2,
		NoiseScale:   20,
		BatchQuota:   16,
		ViewDistance: 32,
		ViewInterval: 0,
	}
}

type testEnv struct {
	store    *memStore
	spawner  *fakeSpawner
	observer *fakeObserver
	sink     *fakeSink
	realizer *HeadlessRealizer
}

func newTestEnv() *testEnv {
	return &testEnv{
		store:    newMemStore(),
		spawner:  &fakeSpawner{},
		observer: &fakeObserver{available: true, bodyID: 42},
		sink:     &fakeSink{},
		realizer: NewHeadlessRealizer(),
	}
}

func (e *testEnv) options(params Params) Options {
	seed := testSeed
	return Options{
		ID:        "test",
		Dimension: "OverWorld",
		Params:    params,
		Seed:      &seed,
		Realizer:  e.realizer,
		Observer:  e.observer,
		Pickups:   e.spawner,
		Store:     e.store,
		Events:    e.sink,
		Logger:    logging.NewWriterLogger("world", io.Discard, logging.WARN),
	}
}

// open создаёт мир и доводит генерацию до конца
func (e *testEnv) open(t *testing.T, opts Options) *World {
	t.Helper()
	w, err := New(context.Background(), opts)
	require.NoError(t, err, "мир должен создаваться")
	w.GenerateAll(context.Background())
	return w
}
