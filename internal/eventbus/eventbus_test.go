package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.EventType)
	}
	return out
}

func TestMemoryBus_DeliversInOrderWithFilter(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(16)

	all := &collector{}
	placed := &collector{}
	_, err := bus.Subscribe(ctx, Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{Types: []string{"block.placed"}}, placed.handle)
	require.NoError(t, err)

	for _, typ := range []string{"block.placed", "block.destroyed", "block.placed"} {
		require.NoError(t, bus.Publish(ctx, &Envelope{EventType: typ}))
	}
	require.NoError(t, bus.Close(), "Close дожидается доставки")

	assert.Equal(t, []string{"block.placed", "block.destroyed", "block.placed"}, all.types(), "порядок сохраняется")
	assert.Equal(t, []string{"block.placed", "block.placed"}, placed.types(), "фильтр по типу")

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(5), stats.Consumed)

	assert.ErrorIs(t, bus.Publish(ctx, &Envelope{}), ErrClosed)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(4)
	defer bus.Close()

	c := &collector{}
	sub, err := bus.Subscribe(ctx, Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "x"}))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c.types(), "после отписки события не приходят")
}

func TestWorldPublisher(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(8)

	c := &collector{}
	_, err := bus.Subscribe(ctx, Filter{}, c.handle)
	require.NoError(t, err)

	pub := NewWorldPublisher(bus, "blockworld", "overworld")
	require.NoError(t, pub.Publish(ctx, "block.destroyed", map[string]int{"x": 1}))
	require.NoError(t, bus.Close())

	require.Len(t, c.events, 1)
	ev := c.events[0]
	_, err = uuid.Parse(ev.ID)
	assert.NoError(t, err, "ID события - UUID")
	assert.Equal(t, "overworld", ev.WorldID)
	assert.Equal(t, "blockworld", ev.Source)
	assert.Equal(t, 7, ev.Priority)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, 1, payload["x"])
}

func TestNewEnvelope_BadPayload(t *testing.T) {
	_, err := NewEnvelope("src", "x", func() {})
	assert.Error(t, err)
}

func TestMetricsExporter_Sync(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "a"}))
	require.NoError(t, bus.Publish(ctx, &Envelope{EventType: "b"}))

	prev := me.sync(Stats{})
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published))

	me.sync(prev)
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published), "повторная синхронизация без новых событий")
	require.NoError(t, bus.Close())
}
