package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Приоритеты событий мира: правки не дропаются при переполнении
var worldEventPriority = map[string]int{
	"block.destroyed": 7,
	"block.placed":    7,
	"item.dropped":    3,
	"world.generated": 5,
}

// WorldPublisher упаковывает события мира в Envelope и публикует их в шину.
// Подходит в качестве world.EventSink.
type WorldPublisher struct {
	bus     EventBus
	source  string
	worldID string
}

// NewWorldPublisher создаёт издателя событий для мира worldID
func NewWorldPublisher(bus EventBus, source, worldID string) *WorldPublisher {
	return &WorldPublisher{bus: bus, source: source, worldID: worldID}
}

// NewEnvelope создаёт конверт с новым UUID и JSON-полезной нагрузкой
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   data,
	}, nil
}

// Publish публикует событие мира
func (p *WorldPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	ev, err := NewEnvelope(p.source, eventType, payload)
	if err != nil {
		return err
	}
	ev.WorldID = p.worldID
	ev.Priority = worldEventPriority[eventType]
	return p.bus.Publish(ctx, ev)
}
