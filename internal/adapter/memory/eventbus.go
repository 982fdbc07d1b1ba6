package memory

import (
	"context"
	"sync"

	"github.com/alanyang/prodline/internal/domain/event"
	porteventbus "github.com/alanyang/prodline/internal/port/eventbus"
)

var _ porteventbus.EventBus = (*EventBus)(nil)

// EventBus delivers events to in-process subscribers synchronously, in
// publish order.
type EventBus struct {
	mu   sync.RWMutex
	subs map[event.Channel]map[*subscription]porteventbus.Handler
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[event.Channel]map[*subscription]porteventbus.Handler)}
}

func (b *EventBus) Publish(ctx context.Context, e event.Event) error {
	ch := event.ChannelFor(e.Type)
	b.mu.RLock()
	handlers := make([]porteventbus.Handler, 0, len(b.subs[ch]))
	for _, h := range b.subs[ch] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	sub := &subscription{bus: b, ch: ch}
	b.mu.Lock()
	if b.subs[ch] == nil {
		b.subs[ch] = make(map[*subscription]porteventbus.Handler)
	}
	b.subs[ch][sub] = handler
	b.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			sub.Unsubscribe()
		}()
	}
	return sub, nil
}

type subscription struct {
	bus  *EventBus
	ch   event.Channel
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.ch], s)
		s.bus.mu.Unlock()
	})
}
