package events

import (
	"sync"
	"time"
)

const defaultBuffer = 64

// Bus is the in-process broadcast channel between the engine and
// presentation layers. Delivery is best-effort and never blocks the
// publisher: a subscriber whose buffer is full loses the event and is
// expected to re-read state from the repositories when it catches up.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*Subscription
}

// Subscription receives events on C until Close is called. An empty kind
// filter receives everything.
type Subscription struct {
	C chan Event

	id    int
	kinds map[Kind]struct{}
	bus   *Bus
	once  sync.Once
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

func (b *Bus) Subscribe(kinds ...Kind) *Subscription {
	return b.SubscribeBuffered(defaultBuffer, kinds...)
}

func (b *Bus) SubscribeBuffered(buffer int, kinds ...Kind) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	sub := &Subscription{
		C:   make(chan Event, buffer),
		bus: b,
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub
}

// Publish fans the event out to matching subscribers. Full subscriber
// buffers are skipped, not waited on.
func (b *Bus) Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.kinds != nil {
			if _, ok := sub.kinds[e.Kind]; !ok {
				continue
			}
		}
		select {
		case sub.C <- e:
		default:
		}
	}
}

// Close detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		close(s.C)
		s.bus.mu.Unlock()
	})
}
