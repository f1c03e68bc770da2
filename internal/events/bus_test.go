package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(Event{Kind: KindMessageCreated, SubjectID: "alice_bob"})

	select {
	case evt := <-sub.C:
		assert.Equal(t, KindMessageCreated, evt.Kind)
		assert.Equal(t, "alice_bob", evt.SubjectID)
		assert.False(t, evt.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscribeFiltersByKind(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(KindConversationAccepted)
	defer sub.Close()

	bus.Publish(Event{Kind: KindMessageCreated})
	bus.Publish(Event{Kind: KindConversationAccepted})

	evt := <-sub.C
	assert.Equal(t, KindConversationAccepted, evt.Kind)
	assert.Empty(t, sub.C)
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.SubscribeBuffered(1)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Kind: KindMessageCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	// Exactly the buffered event survives.
	assert.Len(t, sub.C, 1)
}

func TestCloseDetachesSubscription(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	sub.Close()
	sub.Close() // safe to repeat

	bus.Publish(Event{Kind: KindMessageCreated})

	_, ok := <-sub.C
	require.False(t, ok)
}
