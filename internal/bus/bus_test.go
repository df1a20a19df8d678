package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PrefixMatching(t *testing.T) {
	b := New()
	all := b.Subscribe("")
	store := b.Subscribe("store.")
	other := b.Subscribe("identity.")

	b.Publish("store.changed", 42)

	ev := <-all.Ch()
	assert.Equal(t, "store.changed", ev.Topic)
	assert.Equal(t, 42, ev.Payload)

	ev = <-store.Ch()
	assert.Equal(t, "store.changed", ev.Topic)

	select {
	case ev := <-other.Ch():
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestBus_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	sub := b.Subscribe("")

	for i := 0; i < defaultBufferSize+10; i++ {
		b.Publish("store.changed", i)
	}
	assert.Len(t, sub.Ch(), defaultBufferSize)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe("")
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub.Ch()
	assert.False(t, open)

	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
	b.Publish("store.changed", nil)
}
