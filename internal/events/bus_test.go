package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(Event{Topic: TopicSignalCreated, UserID: "u1", Payload: "hello"})

	select {
	case e := <-ch:
		if e.Topic != TopicSignalCreated || e.UserID != "u1" {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBus()
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Overfill the subscriber buffer; extra events must drop.
		for i := 0; i < 100; i++ {
			b.Publish(Event{Topic: TopicBalanceUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	b := NewBus()
	_, cancel := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("count = %d, want 1", b.SubscriberCount())
	}
	cancel()
	cancel() // idempotent
	if b.SubscriberCount() != 0 {
		t.Errorf("count = %d, want 0", b.SubscriberCount())
	}
}
