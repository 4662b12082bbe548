package events

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vudy/otc-desk/internal/models"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	s1 := bus.Subscribe(4)
	s2 := bus.Subscribe(4)
	defer s1.Close()
	defer s2.Close()

	ev := models.TradeEvent{
		Event:         models.EventTransactionCreated,
		TransactionID: uuid.New(),
		Code:          "OTC-1",
		Status:        models.StatusPending,
	}
	bus.Publish(ev)

	for _, s := range []*Subscription{s1, s2} {
		select {
		case got := <-s.C:
			assert.Equal(t, ev.TransactionID, got.TransactionID)
			assert.Equal(t, models.EventTransactionCreated, got.Event)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_CloseDeregisters(t *testing.T) {
	bus := NewBus()

	s := bus.Subscribe(1)
	assert.Equal(t, 1, bus.Len())

	s.Close()
	assert.Equal(t, 0, bus.Len())

	// Close is idempotent
	assert.NotPanics(t, s.Close)

	// Channel is closed after Close
	_, ok := <-s.C
	assert.False(t, ok)
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()

	slow := bus.Subscribe(1)
	defer slow.Close()

	// Second publish overflows the buffer and must not block
	done := make(chan struct{})
	go func() {
		bus.Publish(models.TradeEvent{Event: models.EventTransactionCreated})
		bus.Publish(models.TradeEvent{Event: models.EventTransactionUpdated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	got := <-slow.C
	assert.Equal(t, models.EventTransactionCreated, got.Event)
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := bus.Subscribe(8)
			bus.Publish(models.TradeEvent{Event: models.EventTransactionUpdated})
			s.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.Len())
}
