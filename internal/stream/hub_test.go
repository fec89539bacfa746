package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundsense/internal/fhir"
)

func obsWithID(id string) fhir.Observation {
	return fhir.Observation{ResourceType: fhir.ResourceTypeObservation, ID: id, Status: fhir.StatusFinal}
}

func TestSubscriberReceivesPublishedObservations(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	hub.Publish(obsWithID("a"))
	hub.Publish(obsWithID("b"))

	assert.Equal(t, "a", (<-sub.C()).ID)
	assert.Equal(t, "b", (<-sub.C()).ID)
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish(obsWithID("before"))

	sub := hub.Subscribe()
	defer sub.Close()

	hub.Publish(obsWithID("after"))

	assert.Equal(t, "after", (<-sub.C()).ID)
	select {
	case obs := <-sub.C():
		t.Fatalf("unexpected extra observation %q", obs.ID)
	default:
	}
}

func TestSlowSubscriberDropsOldestWithoutBlockingPublish(t *testing.T) {
	hub := NewHub(WithBuffer(2))
	slow := hub.Subscribe()
	defer slow.Close()
	fast := hub.Subscribe()
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		// Nobody drains slow; publish must still return promptly.
		for _, id := range []string{"1", "2", "3", "4"} {
			hub.Publish(obsWithID(id))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// Slow subscriber keeps the newest observations, oldest dropped.
	assert.Equal(t, "3", (<-slow.C()).ID)
	assert.Equal(t, "4", (<-slow.C()).ID)

	// Delivery to the second subscriber happened independently.
	assert.Equal(t, "3", (<-fast.C()).ID)
	assert.Equal(t, "4", (<-fast.C()).ID)
}

func TestConcurrentSubscribersReceiveIndependently(t *testing.T) {
	hub := NewHub()
	subA := hub.Subscribe()
	defer subA.Close()
	subB := hub.Subscribe()
	defer subB.Close()

	hub.Publish(obsWithID("x"))

	assert.Equal(t, "x", (<-subA.C()).ID)
	assert.Equal(t, "x", (<-subB.C()).ID)
}

func TestCloseRemovesSubscriberAndClosesChannel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	sub.Close()
	sub.Close() // idempotent
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-sub.C()
	assert.False(t, open)

	// Publishing after teardown must not panic.
	hub.Publish(obsWithID("y"))
}

func TestConcurrentPublishers(t *testing.T) {
	hub := NewHub(WithBuffer(1024))
	sub := hub.Subscribe()
	defer sub.Close()

	const publishers, perPublisher = 8, 50
	done := make(chan struct{})
	for i := 0; i < publishers; i++ {
		go func() {
			for j := 0; j < perPublisher; j++ {
				hub.Publish(obsWithID("obs"))
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < publishers; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("publisher did not finish")
		}
	}

	received := 0
	for {
		select {
		case <-sub.C():
			received++
		default:
			assert.Equal(t, publishers*perPublisher, received)
			return
		}
	}
}
