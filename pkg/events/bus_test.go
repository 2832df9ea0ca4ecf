package events

import (
	"sync"
	"testing"
	"time"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []uint
	)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		bus.Subscribe(AssessmentPublished, func(data interface{}) {
			defer wg.Done()
			ev, ok := data.(AssessmentPublishedEvent)
			if !ok {
				t.Errorf("unexpected payload type %T", data)
				return
			}
			mu.Lock()
			got = append(got, ev.AssessmentID)
			mu.Unlock()
		})
	}

	bus.Publish(AssessmentPublished, AssessmentPublishedEvent{AssessmentID: 7, BatchID: 3, Title: "期中测评"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers not invoked in time")
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	for _, id := range got {
		if id != 7 {
			t.Errorf("expected assessment id 7, got %d", id)
		}
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	// 不应 panic 或阻塞
	bus.Publish(AttemptSubmitted, AttemptSubmittedEvent{AttemptID: "a1"})
}
