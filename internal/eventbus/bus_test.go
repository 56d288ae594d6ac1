package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"glowd/internal/metrics"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewWithConfig(1, 16)
	defer b.Close(context.Background())

	got := make(chan string, 3)
	b.Subscribe(EventTypeLight, func(ev Event) {
		id, _ := ev.Data["request_id"].(string)
		got <- id
	})
	b.Subscribe(EventTypeSlider, func(Event) {
		t.Error("slider handler invoked for light event")
	})

	for _, id := range []string{"a", "b", "c"} {
		b.Publish(Event{Type: EventTypeLight, Data: map[string]interface{}{"request_id": id}})
	}

	// A single worker delivers in publish order.
	for _, want := range []string{"a", "b", "c"} {
		select {
		case id := <-got:
			if id != want {
				t.Fatalf("delivery = %q, want %q", id, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %q was not delivered", want)
		}
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	b := NewWithConfig(1, 1)
	defer b.Close(context.Background())

	entered := make(chan string, 3)
	release := make(chan struct{})
	b.Subscribe(EventTypeLight, func(ev Event) {
		id, _ := ev.Data["request_id"].(string)
		entered <- id
		<-release
	})

	pub := func(id string) {
		b.Publish(Event{Type: EventTypeLight, Data: map[string]interface{}{"request_id": id}})
	}

	pub("a")
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first event never reached the handler")
	}

	// The worker is parked in the handler, so the second event fills the
	// queue and the third has nowhere to go.
	pub("b")
	pub("c")

	close(release)

	select {
	case id := <-entered:
		if id != "b" {
			t.Fatalf("second delivery = %q, want b", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second event never reached the handler")
	}

	select {
	case id := <-entered:
		t.Fatalf("dropped event %q was delivered", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := NewWithConfig(1, 16)
	b.Subscribe(EventTypeLight, func(Event) {
		t.Error("handler invoked after close")
	})
	b.Close(context.Background())

	before := testutil.ToFloat64(metrics.BusDropped)
	b.Publish(Event{Type: EventTypeLight})
	if got := testutil.ToFloat64(metrics.BusDropped) - before; got != 1 {
		t.Errorf("dropped counter delta = %v, want 1", got)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	b := NewWithConfig(1, 16)
	defer b.Close(context.Background())

	done := make(chan struct{})
	b.Subscribe(EventTypeLight, func(Event) { panic("boom") })
	b.Subscribe(EventTypeLight, func(Event) { close(done) })

	b.Publish(Event{Type: EventTypeLight})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run after first panicked")
	}
}
