package events

import (
	"context"
	"testing"
)

func TestBus_SubscribeOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(e Event) { got = append(got, "first:"+string(e.Type)) })
	bus.Subscribe(func(e Event) { got = append(got, "second:"+string(e.Type)) })

	bus.Notify(context.Background(), Event{Type: GraphStarted})

	if len(got) != 2 || got[0] != "first:graph.started" || got[1] != "second:graph.started" {
		t.Errorf("unexpected delivery order: %v", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0

	unsubscribe := bus.Subscribe(func(Event) { calls++ })
	bus.Notify(context.Background(), Event{Type: NodeStarted})
	unsubscribe()
	unsubscribe()
	bus.Notify(context.Background(), Event{Type: NodeStarted})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if bus.Len() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.Len())
	}
}

func TestBus_Channel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Channel(1)

	bus.Notify(context.Background(), Event{Type: SwarmCreated, SwarmID: "s-1"})
	// Буфер полон — событие отбрасывается, Notify не блокируется
	bus.Notify(context.Background(), Event{Type: SwarmDeleted, SwarmID: "s-1"})

	e := <-ch
	if e.Type != SwarmCreated || e.SwarmID != "s-1" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if bus.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", bus.Dropped())
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
}

func TestMulti(t *testing.T) {
	var a, b int
	m := Multi{
		NotifierFunc(func(context.Context, Event) { a++ }),
		nil,
		NotifierFunc(func(context.Context, Event) { b++ }),
	}

	m.Notify(context.Background(), Event{Type: GraphCompleted})

	if a != 1 || b != 1 {
		t.Errorf("expected both notifiers called once, got a=%d b=%d", a, b)
	}
}
