package natsbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shaiso/Colony/internal/events"
)

func startTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()

	srv, err := StartServer(RandomPort)
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(srv.Close)

	client, err := Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(client.Close)

	return srv, client
}

func TestPubSub(t *testing.T) {
	_, client := startTestServer(t)

	received := make(chan string, 1)
	if _, err := client.Subscribe("test.topic", func(msg *nats.Msg) {
		received <- string(msg.Data)
	}); err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	if err := client.Publish("test.topic", []byte("hello")); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	client.Flush()

	select {
	case data := <-received:
		if data != "hello" {
			t.Errorf("expected 'hello', got '%s'", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestEventPublisher_RoutesBySubject(t *testing.T) {
	_, client := startTestServer(t)

	graphCh := make(chan events.Event, 4)
	swarmCh := make(chan events.Event, 4)

	subscribe := func(subject string, ch chan events.Event) {
		if _, err := client.Subscribe(subject, func(msg *nats.Msg) {
			var e events.Event
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				t.Errorf("unmarshal event: %v", err)
				return
			}
			ch <- e
		}); err != nil {
			t.Fatalf("subscribe error: %v", err)
		}
	}
	subscribe(AllGraphEvents, graphCh)
	subscribe(TopicSwarm("s1"), swarmCh)
	client.Flush()

	pub := NewEventPublisher(client, nil)
	pub.Notify(context.Background(), events.Event{Type: events.NodeCompleted, GraphID: "g1", NodeID: "A"})
	pub.Notify(context.Background(), events.Event{Type: events.ConsensusReached, SwarmID: "s1"})
	// Без графа и swarm — не публикуется
	pub.Notify(context.Background(), events.Event{Type: events.GraphStarted})
	client.Flush()

	select {
	case e := <-graphCh:
		if e.Type != events.NodeCompleted || e.NodeID != "A" {
			t.Errorf("unexpected graph event: %+v", e)
		}
		if e.Timestamp.IsZero() {
			t.Error("expected stamped timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for graph event")
	}

	select {
	case e := <-swarmCh:
		if e.Type != events.ConsensusReached {
			t.Errorf("unexpected swarm event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for swarm event")
	}

	select {
	case e := <-graphCh:
		t.Errorf("unexpected extra graph event: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTopicNames(t *testing.T) {
	if got := TopicGraph("g1"); got != "events.graph.g1" {
		t.Errorf("expected events.graph.g1, got %s", got)
	}
	if got := TopicSwarm("s1"); got != "events.swarm.s1" {
		t.Errorf("expected events.swarm.s1, got %s", got)
	}
	if got := TopicFor(events.Event{GraphID: "g1", SwarmID: "s1"}); got != "events.swarm.s1" {
		t.Errorf("expected swarm subject to win, got %s", got)
	}
	if got := TopicFor(events.Event{}); got != "" {
		t.Errorf("expected empty subject, got %s", got)
	}
}
