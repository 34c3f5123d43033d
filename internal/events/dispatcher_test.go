package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestInMemoryDispatcherContinuesAfterFailure(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
}

type fakePublisher struct {
	channel  string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	if body, ok := message.([]byte); ok {
		f.messages = append(f.messages, body)
	}
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisDispatcherFansOut(t *testing.T) {
	pub := &fakePublisher{}
	d := NewRedisDispatcher(NewInMemoryDispatcher(nil), pub, "helpdesk.events", nil)

	delivered := 0
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		delivered++
		return nil
	})

	event := Event{ID: "e1", Type: EventTicketAssigned, TicketID: "t1", Payload: TicketAssignedPayload{TechnicianID: "tech"}}
	if err := d.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if delivered != 1 {
		t.Errorf("local handlers called %d times, want 1", delivered)
	}
	if pub.channel != "helpdesk.events" || len(pub.messages) != 1 {
		t.Fatalf("redis publish not observed: %+v", pub)
	}

	var decoded map[string]any
	if err := json.Unmarshal(pub.messages[0], &decoded); err != nil {
		t.Fatalf("published body is not JSON: %v", err)
	}
	if decoded["type"] != string(EventTicketAssigned) || decoded["ticket_id"] != "t1" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestRedisDispatcherToleratesRedisFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	d := NewRedisDispatcher(NewInMemoryDispatcher(nil), pub, "ch", nil)

	delivered := false
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		delivered = true
		return nil
	})
	if err := d.Publish(context.Background(), Event{Type: EventCommentAdded}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !delivered {
		t.Error("local delivery must not depend on redis")
	}
}
