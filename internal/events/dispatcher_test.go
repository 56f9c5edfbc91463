package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishReachesSubscribersUntilUnsubscribed(t *testing.T) {
	t.Parallel()

	dispatcher := NewInMemoryDispatcher()
	var calls int
	sub := dispatcher.Subscribe(EventIssueCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	ctx := context.Background()
	if err := dispatcher.Publish(ctx, New(EventIssueCreated, "i1", "u1", nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	sub.Unsubscribe()
	sub.Unsubscribe()
	if err := dispatcher.Publish(ctx, New(EventIssueCreated, "i1", "u1", nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	t.Parallel()

	dispatcher := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var reached bool
	dispatcher.Subscribe(EventIssueDeleted, func(context.Context, Event) error { return boom })
	dispatcher.Subscribe(EventIssueDeleted, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), New(EventIssueDeleted, "i1", "", IssueDeletedPayload{IssueID: "i1"}))
	if !errors.Is(err, boom) {
		t.Errorf("Publish error = %v, want boom", err)
	}
	if !reached {
		t.Error("second handler was skipped")
	}
}

func TestUnsubscribeKeepsOtherHandlers(t *testing.T) {
	t.Parallel()

	dispatcher := NewInMemoryDispatcher()
	var first, second int
	a := dispatcher.Subscribe(EventAuthStateChanged, func(context.Context, Event) error { first++; return nil })
	dispatcher.Subscribe(EventAuthStateChanged, func(context.Context, Event) error { second++; return nil })
	a.Unsubscribe()

	_ = dispatcher.Publish(context.Background(), New(EventAuthStateChanged, "", "", nil))
	if first != 0 || second != 1 {
		t.Errorf("first=%d second=%d", first, second)
	}
}
