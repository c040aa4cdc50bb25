package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, e Event) error { return errors.New("down") }

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	if err := svc.Append(context.Background(), Event{Phone: "+1"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_AppendFillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	now := time.Unix(1700000000, 0).UTC()
	svc.clock = func() time.Time { return now }

	if err := svc.Append(context.Background(), Event{Type: EventTypeCallDispatched, Phone: "+442012345678", Attempt: 1}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if !evs[0].CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, evs[0].CreatedAt)
	}
}

func TestService_RecordSwallowsErrors(t *testing.T) {
	svc := NewService(failingRepo{}, nil)
	svc.Record(context.Background(), Event{Type: EventTypeCallStatus})

	var nilSvc *Service
	nilSvc.Record(context.Background(), Event{Type: EventTypeCallStatus})
}

func TestMemoryRepo_LimitDropsOldest(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Limit = 2
	for _, p := range []string{"+1", "+2", "+3"} {
		_ = repo.Append(context.Background(), Event{Type: EventTypeCallStatus, Phone: p})
	}
	evs := repo.Events()
	if len(evs) != 2 || evs[0].Phone != "+2" || evs[1].Phone != "+3" {
		t.Fatalf("unexpected events: %+v", evs)
	}
	if got := repo.OfType(EventTypeCallStatus); len(got) != 2 {
		t.Fatalf("expected 2 call_status events, got %d", len(got))
	}
}
