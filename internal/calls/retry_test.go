package calls

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimerScheduler_FiresOncePerSchedule(t *testing.T) {
	fired := make(chan string, 4)
	s := NewTimerScheduler(func(identity string) { fired <- identity })

	if err := s.Schedule(context.Background(), "+1", time.Millisecond); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(context.Background(), "+1", time.Millisecond); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case got := <-fired:
			if got != "+1" {
				t.Fatalf("unexpected identity %q", got)
			}
		case <-time.After(time.Second):
			t.Fatalf("retry %d did not fire", i+1)
		}
	}
}

func TestTimerScheduler_StopCancelsPending(t *testing.T) {
	fired := make(chan string, 1)
	s := NewTimerScheduler(func(identity string) { fired <- identity })

	if err := s.Schedule(context.Background(), "+1", time.Hour); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", s.Pending())
	}
	s.Stop()
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers after stop")
	}
	if err := s.Schedule(context.Background(), "+1", time.Millisecond); !errors.Is(err, ErrSchedulerStopped) {
		t.Fatalf("expected ErrSchedulerStopped, got %v", err)
	}
	select {
	case <-fired:
		t.Fatalf("expected no retry after stop")
	case <-time.After(20 * time.Millisecond):
	}
}
