package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLockerSerialisesPerKey(t *testing.T) {
	locker := NewLocker()
	unlock, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second lock to wait, got %v", err)
	}

	other, err := locker.Lock(context.Background(), "other")
	if err != nil {
		t.Fatalf("lock other key: %v", err)
	}
	other()

	unlock()
	unlock()
	again, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock after unlock: %v", err)
	}
	again()
	if len(locker.locks) != 0 {
		t.Fatalf("expected lock entries released, got %d", len(locker.locks))
	}
}
