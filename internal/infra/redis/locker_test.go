package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLockerSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewLocker(newClient(mr), time.Second)
	unlock, err := locker.Lock(context.Background(), "game:1:user:2")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("philosophers:lock:game:1:user:2") {
		t.Fatalf("expected redis key to be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "game:1:user:2"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected contended lock to wait, got %v", err)
	}

	unlock()
	if mr.Exists("philosophers:lock:game:1:user:2") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestLockerUnlockKeepsForeignLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewLocker(newClient(mr), time.Second)
	unlock, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// simulate expiry and takeover by another holder
	mr.Set("philosophers:lock:k", "someone-else")

	unlock()
	if v, _ := mr.Get("philosophers:lock:k"); v != "someone-else" {
		t.Fatalf("expected foreign lock untouched, got %q", v)
	}
}
