package retryutil

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := NewBackoff(time.Millisecond, 4*time.Millisecond)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := b.Wait(ctx); err != nil {
			t.Fatalf("Wait error = %v", err)
		}
	}
	if b.cur != 4*time.Millisecond {
		t.Fatalf("cur = %v, want capped at max", b.cur)
	}
	b.Reset()
	if b.cur != 0 {
		t.Fatalf("cur after Reset = %v", b.cur)
	}
}

func TestBackoffWaitCancelled(t *testing.T) {
	b := NewBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Wait(ctx); err == nil {
		t.Fatal("Wait error = nil, want cancellation")
	}
}
