package mailbox

import (
	"context"
	"testing"
	"time"
)

func TestLatestWins(t *testing.T) {
	m := New()

	first := RunRequest{At: time.Unix(1, 0)}
	second := RunRequest{At: time.Unix(2, 0)}
	m.Post(first)
	m.Post(second)

	got, ok := m.Next(context.Background())
	if !ok {
		t.Fatal("Next returned no request")
	}
	if !got.At.Equal(second.At) {
		t.Fatalf("Next returned %v, want the later request %v", got.At, second.At)
	}
	if m.Pending() {
		t.Fatal("mailbox still pending after Next")
	}
}

func TestNextBlocksUntilPost(t *testing.T) {
	m := New()

	done := make(chan RunRequest, 1)
	go func() {
		r, _ := m.Next(context.Background())
		done <- r
	}()

	select {
	case <-done:
		t.Fatal("Next returned before any Post")
	case <-time.After(50 * time.Millisecond):
	}

	m.Post(RunRequest{At: time.Unix(3, 0)})

	select {
	case r := <-done:
		if !r.At.Equal(time.Unix(3, 0)) {
			t.Fatalf("Next returned %v", r.At)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake after Post")
	}
}

func TestNextCancelled(t *testing.T) {
	m := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := m.Next(ctx); ok {
		t.Fatal("Next returned a request from a cancelled context")
	}
}
