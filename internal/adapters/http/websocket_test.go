package http

import (
	"testing"
	"time"
)

func TestEventQueue_DropsWhenFull(t *testing.T) {
	q := newEventQueue(2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			q.push([]byte{byte(i)})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on a full queue")
	}

	if len(q.ch) != 2 {
		t.Fatalf("expected 2 queued events, got %d", len(q.ch))
	}
	if got := <-q.ch; got[0] != 0 {
		t.Errorf("expected oldest event first, got %v", got)
	}
	if !q.push([]byte{9}) {
		t.Error("expected push to succeed after a drain")
	}
}
