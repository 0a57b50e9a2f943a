package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLoopbackStreamsReply(t *testing.T) {
	t.Parallel()

	eng := &Loopback{Reply: "hello world", ChunkSize: 4}

	var mu sync.Mutex
	var got strings.Builder
	final := make(chan struct{})

	err := eng.Submit(context.Background(), NewTextRequest("hi"), func(f Fragment) {
		mu.Lock()
		got.Write(f.Bytes)
		mu.Unlock()
		if f.Final {
			close(final)
		}
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-final:
	case <-time.After(time.Second):
		t.Fatalf("no terminal marker")
	}
	mu.Lock()
	defer mu.Unlock()
	if got.String() != "hello world" {
		t.Fatalf("got %q", got.String())
	}
}

func TestLoopbackEchoesRequestText(t *testing.T) {
	t.Parallel()

	eng := &Loopback{ChunkSize: 64}
	done := make(chan string, 1)
	var sb strings.Builder

	err := eng.Submit(context.Background(), NewTextRequest("echo me"), func(f Fragment) {
		sb.Write(f.Bytes)
		if f.Final {
			done <- sb.String()
		}
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case got := <-done:
		if got != "echo me" {
			t.Fatalf("got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("no terminal marker")
	}
}

func TestLoopbackCancelStopsFragments(t *testing.T) {
	t.Parallel()

	eng := &Loopback{Reply: strings.Repeat("a", 1024), ChunkSize: 1, Delay: 5 * time.Millisecond}

	var mu sync.Mutex
	count := 0
	err := eng.Submit(context.Background(), NewTextRequest("hi"), func(f Fragment) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	eng.Cancel()
	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	// At most one fragment already past the stop check may land after Cancel.
	if count > after+1 {
		t.Fatalf("fragments kept flowing after cancel: %d then %d", after, count)
	}
}

func TestLoopbackRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	eng := &Loopback{}
	err := eng.Submit(context.Background(), &Request{Role: "robot"}, func(Fragment) {})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}
