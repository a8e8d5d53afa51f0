package debounce

import (
	"sync"
	"testing"
	"time"
)

func TestChangeCoalescesToLastText(t *testing.T) {
	var (
		mu  sync.Mutex
		ran []string
	)
	s := New(20*time.Millisecond, func(uri, text string) {
		mu.Lock()
		defer mu.Unlock()
		ran = append(ran, text)
	})

	s.Change("file:///a", "T1")
	time.Sleep(5 * time.Millisecond)
	s.Change("file:///a", "T2")
	time.Sleep(5 * time.Millisecond)
	s.Change("file:///a", "T3")

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "T3" {
		t.Fatalf("expected exactly one run on T3, got %v", ran)
	}
	if s.Pending("file:///a") {
		t.Fatalf("expected no pending record after the task completed")
	}
}

func TestCancelPreventsLaterRun(t *testing.T) {
	var (
		mu  sync.Mutex
		ran bool
	)
	s := New(20*time.Millisecond, func(uri, text string) {
		mu.Lock()
		defer mu.Unlock()
		ran = true
	})

	s.Change("file:///b", "T1")
	s.Cancel("file:///b")
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if ran {
		t.Fatalf("expected no run after Cancel")
	}
}

func TestFlushBypassesDebounceImmediately(t *testing.T) {
	done := make(chan string, 1)
	s := New(time.Hour, func(uri, text string) { done <- text })

	s.Change("file:///c", "T1")
	s.Flush("file:///c", "T2")

	select {
	case got := <-done:
		if got != "T2" {
			t.Fatalf("expected flush to run with T2, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("flush did not run promptly")
	}
	if s.Pending("file:///c") {
		t.Fatalf("expected no pending record after flush")
	}
}

func TestCrossURIConcurrency(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]string{}
	s := New(10*time.Millisecond, func(uri, text string) {
		mu.Lock()
		defer mu.Unlock()
		ran[uri] = text
	})

	s.Change("file:///x", "X")
	s.Change("file:///y", "Y")
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if ran["file:///x"] != "X" || ran["file:///y"] != "Y" {
		t.Fatalf("expected independent processing per URI, got %v", ran)
	}
}
