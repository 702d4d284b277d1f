package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name   string
		max    int
		window time.Duration
	}{
		{"zero max", 0, time.Second},
		{"negative max", -1, time.Second},
		{"zero window", 3, 0},
		{"negative window", 3, -time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.max, tc.window)
			if err == nil {
				t.Fatalf("New(%d, %v) = nil error, want ErrInvalidConfiguration", tc.max, tc.window)
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("error %v does not wrap ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestAcquireBlocksAtCapacity(t *testing.T) {
	l, err := New(3, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("admission %d: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("first 3 admissions took %v, want immediate", elapsed)
	}
	if got := l.CurrentLoad(); got != 3 {
		t.Fatalf("CurrentLoad() = %d, want 3", got)
	}

	start = time.Now()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("4th admission: %v", err)
	}
	if blocked := time.Since(start); blocked <= 0 {
		t.Errorf("4th admission blocked for %v, want > 0", blocked)
	}
}

func TestCurrentLoadDrainsAfterWindow(t *testing.T) {
	l, err := New(3, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if !l.TryAcquire() {
			t.Fatalf("TryAcquire %d = false, want true", i+1)
		}
	}
	time.Sleep(60 * time.Millisecond)
	if got := l.CurrentLoad(); got != 0 {
		t.Errorf("CurrentLoad() after window = %d, want 0", got)
	}
}

func TestTryAcquireAtCapacity(t *testing.T) {
	l, err := New(2, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !l.TryAcquire() || !l.TryAcquire() {
		t.Fatal("first two TryAcquire calls should succeed")
	}
	if l.TryAcquire() {
		t.Error("TryAcquire at capacity = true, want false")
	}
	time.Sleep(60 * time.Millisecond)
	if !l.TryAcquire() {
		t.Error("TryAcquire after window = false, want true")
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	l, err := New(1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("canceled Acquire did not return")
	}

	// The abandoned wait must not have recorded an admission.
	if got := l.CurrentLoad(); got != 1 {
		t.Errorf("CurrentLoad() after canceled wait = %d, want 1", got)
	}
}

func TestConcurrentAcquiresRespectWindow(t *testing.T) {
	const max, callers = 2, 6
	window := 40 * time.Millisecond
	l, err := New(max, window)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var admissions []time.Time
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			admissions = append(admissions, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(admissions) != callers {
		t.Fatalf("got %d admissions, want %d", len(admissions), callers)
	}
	sort.Slice(admissions, func(i, j int) bool { return admissions[i].Before(admissions[j]) })
	// Every admission max slots later must sit at least one window after
	// this one, otherwise more than max fit in a trailing window.
	// Recorded times trail the actual admission instants slightly, so
	// allow a small scheduling skew.
	for i := 0; i+max < len(admissions); i++ {
		gap := admissions[i+max].Sub(admissions[i])
		if gap < window-10*time.Millisecond {
			t.Errorf("admissions %d and %d only %v apart, want >= ~%v", i, i+max, gap, window)
		}
	}
}
