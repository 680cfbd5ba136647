package main

import (
	"sync"
	"testing"
)

func TestBudgetScenario(t *testing.T) {
	b := NewBudgetAllocator(10000)

	if !b.Allocate(3000) {
		t.Fatalf("allocate 3000 should succeed")
	}
	if got := b.Info().Available; got != 7000 {
		t.Fatalf("available after allocate: got %v want 7000", got)
	}
	if b.Allocate(8000) {
		t.Fatalf("allocate 8000 should fail with 7000 available")
	}
	if got := b.Info().Available; got != 7000 {
		t.Fatalf("failed allocate must not change available: got %v", got)
	}
	b.Release(3000)
	if got := b.Info().Available; got != 10000 {
		t.Fatalf("available after release: got %v want 10000", got)
	}
	b.Increase(5000)
	info := b.Info()
	if info.Total != 15000 || info.Available != 15000 {
		t.Fatalf("after increase: got total=%v available=%v want 15000/15000", info.Total, info.Available)
	}
}

func TestBudgetConservation(t *testing.T) {
	b := NewBudgetAllocator(500)
	b.Allocate(200)
	b.Release(50)
	b.Allocate(120)
	info := b.Info()
	if info.Available+info.Allocated != info.Total {
		t.Fatalf("conservation broken: %+v", info)
	}
	if info.Available < 0 {
		t.Fatalf("available went negative: %+v", info)
	}
}

func TestBudgetReleaseClamp(t *testing.T) {
	b := NewBudgetAllocator(1000)
	b.Allocate(300)
	b.Release(300)
	b.Release(300) // double release must not grow the pool
	info := b.Info()
	if info.Available != 1000 {
		t.Fatalf("clamp failed: available=%v want 1000", info.Available)
	}
}

func TestBudgetNoOverdraftConcurrent(t *testing.T) {
	const (
		total   = 10000.0
		chunk   = 3000.0
		callers = 32
	)
	b := NewBudgetAllocator(total)

	var wg sync.WaitGroup
	results := make(chan bool, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- b.Allocate(chunk)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	// floor(10000/3000) = 3 allocations can ever succeed.
	if wins != 3 {
		t.Fatalf("overdraft protection: got %d successful allocations, want 3", wins)
	}
	info := b.Info()
	if info.Available != total-3*chunk {
		t.Fatalf("available after race: got %v want %v", info.Available, total-3*chunk)
	}
	if info.Available+info.Allocated != info.Total {
		t.Fatalf("conservation broken after race: %+v", info)
	}
}

func TestBudgetAllocateRejectsNonPositive(t *testing.T) {
	b := NewBudgetAllocator(100)
	if b.Allocate(0) || b.Allocate(-5) {
		t.Fatalf("non-positive allocations must fail")
	}
}
