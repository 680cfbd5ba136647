// FILE: budget.go
// Package main – Shared capital pool with strict conservation.
//
// BudgetAllocator is the one resource every worker competes for. All access
// goes through the mutex so concurrent allocations can never jointly
// overdraw the pool, and a read always sees a consistent total/available
// pair.
//
// Allocate is fail-fast: a worker that cannot reserve capital logs and
// skips the trade; the allocator itself never blocks or retries.

package main

import "sync"

// BudgetInfo is a consistent snapshot of the pool.
type BudgetInfo struct {
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
	Allocated float64 `json:"allocated"`
}

// BudgetAllocator is a mutex-guarded pool of capital (USD).
type BudgetAllocator struct {
	mu        sync.Mutex
	total     float64
	available float64
}

// NewBudgetAllocator creates a pool with the given total, fully available.
func NewBudgetAllocator(total float64) *BudgetAllocator {
	if total < 0 {
		total = 0
	}
	return &BudgetAllocator{total: total, available: total}
}

// Allocate reserves amount iff the pool can cover it. It never blocks; a
// false return means the caller should skip the trade.
func (b *BudgetAllocator) Allocate(amount float64) bool {
	if amount <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.available < amount {
		return false
	}
	b.available -= amount
	mtxBudgetAvailable.Set(b.available)
	return true
}

// Release returns amount to the pool, clamped so available never exceeds
// total. The clamp keeps a double-release bug from masquerading as budget
// growth.
func (b *BudgetAllocator) Release(amount float64) {
	if amount <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.available += amount
	if b.available > b.total {
		b.available = b.total
	}
	mtxBudgetAvailable.Set(b.available)
}

// Increase raises total (and available) by amount; operator top-up.
func (b *BudgetAllocator) Increase(amount float64) {
	if amount <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total += amount
	b.available += amount
	mtxBudgetTotal.Set(b.total)
	mtxBudgetAvailable.Set(b.available)
}

// Info returns a snapshot taken under the same exclusion as Allocate/Release.
func (b *BudgetAllocator) Info() BudgetInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BudgetInfo{
		Total:     b.total,
		Available: b.available,
		Allocated: b.total - b.available,
	}
}
