package main

import (
	"context"
	"testing"
)

func TestPaperGatewayRejectsBadBrackets(t *testing.T) {
	p := NewPaperGateway()
	ctx := context.Background()

	if _, err := p.PlaceBracketOrder(ctx, "AAPL", 0, 100, 103, 98); err == nil {
		t.Fatalf("zero shares accepted")
	}
	if _, err := p.PlaceBracketOrder(ctx, "AAPL", 10, 100, 99, 98); err == nil {
		t.Fatalf("take-profit below entry accepted")
	}
	if _, err := p.PlaceBracketOrder(ctx, "AAPL", 10, 100, 103, 101); err == nil {
		t.Fatalf("stop-loss above entry accepted")
	}
}

func TestPaperGatewayChildrenWaitForParent(t *testing.T) {
	p := NewPaperGateway()
	p.ParentFillPolls = 3
	ctx := context.Background()

	ref, err := p.PlaceBracketOrder(ctx, "AAPL", 10, 100, 103, 98)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	status := func() map[string]string {
		orders, err := p.PollOpenOrders(ctx)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		out := make(map[string]string, len(orders))
		for _, o := range orders {
			out[o.ID] = o.Status
		}
		return out
	}

	// While the parent is open no child may advance.
	for i := 0; i < 3; i++ {
		st := status()
		if st[ref.ParentID] != StatusOpen {
			t.Fatalf("poll %d: parent advanced early: %q", i, st[ref.ParentID])
		}
		for _, id := range ref.ChildIDs {
			if st[id] != StatusOpen {
				t.Fatalf("poll %d: child %s advanced before parent fill", i, id)
			}
		}
	}

	st := status()
	if st[ref.ParentID] != StatusFilled {
		t.Fatalf("parent not filled after countdown: %q", st[ref.ParentID])
	}

	// Children advance only now; eventually exactly one fills and the
	// sibling is cancelled.
	var filled, cancelled int
	for i := 0; i < 10 && filled == 0; i++ {
		st = status()
		filled, cancelled = 0, 0
		for _, id := range ref.ChildIDs {
			switch st[id] {
			case StatusFilled:
				filled++
			case StatusCancelled:
				cancelled++
			}
		}
	}
	if filled != 1 || cancelled != 1 {
		t.Fatalf("child resolution: filled=%d cancelled=%d, want 1/1", filled, cancelled)
	}
}
