package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// pollScriptGateway replays a canned sequence of poll responses; the final
// step repeats once the script is exhausted.
type pollScriptGateway struct {
	mu    sync.Mutex
	steps []pollStep
	i     int
}

type pollStep struct {
	orders []OrderStatus
	err    error
}

func (g *pollScriptGateway) Name() string { return "poll-script" }

func (g *pollScriptGateway) PlaceBracketOrder(ctx context.Context, symbol string, shares int, entry, takeProfit, stopLoss float64) (*OrderRef, error) {
	return nil, errors.New("placement not scripted")
}

func (g *pollScriptGateway) PollOpenOrders(ctx context.Context) ([]OrderStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.i
	if i >= len(g.steps) {
		i = len(g.steps) - 1
	}
	g.i++
	s := g.steps[i]
	return s.orders, s.err
}

func TestMonitorResolvesPaperBracket(t *testing.T) {
	paper := NewPaperGateway()
	ref, err := paper.PlaceBracketOrder(context.Background(), "AAPL", 10, 100, 103, 98)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	res := monitorBracket(context.Background(), paper, ref.ParentID, ref.ChildIDs, time.Millisecond, 2*time.Second)
	if res.TimedOut {
		t.Fatalf("monitor timed out on a resolving bracket")
	}
	if res.ParentStatus != StatusFilled {
		t.Fatalf("parent status: got %q want filled", res.ParentStatus)
	}
	filled, cancelled := 0, 0
	for _, s := range res.ChildStatuses {
		switch s {
		case StatusFilled:
			filled++
		case StatusCancelled:
			cancelled++
		}
	}
	if filled != 1 || cancelled != 1 {
		t.Fatalf("child legs: filled=%d cancelled=%d, want 1/1 (one-cancels-other)", filled, cancelled)
	}
	if got := res.Outcome(); got != "closed" {
		t.Fatalf("outcome: got %q want closed", got)
	}
}

func TestMonitorParentCancelledReturnsEarly(t *testing.T) {
	paper := NewPaperGateway()
	ref, err := paper.PlaceBracketOrder(context.Background(), "AAPL", 10, 100, 103, 98)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	paper.CancelParent(ref.ParentID)

	res := monitorBracket(context.Background(), paper, ref.ParentID, ref.ChildIDs, time.Millisecond, 2*time.Second)
	if res.ParentStatus != StatusCancelled {
		t.Fatalf("parent status: got %q want cancelled", res.ParentStatus)
	}
	if res.TimedOut {
		t.Fatalf("early cancel must not be reported as a timeout")
	}
	if got := res.Outcome(); got != "cancelled" {
		t.Fatalf("outcome: got %q want cancelled", got)
	}
}

func TestMonitorTimeoutReturnsPartialResult(t *testing.T) {
	// Parent fills but the children never go terminal.
	gw := &pollScriptGateway{steps: []pollStep{{orders: []OrderStatus{
		{ID: "p1", Status: StatusFilled},
		{ID: "tp1", Status: StatusOpen},
		{ID: "sl1", Status: StatusOpen},
	}}}}

	res := monitorBracket(context.Background(), gw, "p1", []string{"tp1", "sl1"}, time.Millisecond, 20*time.Millisecond)
	if !res.TimedOut {
		t.Fatalf("expected timeout")
	}
	if res.ParentStatus != StatusFilled {
		t.Fatalf("partial result lost the parent status: %q", res.ParentStatus)
	}
	if res.ChildStatuses["tp1"] != StatusOpen || res.ChildStatuses["sl1"] != StatusOpen {
		t.Fatalf("partial result lost child statuses: %v", res.ChildStatuses)
	}
	if got := res.Outcome(); got != "timeout" {
		t.Fatalf("outcome: got %q want timeout", got)
	}
}

func TestMonitorRetriesTransportErrors(t *testing.T) {
	terminal := []OrderStatus{
		{ID: "p1", Status: StatusFilled},
		{ID: "tp1", Status: StatusFilled},
		{ID: "sl1", Status: StatusCancelled},
	}
	gw := &pollScriptGateway{steps: []pollStep{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{orders: terminal},
	}}

	res := monitorBracket(context.Background(), gw, "p1", []string{"tp1", "sl1"}, time.Millisecond, time.Second)
	if res.TimedOut {
		t.Fatalf("transient errors escalated to a timeout")
	}
	if res.ParentStatus != StatusFilled || res.ChildStatuses["tp1"] != StatusFilled {
		t.Fatalf("monitor did not recover after errors: %+v", res)
	}
}

func TestMonitorContextCancelReportsPartial(t *testing.T) {
	gw := &pollScriptGateway{steps: []pollStep{{orders: []OrderStatus{
		{ID: "p1", Status: StatusOpen},
	}}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := monitorBracket(ctx, gw, "p1", []string{"tp1"}, 50*time.Millisecond, time.Minute)
	if !res.TimedOut {
		t.Fatalf("cancelled context should surface as a timed-out partial result")
	}
}

func TestOutcomePrecedence(t *testing.T) {
	cancelled := BracketResult{ParentStatus: StatusCancelled, ChildStatuses: map[string]string{"tp": StatusFilled}}
	if got := cancelled.Outcome(); got != "cancelled" {
		t.Fatalf("cancelled parent outcome: got %q", got)
	}
	closed := BracketResult{ParentStatus: StatusFilled, ChildStatuses: map[string]string{"tp": StatusFilled, "sl": StatusCancelled}, TimedOut: true}
	if got := closed.Outcome(); got != "closed" {
		t.Fatalf("a filled exit leg wins over timeout: got %q", got)
	}
	open := BracketResult{ParentStatus: StatusFilled, ChildStatuses: map[string]string{"tp": StatusOpen}}
	if got := open.Outcome(); got != "open" {
		t.Fatalf("unresolved outcome: got %q", got)
	}
}
