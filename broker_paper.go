// FILE: broker_paper.go
// Package main – In-memory paper gateway (no external dependencies).
//
// This gateway simulates bracket execution for demo runs and tests. Orders
// advance toward terminal states as they are polled: the parent fills after
// a fixed number of polls, then one child leg fills a few polls later. No
// external calls are made and no real position ever exists.
//
// Methods:
//   • Name() string
//   • PlaceBracketOrder(ctx, symbol, shares, entry, takeProfit, stopLoss)
//   • PollOpenOrders(ctx)
//
// The fill cadence is tunable so tests can script exact poll counts.
package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaperGateway keeps simulated orders keyed by id.
type PaperGateway struct {
	mu     sync.Mutex
	orders map[string]*paperOrder

	// Polls remaining before a status advances. Defaults favor quick demo
	// resolution; tests override.
	ParentFillPolls int
	ChildFillPolls  int
}

type paperOrder struct {
	status OrderStatus
	// polls until this order flips to filled; -1 means it never will
	// (the losing child leg gets cancelled when its sibling fills)
	countdown int
	parentID  string // empty on the parent itself
	sibling   string // the other child leg, set on children
}

func NewPaperGateway() *PaperGateway {
	return &PaperGateway{
		orders:          make(map[string]*paperOrder),
		ParentFillPolls: 1,
		ChildFillPolls:  2,
	}
}

func (p *PaperGateway) Name() string { return "paper" }

// PlaceBracketOrder registers a parent and two child legs, all open.
func (p *PaperGateway) PlaceBracketOrder(ctx context.Context, symbol string, shares int, entry, takeProfit, stopLoss float64) (*OrderRef, error) {
	if shares <= 0 {
		return nil, errors.New("shares must be > 0")
	}
	if stopLoss >= entry || takeProfit <= entry {
		return nil, errors.New("bracket legs must straddle the entry price")
	}

	parentID := uuid.New().String()
	tpID := uuid.New().String()
	slID := uuid.New().String()

	p.mu.Lock()
	p.orders[parentID] = &paperOrder{
		status:    OrderStatus{ID: parentID, Symbol: symbol, Status: StatusOpen},
		countdown: p.ParentFillPolls,
	}
	p.orders[tpID] = &paperOrder{
		status:    OrderStatus{ID: tpID, Symbol: symbol, Status: StatusOpen},
		countdown: p.ParentFillPolls + p.ChildFillPolls,
		parentID:  parentID,
		sibling:   slID,
	}
	p.orders[slID] = &paperOrder{
		status:    OrderStatus{ID: slID, Symbol: symbol, Status: StatusOpen},
		countdown: -1, // resolved by sibling fill
		parentID:  parentID,
		sibling:   tpID,
	}
	p.mu.Unlock()

	return &OrderRef{
		ParentID: parentID,
		ChildIDs: []string{tpID, slID},
		Symbol:   symbol,
		Shares:   shares,
		Entry:    entry,
		Created:  time.Now().UTC(),
	}, nil
}

// PollOpenOrders advances the simulation one step and returns all tracked
// order statuses (open and terminal — terminal rows stay visible so a
// monitor can observe them).
func (p *PaperGateway) PollOpenOrders(ctx context.Context) ([]OrderStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, o := range p.orders {
		if o.status.Status != StatusOpen || o.countdown < 0 {
			continue
		}
		// Children cannot fill before their parent.
		if o.parentID != "" {
			if par, ok := p.orders[o.parentID]; ok && par.status.Status != StatusFilled {
				continue
			}
		}
		if o.countdown > 0 {
			o.countdown--
			continue
		}
		o.status.Status = StatusFilled
		// A filled child cancels its sibling (one-cancels-other).
		if sib, ok := p.orders[o.sibling]; ok && sib.status.Status == StatusOpen {
			sib.status.Status = StatusCancelled
		}
	}

	out := make([]OrderStatus, 0, len(p.orders))
	for _, o := range p.orders {
		out = append(out, o.status)
	}
	return out, nil
}

// CancelParent flips an open parent to cancelled; used by tests to script
// the early-cancel path.
func (p *PaperGateway) CancelParent(parentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o, ok := p.orders[parentID]; ok && o.status.Status == StatusOpen {
		o.status.Status = StatusCancelled
	}
}
