// FILE: monitor.go
// Package main – Order-fill monitor for placed brackets.
//
// monitorBracket polls a gateway's open-order listing until the tracked
// bracket reaches a terminal state or the timeout elapses. It is factored
// out of the worker so it can be exercised directly with scripted gateways.
//
// Behavior:
//   • Parent cancelled before filling → return early, children as observed.
//   • Parent filled → keep polling until every child is terminal or timeout.
//   • Transport errors are logged and treated as "not yet terminal" (retry).
//   • Timeout is reported in the result, never as an error: monitoring is
//     best-effort and partial results are valid.

package main

import (
	"context"
	"log"
	"time"
)

// monitorBracket drives the manual-poll variant of order monitoring against
// any BrokerGateway. Gateways with a native long-poll implement
// BracketMonitor instead (see broker.go); workers pick whichever exists.
func monitorBracket(ctx context.Context, gw BrokerGateway, parentID string, childIDs []string, pollInterval, timeout time.Duration) BracketResult {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	res := BracketResult{
		ParentStatus:  StatusOpen,
		ChildStatuses: make(map[string]string, len(childIDs)),
	}
	for _, id := range childIDs {
		res.ChildStatuses[id] = StatusOpen
	}

	deadline := time.Now().Add(timeout)
	for {
		orders, err := gw.PollOpenOrders(ctx)
		if err != nil {
			// Transport trouble is not terminal; keep polling to the deadline.
			log.Printf("[WARN] monitor poll %s: %v", parentID, err)
			mtxMonitorPolls.WithLabelValues("error").Inc()
		} else {
			mtxMonitorPolls.WithLabelValues("ok").Inc()
			for _, o := range orders {
				if o.ID == parentID {
					res.ParentStatus = o.Status
					continue
				}
				if _, tracked := res.ChildStatuses[o.ID]; tracked {
					res.ChildStatuses[o.ID] = o.Status
				}
			}
			if res.ParentStatus == StatusCancelled {
				// No fill will ever come; children are whatever we saw.
				return res
			}
			if res.ParentStatus == StatusFilled && allChildrenTerminal(res.ChildStatuses) {
				return res
			}
		}

		if time.Now().After(deadline) {
			res.TimedOut = true
			log.Printf("TRACE monitor.timeout parent=%s parent_status=%s", parentID, res.ParentStatus)
			return res
		}
		select {
		case <-ctx.Done():
			// Shutdown mid-monitor: report what we have.
			res.TimedOut = true
			return res
		case <-time.After(pollInterval):
		}
	}
}

func allChildrenTerminal(children map[string]string) bool {
	for _, s := range children {
		if !terminalStatus(s) {
			return false
		}
	}
	return true
}
