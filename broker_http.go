// FILE: broker_http.go
// Package main – HTTP gateway that talks to the broker REST sidecar.
//
// This gateway hits a sidecar fronting the real brokerage API. It
// implements:
//   • PlaceBracketOrder: POST /orders/bracket {symbol, qty, limit_price,
//     take_profit, stop_loss} → {id, legs:[...]}
//   • PollOpenOrders:    GET /orders?status=all → [{id, symbol, status}]
//   • MonitorBracket:    GET /orders/bracket/{id}/wait?timeout=... — the
//     sidecar long-polls the brokerage stream and returns leg statuses.
//
// Payloads are parsed defensively: the sidecar normalizes broker status
// vocabulary to open/filled/cancelled, but unknown strings pass through and
// simply read as non-terminal.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPGateway talks to the local broker sidecar.
type HTTPGateway struct {
	base string
	hc   *http.Client
	// waitHC carries the long-poll wait calls: no global Timeout, the
	// request context alone bounds them. hc's cap would kill any wait
	// longer than 15s.
	waitHC *http.Client
}

func NewHTTPGateway(base string) *HTTPGateway {
	base = strings.TrimSpace(base)
	if i := strings.IndexAny(base, " \t#"); i >= 0 { // cut trailing comment/space
		base = strings.TrimSpace(base[:i])
	}
	if base == "" {
		base = "http://127.0.0.1:8787"
	}
	base = strings.TrimRight(base, "/")
	return &HTTPGateway{
		base:   base,
		hc:     &http.Client{Timeout: 15 * time.Second},
		waitHC: &http.Client{},
	}
}

func (g *HTTPGateway) Name() string { return "broker-http" }

// --- Placement ---

func (g *HTTPGateway) PlaceBracketOrder(ctx context.Context, symbol string, shares int, entry, takeProfit, stopLoss float64) (*OrderRef, error) {
	body := map[string]any{
		"symbol":      symbol,
		"qty":         shares,
		"limit_price": entry,
		"take_profit": takeProfit,
		"stop_loss":   stopLoss,
	}
	bs, _ := json.Marshal(body)

	u := g.base + "/orders/bracket"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("newrequest bracket: %w (url=%s)", err, u)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "intraday/engine")

	res, err := g.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("bracket %d: %s", res.StatusCode, string(b))
	}

	var out struct {
		ID   string `json:"id"`
		Legs []struct {
			ID   string `json:"id"`
			Type string `json:"type"` // take_profit | stop_loss
		} `json:"legs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, fmt.Errorf("bracket response missing order id")
	}
	ref := &OrderRef{
		ParentID: out.ID,
		Symbol:   symbol,
		Shares:   shares,
		Entry:    entry,
		Created:  time.Now().UTC(),
	}
	for _, leg := range out.Legs {
		if strings.TrimSpace(leg.ID) != "" {
			ref.ChildIDs = append(ref.ChildIDs, leg.ID)
		}
	}
	return ref, nil
}

// --- Status ---

func (g *HTTPGateway) PollOpenOrders(ctx context.Context) ([]OrderStatus, error) {
	u := g.base + "/orders?status=all"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("newrequest orders: %w (url=%s)", err, u)
	}
	req.Header.Set("User-Agent", "intraday/engine")

	res, err := g.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("orders %d: %s", res.StatusCode, string(b))
	}

	var rows []OrderStatus
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Status = strings.ToLower(strings.TrimSpace(rows[i].Status))
	}
	return rows, nil
}

// --- Long-poll monitor (BracketMonitor) ---

// MonitorBracket delegates the wait to the sidecar, which watches the
// brokerage stream server-side. The engine still enforces its own deadline
// through the request context.
func (g *HTTPGateway) MonitorBracket(ctx context.Context, parentID string, childIDs []string, pollInterval, timeout time.Duration) (BracketResult, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout+pollInterval)
	defer cancel()

	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	u := fmt.Sprintf("%s/orders/bracket/%s/wait?%s", g.base, url.PathEscape(parentID), q.Encode())
	req, err := http.NewRequestWithContext(wctx, http.MethodGet, u, nil)
	if err != nil {
		return BracketResult{}, fmt.Errorf("newrequest wait: %w (url=%s)", err, u)
	}
	req.Header.Set("User-Agent", "intraday/engine")

	res, err := g.waitHC.Do(req)
	if err != nil {
		return BracketResult{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return BracketResult{}, fmt.Errorf("wait %d: %s", res.StatusCode, string(b))
	}

	var out struct {
		Parent   string            `json:"parent"`
		Children map[string]string `json:"children"`
		TimedOut bool              `json:"timed_out"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return BracketResult{}, err
	}

	result := BracketResult{
		ParentStatus:  strings.ToLower(strings.TrimSpace(out.Parent)),
		ChildStatuses: make(map[string]string, len(childIDs)),
		TimedOut:      out.TimedOut,
	}
	// Report every tracked child even if the sidecar omitted it.
	for _, id := range childIDs {
		if s, ok := out.Children[id]; ok {
			result.ChildStatuses[id] = strings.ToLower(strings.TrimSpace(s))
		} else {
			result.ChildStatuses[id] = StatusOpen
		}
	}
	return result, nil
}
