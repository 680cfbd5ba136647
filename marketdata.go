// FILE: marketdata.go
// Package main – REST polling market data source.
//
// PollSource answers Fetch by hitting a candle endpoint on every call:
//   GET /candles?symbol=...&limit=...
// Rows are parsed defensively (numbers may arrive as strings). A response
// with too few rows maps to ErrInsufficientData so workers wait instead of
// failing.
//
// Retry/reconnect mechanics stay inside the source; the phase loop only
// ever sees "insufficient data, retry".

package main

import (
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

// PollSource fetches rolling candle windows over HTTP.
type PollSource struct {
	base  string
	limit int
	min   int
	hc    *http.Client
}

// NewPollSource builds a source against base, returning windows of up to
// limit candles and reporting ErrInsufficientData below min.
func NewPollSource(base string, limit, min int) *PollSource {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if limit <= 0 {
		limit = 500
	}
	return &PollSource{
		base:  base,
		limit: limit,
		min:   min,
		hc:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *PollSource) Name() string { return "rest-poll" }

func (s *PollSource) Fetch(ctx context.Context, symbol string) ([]Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(s.limit))

	u := fmt.Sprintf("%s/candles?%s", s.base, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("newrequest candles: %w (url=%s)", err, u)
	}
	req.Header.Set("User-Agent", "intraday/engine")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("candles %d: %s", res.StatusCode, string(b))
	}

	// The endpoint returns normalized rows with string/number fields; parse
	// defensively.
	type row struct {
		Time   string `json:"time"`
		Open   any    `json:"open"`
		High   any    `json:"high"`
		Low    any    `json:"low"`
		Close  any    `json:"close"`
		Volume any    `json:"volume"`
	}
	var rows []row
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, err
	}

	out := make([]Candle, 0, len(rows))
	for _, r := range rows {
		t, err := parseTimeFlexible(r.Time)
		if err != nil {
			continue
		}
		out = append(out, Candle{
			Time:   t,
			Open:   anyToFloat(r.Open),
			High:   anyToFloat(r.High),
			Low:    anyToFloat(r.Low),
			Close:  anyToFloat(r.Close),
			Volume: anyToFloat(r.Volume),
		})
	}
	sortCandles(out)
	if len(out) < s.min {
		return nil, ErrInsufficientData
	}
	return out, nil
}

// anyToFloat accepts float64 or numeric string JSON values.
func anyToFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	default:
		return 0
	}
}
