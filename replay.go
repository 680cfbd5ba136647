// FILE: replay.go
// Package main – CSV candle loader and replaying data source.
//
// What’s here:
//   • loadCSV(path) -> []Candle : reads time,open,high,low,close,volume
//   • ReplaySource              : a MarketDataSource that reveals one more
//     candle per Fetch, so a full session can be replayed against the live
//     worker pipeline without any network.
//
// Notes:
//   • Time column accepts RFC3339 or UNIX seconds.
//   • Unknown columns are ignored; headers are case-insensitive.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// loadCSV reads a generic candle CSV with headers:
// time|timestamp, open, high, low, close, volume
func loadCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Candle
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp")
		op := first(row, "open")
		hp := first(row, "high")
		lp := first(row, "low")
		cp := first(row, "close")
		vp := first(row, "volume", "vol")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(hp, 64)
		l, _ := strconv.ParseFloat(lp, 64)
		c, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(vp, 64)
		out = append(out, Candle{Time: tt, Open: o, High: h, Low: l, Close: c, Volume: v})
		rowIdx++
	}

	sortCandles(out)
	return out, nil
}

// parseTimeFlexible supports RFC3339 or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

// sortCandles ensures ascending time.
func sortCandles(c []Candle) {
	sort.Slice(c, func(i, j int) bool { return c[i].Time.Before(c[j].Time) })
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

// ReplaySource serves one loaded CSV series to every symbol, revealing one
// additional candle per Fetch. Each symbol advances independently so
// multiple workers can replay the same session.
type ReplaySource struct {
	candles []Candle
	min     int
	max     int

	mu  sync.Mutex
	pos map[string]int
}

// NewReplaySource loads path; windows below min report ErrInsufficientData
// and are capped at max candles.
func NewReplaySource(path string, min, max int) (*ReplaySource, error) {
	cs, err := loadCSV(path)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("replay %s: no candles", path)
	}
	if max <= 0 {
		max = 500
	}
	return &ReplaySource{candles: cs, min: min, max: max, pos: make(map[string]int)}, nil
}

func (s *ReplaySource) Name() string { return "csv-replay" }

func (s *ReplaySource) Fetch(ctx context.Context, symbol string) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	n := s.pos[symbol]
	if n < len(s.candles) {
		n++
		s.pos[symbol] = n
	}
	s.mu.Unlock()

	if n < s.min {
		return nil, ErrInsufficientData
	}
	start := 0
	if n > s.max {
		start = n - s.max
	}
	out := make([]Candle, n-start)
	copy(out, s.candles[start:n])
	return out, nil
}
