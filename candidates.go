// FILE: candidates.go
// Package main – Candidate symbol sources for the engine loop.
//
// Two implementations:
//   • StaticCandidates  – the fixed SYMBOLS list from the environment
//   • ScreenerClient    – GET {base}/candidates → ["AAPL","MSFT",...]
//
// The engine loop treats a failed source call as a skipped scan, never as a
// reason to exit.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CandidateSource offers symbols worth tracking right now.
type CandidateSource interface {
	Name() string
	Candidates(ctx context.Context) ([]string, error)
}

// StaticCandidates always offers the same configured list.
type StaticCandidates struct {
	symbols []string
}

func NewStaticCandidates(symbols []string) *StaticCandidates {
	return &StaticCandidates{symbols: symbols}
}

func (s *StaticCandidates) Name() string { return "static" }

func (s *StaticCandidates) Candidates(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out, nil
}

// ScreenerClient asks an external screener for ranked candidates.
type ScreenerClient struct {
	base string
	hc   *http.Client
}

func NewScreenerClient(base string) *ScreenerClient {
	return &ScreenerClient{
		base: strings.TrimRight(strings.TrimSpace(base), "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *ScreenerClient) Name() string { return "screener" }

func (s *ScreenerClient) Candidates(ctx context.Context) ([]string, error) {
	u := s.base + "/candidates"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("newrequest candidates: %w (url=%s)", err, u)
	}
	req.Header.Set("User-Agent", "intraday/engine")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("candidates %d: %s", res.StatusCode, string(b))
	}

	var syms []string
	if err := json.NewDecoder(res.Body).Decode(&syms); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(syms))
	for _, s := range syms {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
