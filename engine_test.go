package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingCandidates struct{}

func (failingCandidates) Name() string { return "failing" }

func (failingCandidates) Candidates(ctx context.Context) ([]string, error) {
	return nil, errors.New("screener unreachable")
}

func testEngineConfig() Config {
	cfg := testWorkerConfig()
	cfg.CandidateInterval = 10 * time.Millisecond
	cfg.StaleWorkerAfter = 30 * time.Minute
	return cfg
}

// closedHours builds a session window guaranteed not to contain the current
// wall-clock time.
func closedHours() *TradingHours {
	now := time.Now().UTC()
	th := &TradingHours{loc: time.UTC, everyDay: true}
	if now.Hour() < 12 {
		th.openMin = 23 * 60
		th.closeMin = 23*60 + 59
	} else {
		th.openMin = 0
		th.closeMin = 1
	}
	return th
}

func TestEngineScanSpawnsCandidates(t *testing.T) {
	data := &scriptData{err: ErrInsufficientData} // workers idle in warmup
	e := NewEngine(testEngineConfig(), data, &scriptSignals{}, NewPaperGateway(),
		NewStaticCandidates([]string{"AAPL", "MSFT"}), alwaysOpenHours())

	ctx, cancel := context.WithCancel(context.Background())
	e.scan(ctx)
	if got := e.registry.Count(); got != 2 {
		t.Fatalf("workers after scan: got %d want 2", got)
	}

	// A second scan is idempotent for live workers.
	e.scan(ctx)
	if got := e.registry.Count(); got != 2 {
		t.Fatalf("workers after rescan: got %d want 2", got)
	}

	cancel()
	waitFor(t, 2*time.Second, func() bool { return e.registry.Count() == 0 })
}

func TestEngineScanSurvivesScreenerFailure(t *testing.T) {
	e := NewEngine(testEngineConfig(), &scriptData{err: ErrInsufficientData}, &scriptSignals{},
		NewPaperGateway(), failingCandidates{}, alwaysOpenHours())

	e.scan(context.Background())
	if got := e.registry.Count(); got != 0 {
		t.Fatalf("failed scan spawned workers: %d", got)
	}
}

func TestEngineScanSkipsClosedSession(t *testing.T) {
	e := NewEngine(testEngineConfig(), &scriptData{err: ErrInsufficientData}, &scriptSignals{},
		NewPaperGateway(), NewStaticCandidates([]string{"AAPL"}), closedHours())

	e.scan(context.Background())
	if got := e.registry.Count(); got != 0 {
		t.Fatalf("closed session spawned workers: %d", got)
	}
}

func TestEngineOpsSurface(t *testing.T) {
	e := NewEngine(testEngineConfig(), &scriptData{err: ErrInsufficientData}, &scriptSignals{},
		NewPaperGateway(), NewStaticCandidates(nil), alwaysOpenHours())

	e.TrySpawn("NVDA", SpawnParams{Source: "ops"})
	views := e.ListWorkers()
	if len(views) != 1 || views[0].Symbol != "NVDA" || views[0].Source != "ops" {
		t.Fatalf("worker list: %+v", views)
	}
	if !e.RequestStop("NVDA") {
		t.Fatalf("stop of live worker refused")
	}
	if e.RequestStop("AMZN") {
		t.Fatalf("stop of unknown worker accepted")
	}

	info := e.IncreaseBudget(5000)
	if info.Total != 15000 || info.Available != 15000 {
		t.Fatalf("budget after top-up: %+v", info)
	}
	if got := e.BudgetInfo(); got != info {
		t.Fatalf("budget info drifted: %+v vs %+v", got, info)
	}
	waitFor(t, 2*time.Second, func() bool { return e.registry.Count() == 0 })
}
