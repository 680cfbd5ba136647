// FILE: main.go
// Package main – Program entrypoint and HTTP server.
//
// Boot sequence:
//   1) loadEngineEnv()             – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv()  – build runtime Config
//   3) wire data source / analyzer / broker gateway / candidate source
//   4) start the gin ops server (metrics, health, control) on cfg.Port
//   5) run the engine scan loop until SIGINT/SIGTERM
//
// Flags:
//   -replay <csv>   Replay a candle CSV through the worker pipeline
//                   (forces the paper gateway and an always-open session)
//
// Wiring rules (env-driven, see config.go):
//   - DATA_WS_URL set  → streaming websocket source
//   - else DATA_URL    → REST polling source
//   - BROKER_URL set   → HTTP gateway; else paper gateway
//   - SCREENER_URL set → screener candidates; else static SYMBOLS

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// ---- Flags ----
	var replayCSV string
	flag.StringVar(&replayCSV, "replay", "", "Path to CSV (time,open,high,low,close,volume)")
	flag.Parse()

	// ---- Environment & Config ----
	loadEngineEnv()
	cfg := loadConfigFromEnv()
	if replayCSV == "" {
		replayCSV = getEnv("REPLAY_CSV", "")
	}

	// ---- Session clock ----
	hours, err := NewTradingHours(cfg.MarketOpen, cfg.MarketClose, cfg.MarketTZ)
	if err != nil {
		log.Fatalf("trading hours: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---- Market data wiring ----
	var data MarketDataSource
	switch {
	case replayCSV != "":
		rs, err := NewReplaySource(replayCSV, cfg.MinSamples, cfg.MaxWindowCandles)
		if err != nil {
			log.Fatalf("replay source: %v", err)
		}
		data = rs
		// Replays run any time of day.
		hours = alwaysOpenHours()
		cfg.TradingEnabled = false
	case cfg.DataWSURL != "":
		ss := NewStreamSource(cfg.DataWSURL, cfg.MaxWindowCandles)
		go ss.Run(ctx)
		data = ss
	case cfg.DataURL != "":
		data = NewPollSource(cfg.DataURL, cfg.MaxWindowCandles, cfg.MinSamples)
	default:
		log.Fatalf("no market data configured: set DATA_WS_URL, DATA_URL or -replay")
	}

	// ---- Broker wiring ----
	var gateway BrokerGateway
	if cfg.TradingEnabled && cfg.BrokerURL != "" {
		gateway = NewHTTPGateway(cfg.BrokerURL)
	} else {
		gateway = NewPaperGateway()
		if cfg.TradingEnabled {
			log.Printf("[WARN] TRADING_ENABLED without BROKER_URL; falling back to demo mode")
			cfg.TradingEnabled = false
		}
	}

	// ---- Candidates ----
	var candidates CandidateSource
	if cfg.ScreenerURL != "" {
		candidates = NewScreenerClient(cfg.ScreenerURL)
	} else {
		if len(cfg.Symbols) == 0 {
			log.Fatalf("no candidate source: set SCREENER_URL or SYMBOLS")
		}
		candidates = NewStaticCandidates(cfg.Symbols)
	}

	engine := NewEngine(cfg, data, NewRangeBreakoutAnalyzer(cfg), gateway, candidates, hours)

	// ---- HTTP ops/metrics ----
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: newRouter(engine)}
	go func() {
		log.Printf("serving ops API on :%d (metrics at /metrics)", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	log.Printf("Starting engine — data=%s gateway=%s candidates=%s trading_enabled=%v",
		data.Name(), gateway.Name(), candidates.Name(), cfg.TradingEnabled)
	engine.Run(ctx)

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// alwaysOpenHours is the replay session clock: open around the clock, with
// a generous bound for any Monitoring timeout.
func alwaysOpenHours() *TradingHours {
	th, err := NewTradingHours("00:00", "23:59", "UTC")
	if err != nil {
		// static inputs; cannot fail
		panic(err)
	}
	th.everyDay = true
	return th
}
