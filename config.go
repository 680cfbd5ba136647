// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the engine uses) and a
// helper to populate it from environment variables. The .env file is read
// by loadEngineEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadEngineEnv()
//   cfg := loadConfigFromEnv()
package main

import (
	"strings"
	"time"
)

// Config holds all runtime knobs for the engine and its collaborators.
type Config struct {
	// Capital
	TotalBudgetUSD float64 // shared pool reserved by in-flight trades
	PositionUSD    float64 // per-trade sizing target used by the analyzer

	// Safety & gating
	TradingEnabled    bool    // false = demo mode: no broker orders, budget returned immediately
	MinPotentialGain  float64 // reject Buy signals whose potential gain is below this (USD)
	MinSamples        int     // candles required before the analyzer is consulted

	// Cadence
	PollInterval      time.Duration // Accumulation/Breakout loop cadence
	MonitorInterval   time.Duration // order-fill poll cadence after placement
	CandidateInterval time.Duration // engine loop scan cadence
	StaleWorkerAfter  time.Duration // evict workers whose last trade is older than this

	// Collaborator endpoints
	BrokerURL   string // broker sidecar REST base; empty = paper gateway
	DataURL     string // candle REST base; empty when streaming or replaying
	DataWSURL   string // streaming market data websocket; empty = REST polling
	ScreenerURL string // candidate screener endpoint; empty = static SYMBOLS
	Symbols     []string

	// Market session
	MarketOpen  string // "09:30"
	MarketClose string // "16:00"
	MarketTZ    string // IANA zone, e.g. "America/New_York"

	// Analyzer knobs
	MaxRangePct        float64 // accumulation range tightness ceiling (percent)
	MinRVOL            float64 // relative volume required to confirm a breakout
	BreakoutConfirmBps float64 // close must clear resistance by this many bps
	ATRStopMult        float64
	ATRTargetMult      float64
	StrategyID         string

	// Ops
	Port             int
	MaxWindowCandles int // rolling window cap per symbol
}

// loadConfigFromEnv reads the process env (already hydrated by loadEngineEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	cfg := Config{
		TotalBudgetUSD: getEnvFloat("TOTAL_BUDGET_USD", 10000.0),
		PositionUSD:    getEnvFloat("POSITION_USD", 2000.0),

		TradingEnabled:   getEnvBool("TRADING_ENABLED", false),
		MinPotentialGain: getEnvFloat("MIN_POTENTIAL_GAIN_USD", 10.0),
		MinSamples:       getEnvInt("MIN_SAMPLES", 20),

		PollInterval:      getEnvSeconds("POLL_INTERVAL_SEC", 5*time.Second),
		MonitorInterval:   getEnvSeconds("MONITOR_INTERVAL_SEC", 60*time.Second),
		CandidateInterval: getEnvSeconds("CANDIDATE_INTERVAL_SEC", 120*time.Second),
		StaleWorkerAfter:  time.Duration(getEnvInt("STALE_WORKER_MIN", 30)) * time.Minute,

		BrokerURL:   getEnv("BROKER_URL", ""),
		DataURL:     getEnv("DATA_URL", ""),
		DataWSURL:   getEnv("DATA_WS_URL", ""),
		ScreenerURL: getEnv("SCREENER_URL", ""),
		Symbols:     splitSymbols(getEnv("SYMBOLS", "")),

		MarketOpen:  getEnv("MARKET_OPEN", "09:30"),
		MarketClose: getEnv("MARKET_CLOSE", "16:00"),
		MarketTZ:    getEnv("MARKET_TZ", "America/New_York"),

		MaxRangePct:        getEnvFloat("MAX_RANGE_PCT", 2.0),
		MinRVOL:            getEnvFloat("MIN_RVOL", 1.5),
		BreakoutConfirmBps: getEnvFloat("BREAKOUT_CONFIRM_BPS", 5.0),
		ATRStopMult:        getEnvFloat("ATR_STOP_MULT", 1.5),
		ATRTargetMult:      getEnvFloat("ATR_TARGET_MULT", 3.0),
		StrategyID:         getEnv("STRATEGY_ID", "range-breakout"),

		Port:             getEnvInt("PORT", 8080),
		MaxWindowCandles: getEnvInt("MAX_WINDOW_CANDLES", 500),
	}

	// Live trading shortens the scan cadence; demo can afford to idle longer.
	if cfg.TradingEnabled && cfg.PollInterval > 2*time.Second {
		cfg.PollInterval = 2 * time.Second
	}
	return cfg
}

// splitSymbols parses "AAPL, MSFT ,tsla" into ["AAPL","MSFT","TSLA"].
func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
