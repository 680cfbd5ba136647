// FILE: env.go
// Package main – Environment helpers for the strategy engine.
//
// This file provides:
//   1) Small helpers to read environment variables with sane defaults
//      (strings, ints, floats, bools, durations).
//   2) A safe loader (loadEngineEnv) that reads /opt/intraday/env/engine.env
//      only, ignoring keys the engine does not use.
//
// Notes:
//   • The engine never requires `export $(cat .env ...)`.
//   • Broker credentials live in the broker sidecar's own env file.

package main

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------- Env helpers (used across files) ---------

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvSeconds reads an integer number of seconds and returns a Duration.
func getEnvSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// --------- .env loader (engine-only) ---------

// loadEngineEnv reads /opt/intraday/env/engine.env and sets ONLY the keys the
// engine needs. It won't override variables already in the environment.
func loadEngineEnv() {
	path := getEnv("ENGINE_ENV_FILE", "/opt/intraday/env/engine.env")
	f, err := os.Open(path)
	if err != nil {
		log.Printf("env: %s not found, relying on process env", path)
		return
	}
	defer f.Close()

	needed := map[string]struct{}{
		"TOTAL_BUDGET_USD": {}, "TRADING_ENABLED": {}, "POSITION_USD": {},
		"MIN_POTENTIAL_GAIN_USD": {}, "MIN_SAMPLES": {}, "PORT": {},
		"POLL_INTERVAL_SEC": {}, "MONITOR_INTERVAL_SEC": {},
		"STALE_WORKER_MIN": {}, "CANDIDATE_INTERVAL_SEC": {},
		"SYMBOLS": {}, "SCREENER_URL": {}, "BROKER_URL": {},
		"DATA_URL": {}, "DATA_WS_URL": {}, "REPLAY_CSV": {},
		"MARKET_OPEN": {}, "MARKET_CLOSE": {}, "MARKET_TZ": {},
		"MAX_RANGE_PCT": {}, "MIN_RVOL": {}, "BREAKOUT_CONFIRM_BPS": {},
		"ATR_STOP_MULT": {}, "ATR_TARGET_MULT": {}, "STRATEGY_ID": {},
		"MAX_WINDOW_CANDLES": {},
	}

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(line[len("export "):])
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if _, ok := needed[key]; !ok {
			continue
		}
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		if idx := strings.Index(val, "#"); idx >= 0 {
			val = strings.TrimSpace(val[:idx])
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	log.Printf("env: loaded %s", path)
}
