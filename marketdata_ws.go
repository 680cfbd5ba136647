// FILE: marketdata_ws.go
// Package main – Streaming market data source over websocket.
//
// StreamSource keeps one websocket connection to the market data feed, maintains a
// rolling per-symbol candle cache, and answers Fetch from memory. All
// reconnect mechanics live here: the read pump detects silence through a
// watchdog and redials with backoff, and workers only ever observe
// ErrInsufficientData while the cache refills.
//
// Wire format (feed-normalized):
//   subscribe: {"op":"subscribe","symbols":["AAPL"]}
//   candle:    {"symbol":"AAPL","time":"...","open":..,"high":..,
//               "low":..,"close":..,"volume":..}

package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 20 * time.Second
	wsRedialWait   = 5 * time.Second
)

// StreamSource is a websocket-backed MarketDataSource.
type StreamSource struct {
	url string
	max int // rolling window cap per symbol

	mu      sync.Mutex
	cache   map[string][]Candle
	symbols map[string]struct{}
	conn    *websocket.Conn

	// wmu serializes every conn write: subscribes arrive from worker
	// goroutines while the ping loop writes keepalives, and gorilla
	// panics on concurrent writers.
	wmu sync.Mutex
}

func NewStreamSource(url string, maxWindow int) *StreamSource {
	if maxWindow <= 0 {
		maxWindow = 500
	}
	return &StreamSource{
		url:     url,
		max:     maxWindow,
		cache:   make(map[string][]Candle),
		symbols: make(map[string]struct{}),
	}
}

func (s *StreamSource) Name() string { return "ws-stream" }

// Run owns the connection for the life of ctx: dial, subscribe, pump,
// redial on failure. Start it once from main.
func (s *StreamSource) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.connectAndPump(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[WARN] stream %s: %v, redialing in %s", s.url, err, wsRedialWait)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wsRedialWait):
		}
	}
}

func (s *StreamSource) connectAndPump(ctx context.Context) error {
	log.Printf("[INFO] stream connecting to %s", s.url)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[INFO] stream connected")

	s.mu.Lock()
	s.conn = conn
	subs := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		subs = append(subs, sym)
	}
	s.mu.Unlock()

	if len(subs) > 0 {
		if err := s.writeSubscribe(conn, subs); err != nil {
			return err
		}
	}

	conn.SetReadLimit(1024 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	// Ping keepalive; the read deadline doubles as the silence watchdog.
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-t.C:
				s.wmu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				s.wmu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		s.ingest(msg)
	}
}

func (s *StreamSource) writeSubscribe(conn *websocket.Conn, symbols []string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(map[string]any{"op": "subscribe", "symbols": symbols})
}

// ingest folds one feed message into the rolling cache.
func (s *StreamSource) ingest(msg []byte) {
	var row struct {
		Symbol string  `json:"symbol"`
		Time   string  `json:"time"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	}
	if err := json.Unmarshal(msg, &row); err != nil || row.Symbol == "" {
		return
	}
	t, err := parseTimeFlexible(row.Time)
	if err != nil {
		t = time.Now().UTC()
	}
	c := Candle{Time: t, Open: row.Open, High: row.High, Low: row.Low, Close: row.Close, Volume: row.Volume}

	s.mu.Lock()
	defer s.mu.Unlock()
	win := s.cache[row.Symbol]
	if n := len(win); n > 0 && !c.Time.After(win[n-1].Time) {
		// Same-bar update replaces the last candle.
		win[n-1] = c
	} else {
		win = append(win, c)
	}
	if len(win) > s.max {
		win = win[len(win)-s.max:]
	}
	s.cache[row.Symbol] = win
}

// Watch subscribes a symbol; safe to call repeatedly.
func (s *StreamSource) Watch(symbol string) {
	s.mu.Lock()
	if _, ok := s.symbols[symbol]; ok {
		s.mu.Unlock()
		return
	}
	s.symbols[symbol] = struct{}{}
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		if err := s.writeSubscribe(conn, []string{symbol}); err != nil {
			// The redial loop re-subscribes everything; losing this write
			// only delays the first candles.
			log.Printf("[WARN] stream subscribe %s: %v", symbol, err)
		}
	}
}

// Fetch returns a copy of the cached window, or ErrInsufficientData while
// the feed warms up.
func (s *StreamSource) Fetch(ctx context.Context, symbol string) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.Watch(symbol)

	s.mu.Lock()
	win := s.cache[symbol]
	out := make([]Candle, len(win))
	copy(out, win)
	s.mu.Unlock()

	if len(out) == 0 {
		return nil, ErrInsufficientData
	}
	return out, nil
}
