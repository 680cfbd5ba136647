// FILE: hours.go
// Package main – Market session window.
//
// TradingHours gates the engine loop and bounds the order-fill monitor:
// IsOpen answers "should we be working right now", TimeToClose caps how
// long a Monitoring phase may poll before giving up for the day.
//
// Weekend days are closed; exchange holidays are out of scope and handled
// operationally (the screener simply offers nothing).

package main

import (
	"fmt"
	"time"
)

// TradingHours is an immutable session clock.
type TradingHours struct {
	openMin  int // minutes after midnight, exchange-local
	closeMin int
	loc      *time.Location
	everyDay bool // replay mode: no weekend gate
}

// NewTradingHours parses "HH:MM" open/close in the given IANA zone.
func NewTradingHours(open, close, tz string) (*TradingHours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("market timezone %q: %w", tz, err)
	}
	o, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("market open %q: %w", open, err)
	}
	c, err := parseClock(close)
	if err != nil {
		return nil, fmt.Errorf("market close %q: %w", close, err)
	}
	if c <= o {
		return nil, fmt.Errorf("market close %q not after open %q", close, open)
	}
	return &TradingHours{openMin: o, closeMin: c, loc: loc}, nil
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range")
	}
	return h*60 + m, nil
}

// IsOpen reports whether now falls inside the session.
func (th *TradingHours) IsOpen(now time.Time) bool {
	local := now.In(th.loc)
	if !th.everyDay {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= th.openMin && mins < th.closeMin
}

// TimeToClose returns the remaining session time, zero when closed. This is
// the hard bound on Monitoring: an open bracket is tracked at most until
// the bell.
func (th *TradingHours) TimeToClose(now time.Time) time.Duration {
	if !th.IsOpen(now) {
		return 0
	}
	local := now.In(th.loc)
	closeAt := time.Date(local.Year(), local.Month(), local.Day(), th.closeMin/60, th.closeMin%60, 0, 0, th.loc)
	return closeAt.Sub(local)
}
