package domain

import (
	"errors"
	"time"
)

// Window is a run of consecutive calendar dates, oldest first.
type Window struct {
	dates []string
}

// NewWindow returns the days consecutive dates ending at last (inclusive).
func NewWindow(last time.Time, days int) (Window, error) {
	if days <= 0 {
		return Window{}, errors.New("window length must be positive")
	}
	last = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)

	dates := make([]string, days)
	for i := range dates {
		dates[i] = last.AddDate(0, 0, i-days+1).Format(DateLayout)
	}
	return Window{dates: dates}, nil
}

// Len is the number of days in the window.
func (w Window) Len() int { return len(w.dates) }

// Labels returns the window dates as "2006-01-02" strings, oldest first.
// The returned slice is a copy.
func (w Window) Labels() []string {
	return append([]string(nil), w.dates...)
}

// First returns the oldest date label, or "" for an empty window.
func (w Window) First() string {
	if len(w.dates) == 0 {
		return ""
	}
	return w.dates[0]
}

// Last returns the newest date label, or "" for an empty window.
func (w Window) Last() string {
	if len(w.dates) == 0 {
		return ""
	}
	return w.dates[len(w.dates)-1]
}

// Densify expands sparse daily prices into one price per window date. Gaps
// carry the last price seen in the window forward; dates before the first
// price are 0. Prices outside the window are ignored.
func Densify(prices DailyPrices, w Window) []float64 {
	series := make([]float64, len(w.dates))
	var last float64
	for i, day := range w.dates {
		if p, ok := prices[day]; ok {
			last = p
		}
		series[i] = last
	}
	return series
}

// DensifyHistory densifies every fuel of a station's history. Fuels with no
// history at all get no series.
func DensifyHistory(history PriceHistory, w Window) map[string][]float64 {
	out := make(map[string][]float64, len(history))
	for fuel, prices := range history {
		out[fuel] = Densify(prices, w)
	}
	return out
}
