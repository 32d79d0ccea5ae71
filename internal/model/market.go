package model

import "time"

// PriceBar represents a single OHLC candlestick bar.
type PriceBar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// PriceSeries holds the loaded bars for one analysis run.
type PriceSeries struct {
	Symbol   string
	Bars     []PriceBar
	Intraday bool // true when timestamps carry a time of day
	LoadedAt time.Time
}

// Closes extracts the close column.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
