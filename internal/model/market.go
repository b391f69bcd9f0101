package model

import "time"

// Bar is one trading day's OHLCV snapshot for an instrument.
// Date carries the exchange-local calendar day with a zero clock;
// ROC-calendar normalization happens at ingestion, never downstream.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Quote is a real-time tick for one instrument.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Volume    int64     `json:"volume"` // accumulated shares for the session
	Time      time.Time `json:"time"`
}

// StockInfo identifies a watched instrument.
// Market is "tse" for listed stocks or "otc" for TPEx stocks.
type StockInfo struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
	Market string `json:"market" yaml:"market"`
}
