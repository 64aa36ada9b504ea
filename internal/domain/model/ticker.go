package model

import "time"

// Ticker is an owned copy of one options quote as received from a feed.
type Ticker struct {
	Symbol             string    `json:"symbol"`
	Exchange           string    `json:"exchange"`
	PriceChange        float64   `json:"priceChange"`
	PriceChangePercent float64   `json:"priceChangePercent"`
	LastPrice          float64   `json:"lastPrice"`
	LastQty            float64   `json:"lastQty"`
	Open               float64   `json:"open"`
	High               float64   `json:"high"`
	Low                float64   `json:"low"`
	Volume             float64   `json:"volume"`
	Amount             float64   `json:"amount"`
	BidPrice           float64   `json:"bidPrice"`
	AskPrice           float64   `json:"askPrice"`
	OpenTime           int64     `json:"openTime"`
	CloseTime          int64     `json:"closeTime"`
	FirstTradeID       int64     `json:"firstTradeId"`
	TradeCount         int32     `json:"tradeCount"`
	StrikePrice        float64   `json:"strikePrice"`
	ExercisePrice      float64   `json:"exercisePrice"`
	ReceivedAt         time.Time `json:"receivedAt"`
}

type AggregatedPrice struct {
	PairName     string    `json:"pair_name"`
	Exchange     string    `json:"exchange"`
	Timestamp    time.Time `json:"timestamp"`
	AveragePrice float64   `json:"average_price"`
	MinPrice     float64   `json:"min_price"`
	MaxPrice     float64   `json:"max_price"`
}
