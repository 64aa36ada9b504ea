package scanner

import (
	"time"

	"tickerscan/internal/domain/model"
)

// Record is one ticker quote as laid out on the wire.
//
// Symbol is a sub-slice of the buffer the record was parsed from. It stays
// valid only as long as that buffer is neither released nor overwritten; use
// Ticker to get a copy that owns its memory.
type Record struct {
	Symbol             []byte
	PriceChange        float64
	PriceChangePercent float64
	LastPrice          float64
	LastQty            float64
	Open               float64
	High               float64
	Low                float64
	Volume             float64
	Amount             float64
	BidPrice           float64
	AskPrice           float64
	OpenTime           int64
	CloseTime          int64
	FirstTradeID       int64
	TradeCount         int32
	StrikePrice        float64
	ExercisePrice      float64
}

// Ticker copies the record into a model.Ticker that no longer references the
// input buffer.
func (r *Record) Ticker(exchange string, receivedAt time.Time) model.Ticker {
	return model.Ticker{
		Symbol:             string(r.Symbol),
		Exchange:           exchange,
		PriceChange:        r.PriceChange,
		PriceChangePercent: r.PriceChangePercent,
		LastPrice:          r.LastPrice,
		LastQty:            r.LastQty,
		Open:               r.Open,
		High:               r.High,
		Low:                r.Low,
		Volume:             r.Volume,
		Amount:             r.Amount,
		BidPrice:           r.BidPrice,
		AskPrice:           r.AskPrice,
		OpenTime:           r.OpenTime,
		CloseTime:          r.CloseTime,
		FirstTradeID:       r.FirstTradeID,
		TradeCount:         r.TradeCount,
		StrikePrice:        r.StrikePrice,
		ExercisePrice:      r.ExercisePrice,
		ReceivedAt:         receivedAt,
	}
}
