package scanner

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindFloat
	kindInt64
	kindInt32
)

// field is one extraction step. Exactly one accessor matching kind is set.
type field struct {
	name string
	kind fieldKind
	f64  func(*Record) *float64
	i64  func(*Record) *int64
	i32  func(*Record) *int32
	str  func(*Record) *[]byte
}

// fieldOrder is the wire order of a ticker object. Keys are never compared
// against these names; they exist for error reporting only.
var fieldOrder = [...]field{
	{name: "symbol", kind: kindString, str: func(r *Record) *[]byte { return &r.Symbol }},
	{name: "priceChange", kind: kindFloat, f64: func(r *Record) *float64 { return &r.PriceChange }},
	{name: "priceChangePercent", kind: kindFloat, f64: func(r *Record) *float64 { return &r.PriceChangePercent }},
	{name: "lastPrice", kind: kindFloat, f64: func(r *Record) *float64 { return &r.LastPrice }},
	{name: "lastQty", kind: kindFloat, f64: func(r *Record) *float64 { return &r.LastQty }},
	{name: "open", kind: kindFloat, f64: func(r *Record) *float64 { return &r.Open }},
	{name: "high", kind: kindFloat, f64: func(r *Record) *float64 { return &r.High }},
	{name: "low", kind: kindFloat, f64: func(r *Record) *float64 { return &r.Low }},
	{name: "volume", kind: kindFloat, f64: func(r *Record) *float64 { return &r.Volume }},
	{name: "amount", kind: kindFloat, f64: func(r *Record) *float64 { return &r.Amount }},
	{name: "bidPrice", kind: kindFloat, f64: func(r *Record) *float64 { return &r.BidPrice }},
	{name: "askPrice", kind: kindFloat, f64: func(r *Record) *float64 { return &r.AskPrice }},
	{name: "openTime", kind: kindInt64, i64: func(r *Record) *int64 { return &r.OpenTime }},
	{name: "closeTime", kind: kindInt64, i64: func(r *Record) *int64 { return &r.CloseTime }},
	{name: "firstTradeId", kind: kindInt64, i64: func(r *Record) *int64 { return &r.FirstTradeID }},
	{name: "tradeCount", kind: kindInt32, i32: func(r *Record) *int32 { return &r.TradeCount }},
	{name: "strikePrice", kind: kindFloat, f64: func(r *Record) *float64 { return &r.StrikePrice }},
	{name: "exercisePrice", kind: kindFloat, f64: func(r *Record) *float64 { return &r.ExercisePrice }},
}

// FieldCount is the number of values in every ticker object.
const FieldCount = len(fieldOrder)

// FieldNames returns the wire field names in extraction order.
func FieldNames() []string {
	names := make([]string, len(fieldOrder))
	for i, f := range fieldOrder {
		names[i] = f.name
	}
	return names
}
