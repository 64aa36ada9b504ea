package fanout

import (
	"hash/fnv"

	"tickerscan/internal/domain/model"
)

// ByKey routes every ticker with the same key to the same output channel,
// which keeps the per symbol order intact across n consumers. Every output is
// closed once in is closed and drained.
func ByKey(in <-chan model.Ticker, n int, key func(model.Ticker) string) []chan model.Ticker {
	if n <= 0 {
		n = 1
	}
	outs := make([]chan model.Ticker, n)
	for i := 0; i < n; i++ {
		outs[i] = make(chan model.Ticker)
	}

	go func() {
		defer func() {
			for _, ch := range outs {
				close(ch)
			}
		}()

		for v := range in {
			outs[slot(key(v), n)] <- v
		}
	}()

	return outs
}

// SymbolKey keys a ticker by exchange and symbol.
func SymbolKey(t model.Ticker) string {
	return t.Exchange + ":" + t.Symbol
}

func slot(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()&0x7fffffff) % n
}
