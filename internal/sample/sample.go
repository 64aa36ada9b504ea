// Package sample holds a captured options ticker payload used by the demo
// command, the test feed generator and tests.
package sample

import _ "embed"

//go:embed tickers.json
var tickers []byte

// Tickers returns a fresh copy of the payload; callers may modify it.
func Tickers() []byte {
	return append([]byte(nil), tickers...)
}
