package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"tickerscan/internal/sample"
	"tickerscan/internal/scanner"
)

// runDemo times the parse of the first record of the embedded sample and
// prints it.
func runDemo(w io.Writer) error {
	buf := sample.Tickers()

	start := time.Now()
	rec, _, err := scanner.ParseOne(buf, 0)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Parsed 1 entry in %.3f µs\n", float64(elapsed.Nanoseconds())/1e3)
	printRecord(w, &rec)
	return nil
}

// runFile prints every record of a payload file, stopping at the first
// malformed one.
func runFile(w io.Writer, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	start := time.Now()
	n := 0
	s := scanner.NewScanner(buf)
	for s.Next() {
		rec := s.Record()
		printRecord(w, &rec)
		n++
	}
	if err := s.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Parsed %d entries in %s\n", n, time.Since(start))
	return nil
}

func printRecord(w io.Writer, r *scanner.Record) {
	fmt.Fprintf(w, "Symbol: %s, Last: %v, Bid: %v, Ask: %v, Strike: %v, Trade Count: %d\n",
		r.Symbol, r.LastPrice, r.BidPrice, r.AskPrice, r.StrikePrice, r.TradeCount)
}
