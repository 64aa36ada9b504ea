package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerscan/internal/sample"
)

func TestAppendRecord_ReproducesWireObject(t *testing.T) {
	rec, _, err := ParseOne([]byte(singleObject), 0)
	require.NoError(t, err)

	assert.Equal(t, singleObject, string(AppendRecord(nil, &rec)))
}

func TestAppendRecords_RoundTrip(t *testing.T) {
	want, err := ParseAll(sample.Tickers())
	require.NoError(t, err)

	got, err := ParseAll(AppendRecords(nil, want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAppendRecord_NegativeAndFractional(t *testing.T) {
	rec := Record{
		Symbol:        []byte("ETH-250516-2550-C"),
		PriceChange:   -1.6,
		OpenTime:      -5,
		TradeCount:    -1,
		ExercisePrice: 0.000001,
	}

	got, _, err := ParseOne(AppendRecord(nil, &rec), 0)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
