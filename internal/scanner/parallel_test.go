package scanner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerscan/internal/sample"
)

func TestSplit(t *testing.T) {
	spans, err := Split(sample.Tickers())
	require.NoError(t, err)
	require.Len(t, spans, 3)

	for _, sp := range spans {
		assert.Equal(t, byte('{'), sp[0])
		assert.Equal(t, byte('}'), sp[len(sp)-1])
	}

	_, err = Split([]byte(`[{"symbol":"X"`))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseAllParallel_MatchesParseAll(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 50; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		if i%2 == 0 {
			sb.WriteString(ethObject)
		} else {
			sb.WriteString(unquote(singleObject))
		}
	}
	sb.WriteString("]")
	buf := []byte(sb.String())

	want, err := ParseAll(buf)
	require.NoError(t, err)

	got, err := ParseAllParallel(context.Background(), buf, 4)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseAllParallel_ErrorOffsetIsAbsolute(t *testing.T) {
	bad := strings.Replace(ethObject, `"volume":"72.26"`, `"volume":"7..2"`, 1)
	buf := []byte(singleObject + bad)

	_, errSeq := ParseAll(buf)
	_, errPar := ParseAllParallel(context.Background(), buf, 2)

	var seq, par *SyntaxError
	require.ErrorAs(t, errSeq, &seq)
	require.ErrorAs(t, errPar, &par)
	assert.Equal(t, seq.Offset, par.Offset)
	assert.Equal(t, seq.Field, par.Field)
}

func TestParseAllParallel_UnclosedObjectMatchesParseAll(t *testing.T) {
	buf := []byte(strings.TrimSuffix(singleObject, "}") + "," + ethObject + singleObject)

	recSeq, errSeq := ParseAll(buf)
	recPar, errPar := ParseAllParallel(context.Background(), buf, 4)
	assert.Nil(t, recSeq)
	assert.Nil(t, recPar)

	var seq, par *SyntaxError
	require.ErrorAs(t, errSeq, &seq)
	require.ErrorAs(t, errPar, &par)
	assert.Equal(t, seq.Offset, par.Offset)
	assert.Equal(t, 0, par.Field)
	assert.Equal(t, len(singleObject), par.Offset)
}

func TestSplit_UnclosedObject(t *testing.T) {
	_, err := Split([]byte(strings.TrimSuffix(singleObject, "}") + ethObject))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseAllParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseAllParallel(ctx, sample.Tickers(), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAllParallel_SingleWorker(t *testing.T) {
	records, err := ParseAllParallel(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}
