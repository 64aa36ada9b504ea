package scanner

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Split cuts buf into one sub-slice per object, from its opening brace to the
// first closing brace after it. Objects never nest, so the cut only looks for
// delimiters and does not parse any value, and a '{' before the closing brace
// is an error.
func Split(buf []byte) ([][]byte, error) {
	spans, err := split(buf)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(spans))
	for i, sp := range spans {
		out[i] = sp.b
	}
	return out, nil
}

type span struct {
	off int
	b   []byte
}

func split(buf []byte) ([]span, error) {
	var spans []span
	pos := 0
	for {
		start, err := NextObject(buf, pos)
		if errors.Is(err, ErrEndOfInput) {
			return spans, nil
		}
		end, err := closingBrace(buf, start+1)
		if err != nil {
			return nil, err
		}
		pos = end + 1
		spans = append(spans, span{off: start, b: buf[start:pos:pos]})
	}
}

// ParseAllParallel is ParseAll spread over up to workers goroutines. Records
// come back in input order and error offsets refer to buf.
func ParseAllParallel(ctx context.Context, buf []byte, workers int) ([]Record, error) {
	if workers <= 1 {
		return ParseAll(buf)
	}

	spans, err := split(buf)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(spans))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sp := range spans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, _, err := ParseOne(sp.b, 0)
			if err != nil {
				var se *SyntaxError
				if errors.As(err, &se) {
					se.Offset += sp.off
				}
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
