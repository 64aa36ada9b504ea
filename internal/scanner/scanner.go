// Package scanner extracts ticker quotes from a fixed JSON layout without a
// general purpose JSON decoder.
//
// The input is a sequence of flat objects, usually wrapped in a top-level
// array, each carrying the same 18 values in the same order (see FieldNames).
// Values are consumed by position: keys are skipped, never compared. Numeric
// values may be quoted or bare. String values are returned as sub-slices of
// the input and are not unescaped.
//
// Every scan is bounds checked and stops at the next '{', which can only start
// another object. Input that does not follow the layout yields a *SyntaxError
// matching ErrMalformedInput rather than a partial record.
package scanner

import (
	"bytes"
	"errors"
	"strconv"
)

// NextObject returns the offset of the next '{' at or after pos, or
// ErrEndOfInput when the rest of buf holds no object.
func NextObject(buf []byte, pos int) (int, error) {
	if pos < 0 {
		pos = 0
	}
	if pos >= len(buf) {
		return len(buf), ErrEndOfInput
	}
	i := bytes.IndexByte(buf[pos:], '{')
	if i < 0 {
		return len(buf), ErrEndOfInput
	}
	return pos + i, nil
}

// ParseOne parses the first object at or after pos and returns it with the
// offset just past its closing brace.
//
// ErrEndOfInput is returned when no object remains. On a malformed object the
// returned offset is the object's opening brace, so a caller that wants to
// skip it can resume at that offset plus one.
func ParseOne(buf []byte, pos int) (Record, int, error) {
	start, err := NextObject(buf, pos)
	if err != nil {
		return Record{}, start, err
	}

	var rec Record
	pos = start + 1
	for i := range fieldOrder {
		f := &fieldOrder[i]
		switch f.kind {
		case kindString:
			var v []byte
			if v, pos, err = extractString(buf, pos, i+1); err == nil {
				*f.str(&rec) = v
			}
		case kindFloat:
			var v float64
			if v, pos, err = extractFloat(buf, pos, i+1); err == nil {
				*f.f64(&rec) = v
			}
		case kindInt64:
			var v int64
			if v, pos, err = extractInt(buf, pos, i+1, 64); err == nil {
				*f.i64(&rec) = v
			}
		case kindInt32:
			var v int64
			if v, pos, err = extractInt(buf, pos, i+1, 32); err == nil {
				*f.i32(&rec) = int32(v)
			}
		}
		if err != nil {
			return Record{}, start, err
		}
	}

	end, err := closingBrace(buf, pos)
	if err != nil {
		return Record{}, start, err
	}
	return rec, end + 1, nil
}

// closingBrace returns the offset of the '}' ending the object at or after
// pos. Meeting '{' first means the brace is missing.
func closingBrace(buf []byte, pos int) (int, error) {
	for p := pos; p < len(buf); p++ {
		switch buf[p] {
		case '}':
			return p, nil
		case '{':
			return -1, malformed(p, 0, "missing closing brace", nil)
		}
	}
	return -1, malformed(len(buf), 0, "missing closing brace", nil)
}

// ParseAll parses every object in buf, in input order. A buffer without any
// object yields an empty slice. The first malformed object aborts the scan.
func ParseAll(buf []byte) ([]Record, error) {
	records := make([]Record, 0, bytes.Count(buf, []byte{'{'}))
	pos := 0
	for {
		rec, next, err := ParseOne(buf, pos)
		if errors.Is(err, ErrEndOfInput) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		pos = next
	}
}

// Scanner walks a buffer one record at a time.
//
//	s := scanner.NewScanner(payload)
//	for s.Next() {
//		rec := s.Record()
//		...
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type Scanner struct {
	buf  []byte
	pos  int
	rec  Record
	err  error
	done bool
}

func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Next advances to the next record. It returns false once the input is
// exhausted or a malformed object was met; Err tells the two apart.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	rec, next, err := ParseOne(s.buf, s.pos)
	if err != nil {
		s.done = true
		s.rec = Record{}
		if !errors.Is(err, ErrEndOfInput) {
			s.err = err
		}
		return false
	}
	s.rec, s.pos = rec, next
	return true
}

func (s *Scanner) Record() Record { return s.rec }

// Offset is the cursor position: just past the last record returned.
func (s *Scanner) Offset() int { return s.pos }

func (s *Scanner) Err() error { return s.err }

// extractString skips the key of the current field and returns the bytes
// between the value's quotes. A bare value is returned without trailing
// whitespace. The cursor ends past the following comma, or on the closing
// brace when the field is the last one.
func extractString(buf []byte, pos, field int) ([]byte, int, error) {
	keyStart := scanTo(buf, pos, '"')
	if keyStart < 0 {
		return nil, pos, malformed(pos, field, "missing opening quote", nil)
	}
	keyEnd := scanTo(buf, keyStart+1, '"')
	if keyEnd < 0 {
		return nil, pos, malformed(keyStart, field, "unterminated key", nil)
	}
	colon := scanTo(buf, keyEnd+1, ':')
	if colon < 0 {
		return nil, pos, malformed(keyEnd, field, "missing colon", nil)
	}

	p := skipSpace(buf, colon+1)
	var val []byte
	if p < len(buf) && buf[p] == '"' {
		end := scanTo(buf, p+1, '"')
		if end < 0 {
			return nil, pos, malformed(p, field, "unterminated string", nil)
		}
		val = buf[p+1 : end : end]
		p = end + 1
	} else {
		end := scanDelim(buf, p)
		if end < 0 {
			return nil, pos, malformed(p, field, "unterminated value", nil)
		}
		val = bytes.TrimRight(buf[p:end:end], " \t\r\n")
		p = end
	}

	d := scanDelim(buf, p)
	if d < 0 {
		return nil, pos, malformed(p, field, "missing delimiter", nil)
	}
	if buf[d] == ',' {
		d++
	}
	return val, d, nil
}

func extractFloat(buf []byte, pos, field int) (float64, int, error) {
	tok, start, next, err := numberToken(buf, pos, field)
	if err != nil {
		return 0, pos, err
	}
	if !isDecimal(tok) {
		return 0, pos, malformed(start, field, "invalid number", nil)
	}
	v, err := strconv.ParseFloat(string(tok), 64)
	if err != nil {
		return 0, pos, malformed(start, field, "invalid number", err)
	}
	return v, next, nil
}

// isDecimal limits tokens to the plain decimal literal alphabet. ParseFloat
// alone would also take hex floats, digit separators, inf and nan.
func isDecimal(tok []byte) bool {
	for _, c := range tok {
		switch {
		case c >= '0' && c <= '9':
		case c == '-', c == '+', c == '.', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

func extractInt(buf []byte, pos, field, bitSize int) (int64, int, error) {
	tok, start, next, err := numberToken(buf, pos, field)
	if err != nil {
		return 0, pos, err
	}
	v, err := strconv.ParseInt(string(tok), 10, bitSize)
	if err != nil {
		return 0, pos, malformed(start, field, "invalid integer", err)
	}
	return v, next, nil
}

// numberToken skips everything up to the first digit or minus sign, which
// covers the key, the colon and an opening quote alike, then cuts the run up
// to the next comma or closing brace. The skip never crosses a brace. A trailing quote and whitespace are not
// part of the token.
func numberToken(buf []byte, pos, field int) (tok []byte, start, next int, err error) {
	p := pos
	for ; p < len(buf); p++ {
		c := buf[p]
		if c == '-' || (c >= '0' && c <= '9') {
			break
		}
		if c == '}' || c == '{' {
			return nil, p, pos, malformed(p, field, "missing value", nil)
		}
	}
	if p == len(buf) {
		return nil, p, pos, malformed(pos, field, "unexpected end of input", nil)
	}

	start = p
	end := scanDelim(buf, p)
	if end < 0 {
		return nil, start, pos, malformed(start, field, "unterminated value", nil)
	}
	tok = bytes.TrimRight(buf[start:end], " \t\r\n\"")

	next = end
	if buf[end] == ',' {
		next++
	}
	return tok, start, next, nil
}

// scanTo returns the offset of the first c at or after pos, or -1 when a
// brace or the end of buf comes first.
func scanTo(buf []byte, pos int, c byte) int {
	for ; pos < len(buf); pos++ {
		switch buf[pos] {
		case c:
			return pos
		case '}', '{':
			return -1
		}
	}
	return -1
}

// scanDelim returns the offset of the first ',' or '}' at or after pos, or -1
// when a '{' or the end of buf comes first.
func scanDelim(buf []byte, pos int) int {
	for ; pos < len(buf); pos++ {
		switch buf[pos] {
		case ',', '}':
			return pos
		case '{':
			return -1
		}
	}
	return -1
}

func skipSpace(buf []byte, pos int) int {
	for pos < len(buf) {
		switch buf[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}
