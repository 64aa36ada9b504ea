package scanner

import "strconv"

// AppendRecord writes r to dst in the wire layout ParseOne reads: keys in
// field order, floats as quoted strings and integers bare, the way the
// options ticker endpoint encodes them. Symbol is written verbatim.
func AppendRecord(dst []byte, r *Record) []byte {
	dst = append(dst, '{')
	for i := range fieldOrder {
		f := &fieldOrder[i]
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '"')
		dst = append(dst, f.name...)
		dst = append(dst, '"', ':')

		switch f.kind {
		case kindString:
			dst = append(dst, '"')
			dst = append(dst, *f.str(r)...)
			dst = append(dst, '"')
		case kindFloat:
			dst = append(dst, '"')
			dst = strconv.AppendFloat(dst, *f.f64(r), 'f', -1, 64)
			dst = append(dst, '"')
		case kindInt64:
			dst = strconv.AppendInt(dst, *f.i64(r), 10)
		case kindInt32:
			dst = strconv.AppendInt(dst, int64(*f.i32(r)), 10)
		}
	}
	return append(dst, '}')
}

// AppendRecords writes records as a JSON array.
func AppendRecords(dst []byte, records []Record) []byte {
	dst = append(dst, '[')
	for i := range records {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendRecord(dst, &records[i])
	}
	return append(dst, ']')
}
