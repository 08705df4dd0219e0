package codec

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrMalformed is returned when a serialized payload cannot be decoded.
var ErrMalformed = errors.Base("malformed serialized payload")

// IsSerialized reports whether s looks like a host-serialized value.
func IsSerialized(s string) bool {
	s = strings.TrimSpace(s)
	if s == "N;" {
		return true
	}
	if len(s) < 4 || s[1] != ':' {
		return false
	}
	last := s[len(s)-1]
	if last != ';' && last != '}' {
		return false
	}
	switch s[0] {
	case 's', 'a', 'O', 'b', 'i', 'd':
		return true
	}
	return false
}

// MaybeUnserialize decodes s when it is a serialized payload and returns
// it unchanged otherwise. A payload that looks serialized but fails to
// decode is also returned unchanged.
func MaybeUnserialize(s string) any {
	if !IsSerialized(s) {
		return s
	}
	v, err := Unserialize(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return v
}

// Unserialize decodes a complete serialized payload.
func Unserialize(s string) (any, error) {
	d := &decoder{src: s}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.src) {
		return nil, errors.Errorf("%w: trailing data at offset %d", ErrMalformed, d.pos)
	}
	return v, nil
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) fail(what string) error {
	return errors.Errorf("%w: %s at offset %d", ErrMalformed, what, d.pos)
}

func (d *decoder) expect(c byte) error {
	if d.pos >= len(d.src) || d.src[d.pos] != c {
		return d.fail("expected " + strconv.QuoteRune(rune(c)))
	}
	d.pos++
	return nil
}

// until reads up to (not including) the delimiter and consumes it.
func (d *decoder) until(delim byte) (string, error) {
	i := strings.IndexByte(d.src[d.pos:], delim)
	if i < 0 {
		return "", d.fail("unterminated token")
	}
	tok := d.src[d.pos : d.pos+i]
	d.pos += i + 1
	return tok, nil
}

func (d *decoder) length(delim byte) (int, error) {
	tok, err := d.until(delim)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, d.fail("invalid length")
	}
	return n, nil
}

func (d *decoder) value() (any, error) {
	if d.pos+1 >= len(d.src) {
		return nil, d.fail("unexpected end")
	}
	kind := d.src[d.pos]
	if kind == 'N' {
		d.pos++
		return nil, d.expect(';')
	}
	d.pos++
	if err := d.expect(':'); err != nil {
		return nil, err
	}

	switch kind {
	case 'b':
		tok, err := d.until(';')
		if err != nil {
			return nil, err
		}
		switch tok {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, d.fail("invalid boolean")
	case 'i':
		tok, err := d.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, d.fail("invalid integer")
		}
		return n, nil
	case 'd':
		tok, err := d.until(';')
		if err != nil {
			return nil, err
		}
		switch tok {
		case "INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NAN":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, d.fail("invalid float")
		}
		return f, nil
	case 's':
		return d.str()
	case 'a':
		n, err := d.length(':')
		if err != nil {
			return nil, err
		}
		return d.entries(n)
	case 'O':
		// Objects decode into their property array; the class name is dropped.
		if _, err := d.quoted(); err != nil {
			return nil, err
		}
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		n, err := d.length(':')
		if err != nil {
			return nil, err
		}
		return d.entries(n)
	}
	return nil, d.fail("unsupported type " + strconv.QuoteRune(rune(kind)))
}

func (d *decoder) quoted() (string, error) {
	// Called with pos on the byte length; reads N:"...".
	n, err := d.length(':')
	if err != nil {
		return "", err
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if n > len(d.src)-d.pos {
		return "", d.fail("string overflows payload")
	}
	s := d.src[d.pos : d.pos+n]
	d.pos += n
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) str() (string, error) {
	s, err := d.quoted()
	if err != nil {
		return "", err
	}
	return s, d.expect(';')
}

func (d *decoder) entries(n int) (*Array, error) {
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	// Every entry takes at least four bytes, so a count past the remaining
	// input can never be satisfied.
	if n > (len(d.src)-d.pos)/4 {
		return nil, d.fail("array length overflows payload")
	}
	arr := NewArray()
	for i := 0; i < n; i++ {
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		switch k.(type) {
		case int64, string:
		default:
			return nil, d.fail("invalid array key")
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		arr.Set(k, v)
	}
	if err := d.expect('}'); err != nil {
		return nil, err
	}
	return arr, nil
}

// Serialize encodes v in the host's serialized format. Maps are written
// with sorted keys so the output is stable.
func Serialize(v any) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("N;")
	case bool:
		if val {
			b.WriteString("b:1;")
		} else {
			b.WriteString("b:0;")
		}
	case int:
		writeInt(b, int64(val))
	case int32:
		writeInt(b, int64(val))
	case int64:
		writeInt(b, val)
	case float32:
		writeFloat(b, float64(val))
	case float64:
		writeFloat(b, val)
	case string:
		writeString(b, val)
	case *Array:
		b.WriteString("a:" + strconv.Itoa(val.Len()) + ":{")
		for _, p := range val.Pairs() {
			writeValue(b, p.Key)
			writeValue(b, p.Value)
		}
		b.WriteString("}")
	case []string:
		b.WriteString("a:" + strconv.Itoa(len(val)) + ":{")
		for i, s := range val {
			writeInt(b, int64(i))
			writeString(b, s)
		}
		b.WriteString("}")
	case []any:
		b.WriteString("a:" + strconv.Itoa(len(val)) + ":{")
		for i, item := range val {
			writeInt(b, int64(i))
			writeValue(b, item)
		}
		b.WriteString("}")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("a:" + strconv.Itoa(len(val)) + ":{")
		for _, k := range keys {
			writeValue(b, NormalizeKey(k))
			writeValue(b, val[k])
		}
		b.WriteString("}")
	default:
		writeString(b, KeyString(val))
	}
}

func writeInt(b *strings.Builder, n int64) {
	b.WriteString("i:" + strconv.FormatInt(n, 10) + ";")
}

func writeFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsInf(f, 1):
		b.WriteString("d:INF;")
	case math.IsInf(f, -1):
		b.WriteString("d:-INF;")
	case math.IsNaN(f):
		b.WriteString("d:NAN;")
	default:
		b.WriteString("d:" + strconv.FormatFloat(f, 'g', -1, 64) + ";")
	}
}

func writeString(b *strings.Builder, s string) {
	b.WriteString("s:" + strconv.Itoa(len(s)) + ":\"" + s + "\";")
}
