// Package codec decodes and encodes option payloads as the host platform
// persists them. Structured payloads decode into an ordered Array because
// the host's arrays keep insertion order and the settings tree builder
// depends on the first key of every array.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Pair is one entry of an Array. Key is either an int64 or a string.
type Pair struct {
	Key   any
	Value any
}

// Array is an ordered associative array with host key semantics.
type Array struct {
	pairs []Pair
	index map[any]int
	next  int64
}

// NewArray creates an empty Array.
func NewArray() *Array {
	return &Array{index: make(map[any]int)}
}

// ArrayOf builds a list Array from the given values.
func ArrayOf(values ...any) *Array {
	a := NewArray()
	for _, v := range values {
		a.Append(v)
	}
	return a
}

// Len returns the number of entries.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.pairs)
}

// Pairs returns the entries in insertion order. The slice must not be modified.
func (a *Array) Pairs() []Pair {
	if a == nil {
		return nil
	}
	return a.pairs
}

// FirstKey returns the key of the first entry.
func (a *Array) FirstKey() (any, bool) {
	if a.Len() == 0 {
		return nil, false
	}
	return a.pairs[0].Key, true
}

// Get returns the value stored under key.
func (a *Array) Get(key any) (any, bool) {
	if a == nil {
		return nil, false
	}
	i, ok := a.index[NormalizeKey(key)]
	if !ok {
		return nil, false
	}
	return a.pairs[i].Value, true
}

// Set stores value under key, keeping the original position when the key exists.
func (a *Array) Set(key any, value any) {
	k := NormalizeKey(key)
	if i, ok := a.index[k]; ok {
		a.pairs[i].Value = value
		return
	}
	a.index[k] = len(a.pairs)
	a.pairs = append(a.pairs, Pair{Key: k, Value: value})
	if n, ok := k.(int64); ok && n >= a.next {
		a.next = n + 1
	}
}

// Append stores value under the next free integer key.
func (a *Array) Append(value any) {
	a.Set(a.next, value)
}

// Clone returns a deep copy. Nested arrays are copied too; other values are
// immutable scalars and are shared.
func (a *Array) Clone() *Array {
	if a == nil {
		return nil
	}
	out := &Array{
		pairs: make([]Pair, len(a.pairs)),
		index: make(map[any]int, len(a.index)),
		next:  a.next,
	}
	for i, p := range a.pairs {
		if nested, ok := p.Value.(*Array); ok {
			p.Value = nested.Clone()
		}
		out.pairs[i] = p
	}
	for k, i := range a.index {
		out.index[k] = i
	}
	return out
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (a *Array) IsList() bool {
	for i, p := range a.Pairs() {
		n, ok := p.Key.(int64)
		if !ok || n != int64(i) {
			return false
		}
	}
	return true
}

// Values returns the values in insertion order.
func (a *Array) Values() []any {
	out := make([]any, 0, a.Len())
	for _, p := range a.Pairs() {
		out = append(out, p.Value)
	}
	return out
}

// Export converts the array into plain Go values: a []any for lists and a
// map[string]any otherwise. Nested arrays are converted too.
func (a *Array) Export() any {
	if a.IsList() {
		out := make([]any, 0, a.Len())
		for _, p := range a.pairs {
			out = append(out, Export(p.Value))
		}
		return out
	}
	out := make(map[string]any, a.Len())
	for _, p := range a.pairs {
		out[KeyString(p.Key)] = Export(p.Value)
	}
	return out
}

// MarshalJSON keeps the entry order for associative arrays.
func (a *Array) MarshalJSON() ([]byte, error) {
	if a.IsList() {
		return json.Marshal(a.Values())
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range a.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(KeyString(p.Key))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML exports the array as plain values.
func (a *Array) MarshalYAML() (any, error) {
	return a.Export(), nil
}

// Export converts v into plain Go values when it is an Array.
func Export(v any) any {
	if a, ok := v.(*Array); ok {
		return a.Export()
	}
	return v
}

var intKey = regexp.MustCompile(`^(0|-?[1-9][0-9]*)$`)

// NormalizeKey converts a key the way the host does when it is used as an
// array index: canonical decimal integer strings become integers.
func NormalizeKey(key any) any {
	switch k := key.(type) {
	case int64:
		return k
	case int:
		return int64(k)
	case int32:
		return int64(k)
	case bool:
		if k {
			return int64(1)
		}
		return int64(0)
	case string:
		if intKey.MatchString(k) {
			if n, err := strconv.ParseInt(k, 10, 64); err == nil {
				return n
			}
		}
		return k
	case nil:
		return ""
	default:
		return fmt.Sprint(k)
	}
}

// KeyString renders a key as a string.
func KeyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case int64:
		return strconv.FormatInt(k, 10)
	default:
		return fmt.Sprint(k)
	}
}
