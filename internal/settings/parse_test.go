package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vrsandeep/xwc-settings/internal/codec"
)

func TestParseOption(t *testing.T) {
	structured := codec.ArrayOf("a")

	testCases := []struct {
		name string
		in   any
		want any
	}{
		{"yes", "yes", true},
		{"YES padded", "  YES ", true},
		{"on", "on", true},
		{"true", "true", true},
		{"one", "1", true},
		{"zero", "0", false},
		{"no", "no", false},
		{"off", "Off", false},
		{"false", "false", false},
		{"integer", "42", int64(42)},
		{"signed integer", "-17", int64(-17)},
		{"plus integer", "+8", int64(8)},
		{"float", "3.14", 3.14},
		{"float exponent", "1.5e3", 1500.0},
		{"leading dot", ".5", 0.5},
		{"text", "hello", "hello"},
		{"text keeps case and padding", " Hello World ", " Hello World "},
		{"two dots", "1.2.3", "1.2.3"},
		{"nil", nil, ""},
		{"bool passes", false, false},
		{"int passes", int64(9), int64(9)},
		{"structured passes", structured, structured},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseOption(tc.in))
		})
	}
}

func TestHasSubfields(t *testing.T) {
	named := codec.NewArray()
	named.Set("title", "x")

	numericString := codec.NewArray()
	numericString.Set("1.5", "x")

	assert.True(t, HasSubfields(named))
	assert.True(t, HasSubfields(codec.NewArray()))
	assert.False(t, HasSubfields(codec.ArrayOf("a", "b")))
	assert.False(t, HasSubfields(numericString))
	assert.False(t, HasSubfields("title"))
	assert.False(t, HasSubfields(nil))
}

func TestIsSplit(t *testing.T) {
	testCases := []struct {
		key   string
		level int
		want  bool
	}{
		{"shipping-methods", 1, true},
		{"shipping-methods", 0, false},
		{"shipping_-_methods", 2, true},
		{"shipping-free_methods", 1, true},
		{"shipping", 1, false},
		{"Shipping-methods", 1, false},
		{"shipping-methods-extra", 1, false},
		{"ship2-methods", 1, false},
		{"-methods", 1, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, IsSplit(tc.key, tc.level), "%s@%d", tc.key, tc.level)
	}
}

func TestSplitKey(t *testing.T) {
	first, rest := SplitKey("shipping_-_methods")
	assert.Equal(t, "shipping", first)
	assert.Equal(t, "methods", rest)

	first, rest = SplitKey("a-b-c")
	assert.Equal(t, "a", first)
	assert.Equal(t, "b_-_c", rest)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitPath("a..b"))
	assert.Equal(t, []string{"a", "b"}, SplitPath(".a.b."))
	assert.Empty(t, SplitPath(""))
	assert.Equal(t, []string{"0"}, SplitPath("0"))
}
