package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"gemini", "gemini"},
		{42, "42"},
		{int64(768), "768"},
		{0.5, "0.5"},
		{true, "true"},
		{[]string{"a"}, ""},
		{map[string]any{"a": 1}, ""},
		{nil, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, String(tc.in), "%#v", tc.in)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{7, 7},
		{int64(8), 8},
		{9.7, 9},
		{" 10 ", 10},
		{"08", 8},
		{"x", 0},
		{true, 0},
		{[]any{1}, 0},
		{nil, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Int(tc.in), "%#v", tc.in)
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{"true", true},
		{" 1 ", true},
		{"0", false},
		{"maybe", false},
		{1, true},
		{0, false},
		{nil, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Bool(tc.in), "%#v", tc.in)
	}
}

func TestStringSlice(t *testing.T) {
	in := []string{"lei"}
	out := StringSlice(in)
	out[0] = "changed"
	assert.Equal(t, "lei", in[0], "result must not alias the stored slice")

	assert.Equal(t, []string{"lei", "portaria"}, StringSlice([]any{"lei", 3, "portaria"}))
	assert.Equal(t, []string{"lei", "decreto_lei", "portaria"}, StringSlice("lei, decreto_lei,,portaria"))
	assert.Nil(t, StringSlice(5))
	assert.Nil(t, StringSlice(nil))
}
