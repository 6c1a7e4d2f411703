package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSignature(t *testing.T) {
	tests := []struct {
		sig    string
		name   string
		params []string
		ok     bool
	}{
		{"calc(a,b)", "calc", []string{"a", "b"}, true},
		{"calc()", "calc", []string{}, true},
		{"calc(*,b)", "calc", []string{"*", "b"}, true},
		{"calc", "", nil, false},
		{"(a)", "", nil, false},
		{"calc(a,b", "", nil, false},
		{"calc(a,,b)", "", nil, false},
		{"calc(a, b)", "", nil, false},
		{"calc((a))", "", nil, false},
		{"", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			name, params, ok := ParseSignature(tt.sig)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestFormatSignature(t *testing.T) {
	assert.Equal(t, "calc(a,b)", FormatSignature("calc", []string{"a", "b"}))
	assert.Equal(t, "calc()", FormatSignature("calc", nil))

	name, params, ok := ParseSignature(FormatSignature("f", []string{"x", "y"}))
	assert.True(t, ok)
	assert.Equal(t, "f", name)
	assert.Equal(t, []string{"x", "y"}, params)
}
