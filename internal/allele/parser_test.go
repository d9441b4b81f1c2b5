package allele

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input  string
		gene   string
		fields []uint16
	}{
		{"A*01:01:01:01", "A", []uint16{1, 1, 1, 1}},
		{"A*01:01:38L", "A", []uint16{1, 1, 38}},
		{"MICB*012", "MICB", []uint16{12}},
		{"A*02:53N", "A", []uint16{2, 53}},
		{"DRB1*15:01:01:02", "DRB1", []uint16{15, 1, 1, 2}},
		{"C*07:01:01:01Q", "C", []uint16{7, 1, 1, 1}},
		{"B*65535", "B", []uint16{65535}},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a, err := p.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.gene, a.Gene())
			assert.Equal(t, tt.fields, a.Fields())
			assert.Equal(t, len(tt.fields), a.Depth())
		})
	}
}

func TestParse_OptionalFields(t *testing.T) {
	a, err := Parse("A*01:01:38L")
	require.NoError(t, err)

	f1, ok := a.F1()
	assert.True(t, ok)
	assert.Equal(t, uint16(1), f1)
	f3, ok := a.F3()
	assert.True(t, ok)
	assert.Equal(t, uint16(38), f3)
	_, ok = a.F4()
	assert.False(t, ok, "f4 should be absent")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		input string
		kind  error
	}{
		{"MICB*012,5", ErrInvalidFormat},
		{"", ErrInvalidFormat},
		{"A", ErrInvalidFormat},
		{"A*", ErrInvalidFormat},
		{"a*01:01", ErrInvalidFormat},
		{"A*01:", ErrInvalidFormat},
		{"A*01::01", ErrInvalidFormat},
		{"A*01:01NN", ErrInvalidFormat},
		{"HLA-A*01:01", ErrInvalidFormat},
		{"A*01:01 extra", ErrInvalidFormat},
		{"A*70000", ErrFieldOverflow},
		{"A*01:99999:01", ErrFieldOverflow},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := p.Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v, want %v", err, tt.kind)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.input, perr.Input)
		})
	}
}

func TestParse_OverflowReportsField(t *testing.T) {
	_, err := Parse("A*01:99999")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "99999", perr.Field)
	assert.Contains(t, err.Error(), "A*01:99999")
}

// Designations longer than four fields are truncated rather than rejected.
func TestParse_ExtraFieldsTruncated(t *testing.T) {
	a, err := Parse("A*01:02:03:04:05")
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3, 4}, a.Fields())
}

// Overflow in a field past the fourth is not checked since it is dropped.
func TestParse_ExtraFieldOverflowIgnored(t *testing.T) {
	a, err := Parse("A*01:02:03:04:99999")
	require.NoError(t, err)
	assert.Equal(t, 4, a.Depth())
}
