package dna

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_ACGT(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"A", "A"},
		{"ACGT", "ACGT"},
		{"acgt", "ACGT"},
		{"ACGU", "ACGT"},
		// crosses a word boundary
		{strings.Repeat("GATTACA", 10), strings.Repeat("GATTACA", 10)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := Encode([]byte(tt.in), "HLA:HLA00001")
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), p.Len())
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestEncode_AmbiguousBasesAreRepeatable(t *testing.T) {
	seq := []byte("ACGTNNNNRYKMACGT")

	a, err := Encode(seq, "HLA:HLA01534")
	require.NoError(t, err)
	b, err := Encode(seq, "HLA:HLA01534")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, len(seq), a.Len())
	assert.Equal(t, "ACGT", a.String()[:4])
	assert.Equal(t, "ACGT", a.String()[12:])
	for i := 0; i < a.Len(); i++ {
		assert.Contains(t, "ACGT", string(a.Base(i)))
	}
}

func TestEncode_InvalidByte(t *testing.T) {
	_, err := Encode([]byte("ACG T"), "HLA:HLA00001")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBase)
	assert.Contains(t, err.Error(), "HLA:HLA00001")
	assert.Contains(t, err.Error(), "position 3")
}

func TestBase_OutOfRange(t *testing.T) {
	p, err := Encode([]byte("AC"), "x")
	require.NoError(t, err)
	assert.Panics(t, func() { p.Base(2) })
}

func TestEqual(t *testing.T) {
	a, _ := Encode([]byte("ACGT"), "x")
	b, _ := Encode([]byte("ACGA"), "x")
	c, _ := Encode([]byte("ACG"), "x")
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBinaryRoundTrip(t *testing.T) {
	p, err := Encode([]byte(strings.Repeat("ACGTTGCA", 9)+"N"), "HLA:HLA00002")
	require.NoError(t, err)

	data, err := p.MarshalBinary()
	require.NoError(t, err)

	var q Packed
	require.NoError(t, q.UnmarshalBinary(data))
	assert.True(t, p.Equal(q))
	assert.Equal(t, p.String(), q.String())

	assert.Error(t, q.UnmarshalBinary(data[:len(data)-1]))
	assert.Error(t, q.UnmarshalBinary([]byte{1}))
}
