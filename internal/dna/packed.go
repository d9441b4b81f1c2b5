// Package dna provides a 2-bit packed nucleotide encoding.
package dna

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"
)

// ErrInvalidBase is returned when a sequence contains a byte that is not a
// nucleotide letter.
var ErrInvalidBase = errors.New("invalid base")

const basesPerWord = 32

var alphabet = [4]byte{'A', 'C', 'G', 'T'}

// Packed is a nucleotide sequence stored at two bits per base.
type Packed struct {
	words []uint64
	n     int
}

// Encode packs seq into 2-bit form. A, C, G and T (either case, with U read
// as T) map directly. Any other letter, such as an IUPAC ambiguity code or N,
// is replaced by a base chosen from a hash of id and the position, so the
// same record always encodes the same way.
func Encode(seq []byte, id string) (Packed, error) {
	p := Packed{
		words: make([]uint64, (len(seq)+basesPerWord-1)/basesPerWord),
		n:     len(seq),
	}
	var seed uint64
	var seeded bool
	for i, c := range seq {
		code, ok := baseCode(c)
		if !ok {
			if !isLetter(c) {
				return Packed{}, fmt.Errorf("%w %q at position %d of %s", ErrInvalidBase, c, i, id)
			}
			if !seeded {
				seed = xxh3.HashString(id)
				seeded = true
			}
			code = replacementBase(seed, i)
		}
		p.words[i/basesPerWord] |= uint64(code) << (2 * uint(i%basesPerWord))
	}
	return p, nil
}

func baseCode(c byte) (byte, bool) {
	switch c {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't', 'U', 'u':
		return 3, true
	}
	return 0, false
}

func isLetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func replacementBase(seed uint64, pos int) byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(pos))
	return byte(xxh3.HashSeed(b[:], seed) & 3)
}

// Len returns the number of bases.
func (p Packed) Len() int { return p.n }

// Base returns base i as one of 'A', 'C', 'G', 'T'.
func (p Packed) Base(i int) byte {
	if i < 0 || i >= p.n {
		panic(fmt.Sprintf("dna: base %d out of range [0, %d)", i, p.n))
	}
	return alphabet[(p.words[i/basesPerWord]>>(2*uint(i%basesPerWord)))&3]
}

// String returns the sequence as ACGT text.
func (p Packed) String() string {
	b := make([]byte, p.n)
	for i := range b {
		b[i] = p.Base(i)
	}
	return string(b)
}

// Equal reports whether p and q hold the same bases.
func (p Packed) Equal(q Packed) bool {
	if p.n != q.n {
		return false
	}
	for i := range p.words {
		if p.words[i] != q.words[i] {
			return false
		}
	}
	return true
}

// MarshalBinary encodes the length followed by the packed words.
func (p Packed) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+8*len(p.words))
	binary.LittleEndian.PutUint64(buf, uint64(p.n))
	for i, w := range p.words {
		binary.LittleEndian.PutUint64(buf[8+8*i:], w)
	}
	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (p *Packed) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("dna: short binary encoding")
	}
	n := int(binary.LittleEndian.Uint64(data))
	nw := (n + basesPerWord - 1) / basesPerWord
	if n < 0 || len(data) != 8+8*nw {
		return fmt.Errorf("dna: corrupt binary encoding (%d bases, %d bytes)", n, len(data))
	}
	words := make([]uint64, nw)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[8+8*i:])
	}
	*p = Packed{words: words, n: n}
	return nil
}
