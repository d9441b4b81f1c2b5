// Package allele parses HLA allele designations and resolves the lowest
// common allele across a group of equivalence classes.
package allele

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxFields is the number of numeric fields in a designation (allele group,
// protein, synonymous, non-coding).
const MaxFields = 4

// Allele is a parsed nomenclature designation such as A*01:01:01:01.
// The zero value is not a valid allele, though it survives a binary round
// trip. Values are immutable once built.
type Allele struct {
	gene   string
	fields [MaxFields]uint16
	depth  int // number of numeric fields present
}

// New creates an allele from a gene and up to four numeric fields.
// An allele with no fields is allowed and represents a gene-level ancestor.
func New(gene string, fields ...uint16) (Allele, error) {
	if gene == "" {
		return Allele{}, errors.New("allele: empty gene")
	}
	if len(fields) > MaxFields {
		return Allele{}, fmt.Errorf("allele: %d fields, at most %d allowed", len(fields), MaxFields)
	}
	a := Allele{gene: gene, depth: len(fields)}
	copy(a.fields[:], fields)
	return a, nil
}

// Gene returns the gene name, e.g. "A" or "MICB".
func (a Allele) Gene() string { return a.gene }

// Depth returns how many numeric fields are present.
func (a Allele) Depth() int { return a.depth }

// Field returns numeric field 1..4 and whether it is present.
func (a Allele) Field(level int) (uint16, bool) {
	if level < 1 || level > a.depth {
		return 0, false
	}
	return a.fields[level-1], true
}

// F1 returns the allele group field, e.g. 01 in A*01:02.
func (a Allele) F1() (uint16, bool) { return a.Field(1) }

// F2 returns the specific HLA protein field.
func (a Allele) F2() (uint16, bool) { return a.Field(2) }

// F3 returns the synonymous coding-region substitution field.
func (a Allele) F3() (uint16, bool) { return a.Field(3) }

// F4 returns the non-coding-region difference field.
func (a Allele) F4() (uint16, bool) { return a.Field(4) }

// Fields returns a copy of the present numeric fields.
func (a Allele) Fields() []uint16 {
	out := make([]uint16, a.depth)
	copy(out, a.fields[:a.depth])
	return out
}

// IsZero reports whether a is the zero value.
func (a Allele) IsZero() bool { return a.gene == "" }

// Equal reports whether a and b carry the same gene and fields.
func (a Allele) Equal(b Allele) bool {
	return a == b
}

// String formats the allele as GENE*NN:NN..., padding fields to two digits.
func (a Allele) String() string {
	if a.depth == 0 {
		return a.gene
	}
	var sb strings.Builder
	sb.WriteString(a.gene)
	sb.WriteByte('*')
	for i := 0; i < a.depth; i++ {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02d", a.fields[i])
	}
	return sb.String()
}

type jsonAllele struct {
	Gene string  `json:"gene"`
	F1   *uint16 `json:"f1,omitempty"`
	F2   *uint16 `json:"f2,omitempty"`
	F3   *uint16 `json:"f3,omitempty"`
	F4   *uint16 `json:"f4,omitempty"`
}

// MarshalJSON emits the gene and the present fields; absent fields are omitted.
func (a Allele) MarshalJSON() ([]byte, error) {
	j := jsonAllele{Gene: a.gene}
	ptrs := []**uint16{&j.F1, &j.F2, &j.F3, &j.F4}
	for i := 0; i < a.depth; i++ {
		v := a.fields[i]
		*ptrs[i] = &v
	}
	return json.Marshal(j)
}

// MarshalBinary encodes the allele as depth, fields and gene. The zero
// value encodes as a single zero byte.
func (a Allele) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 1+2*a.depth, 1+2*a.depth+len(a.gene))
	buf[0] = byte(a.depth)
	for i := 0; i < a.depth; i++ {
		binary.LittleEndian.PutUint16(buf[1+2*i:], a.fields[i])
	}
	return append(buf, a.gene...), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (a *Allele) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return errors.New("allele: short binary encoding")
	}
	depth := int(data[0])
	if depth > MaxFields || len(data) < 1+2*depth {
		return fmt.Errorf("allele: corrupt binary encoding (depth %d, %d bytes)", depth, len(data))
	}
	if depth > 0 && len(data) == 1+2*depth {
		return errors.New("allele: fields without a gene")
	}
	var fields [MaxFields]uint16
	for i := 0; i < depth; i++ {
		fields[i] = binary.LittleEndian.Uint16(data[1+2*i:])
	}
	*a = Allele{gene: string(data[1+2*depth:]), fields: fields, depth: depth}
	return nil
}
