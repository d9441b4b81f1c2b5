package allele

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parse error kinds. Use errors.Is to test for a kind and errors.As with
// *ParseError to recover the offending input.
var (
	ErrInvalidFormat    = errors.New("invalid allele string")
	ErrMissingSeparator = errors.New("no '*' separator")
	ErrNoNumericFields  = errors.New("no numeric fields")
	ErrFieldOverflow    = errors.New("numeric field out of range")
)

// ParseError describes a designation that could not be parsed.
type ParseError struct {
	Input string
	Field string // offending numeric field, set for ErrFieldOverflow
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: %q in %q", e.Err, e.Field, e.Input)
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser validates and decomposes designation strings like A*02:53N.
// A Parser is safe for concurrent use.
type Parser struct {
	valid *regexp.Regexp
	field *regexp.Regexp
}

// NewParser creates a parser for the designation grammar
// GENE*NUM(:NUM)*[SUFFIX].
func NewParser() *Parser {
	return &Parser{
		valid: regexp.MustCompile(`^[A-Z0-9]+\*[0-9]+(:[0-9]+)*[A-Z]?$`),
		field: regexp.MustCompile(`[0-9]+(:[0-9]+)*`),
	}
}

var defaultParser = NewParser()

// Parse parses s with a shared parser.
func Parse(s string) (Allele, error) {
	return defaultParser.Parse(s)
}

// Parse converts a designation into an Allele.
//
// An expression suffix letter (N, L, S, Q, ...) is accepted and dropped.
// Designations with more than four numeric fields keep the first four.
func (p *Parser) Parse(s string) (Allele, error) {
	if !p.valid.MatchString(s) {
		return Allele{}, &ParseError{Input: s, Err: ErrInvalidFormat}
	}

	gene, suffix, ok := strings.Cut(s, "*")
	if !ok {
		return Allele{}, &ParseError{Input: s, Err: ErrMissingSeparator}
	}

	run := p.field.FindString(suffix)
	if run == "" {
		return Allele{}, &ParseError{Input: s, Err: ErrNoNumericFields}
	}

	parts := strings.Split(run, ":")
	if len(parts) > MaxFields {
		parts = parts[:MaxFields]
	}

	a := Allele{gene: gene, depth: len(parts)}
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return Allele{}, &ParseError{Input: s, Field: part, Err: ErrFieldOverflow}
		}
		a.fields[i] = uint16(v)
	}
	return a, nil
}
