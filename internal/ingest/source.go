// Package ingest loads allele-annotated FASTA collections.
package ingest

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Record is one FASTA entry split into identifier, description and sequence.
type Record struct {
	ID   string
	Desc string
	Seq  []byte
}

// RecordSource yields FASTA records in file order.
type RecordSource interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close releases the underlying input.
	Close() error
}

// FASTASource reads records from FASTA input.
// IMGT/HLA headers look like:
// >HLA:HLA01534 A*02:53N 1098 bp
type FASTASource struct {
	reader *fasta.Reader
	closer []io.Closer
	done   bool
}

// OpenFASTA opens a plain or gzipped FASTA file. Use "-" for stdin.
func OpenFASTA(path string) (*FASTASource, error) {
	if path == "-" {
		return NewFASTASource(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read fasta header: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		s := NewFASTASource(gz)
		s.closer = []io.Closer{gz, file}
		return s, nil
	}

	s := NewFASTASource(br)
	s.closer = []io.Closer{file}
	return s, nil
}

// NewFASTASource reads FASTA records from r. The caller owns r.
func NewFASTASource(r io.Reader) *FASTASource {
	template := linear.NewSeq("", nil, alphabet.DNAredundant)
	return &FASTASource{reader: fasta.NewReader(r, template)}
}

// Next returns the next record, or nil at end of input.
func (s *FASTASource) Next() (*Record, error) {
	if s.done {
		return nil, nil
	}

	sq, err := s.reader.Read()
	if err == io.EOF {
		s.done = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ls, ok := sq.(*linear.Seq)
	if !ok {
		return nil, fmt.Errorf("unexpected sequence type %T", sq)
	}
	if ls.ID == "" && len(ls.Seq) == 0 {
		s.done = true
		return nil, nil
	}

	raw := make([]byte, len(ls.Seq))
	for i, l := range ls.Seq {
		raw[i] = byte(l)
	}
	return &Record{ID: ls.ID, Desc: ls.Desc, Seq: raw}, nil
}

// Close closes any file opened by OpenFASTA.
func (s *FASTASource) Close() error {
	var errs []error
	for _, c := range s.closer {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
