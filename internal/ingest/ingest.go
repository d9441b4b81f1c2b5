package ingest

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-hla/internal/allele"
	"github.com/inodb/vibe-hla/internal/dna"
)

// Ingestion failure kinds. Designation parse failures wrap *allele.ParseError.
var (
	ErrMissingAnnotation = errors.New("record has no allele annotation")
	ErrSource            = errors.New("read fasta record")
	ErrEncode            = errors.New("encode sequence")
)

// DefaultProgressEvery is the default number of records between progress
// reports.
const DefaultProgressEvery = 100

// Result holds the correlated outputs of one ingestion pass. Sequences,
// Designations and IDs share the record index; Alleles is keyed by record ID,
// later duplicates replacing earlier ones.
type Result struct {
	Sequences    []dna.Packed
	Designations []string
	Alleles      map[string]allele.Allele
	IDs          []string
}

func newResult() *Result {
	return &Result{Alleles: make(map[string]allele.Allele)}
}

// Len returns the number of ingested records.
func (r *Result) Len() int { return len(r.Designations) }

// ProgressFunc is called with the number of records read so far.
type ProgressFunc func(records int)

// LogProgress returns a ProgressFunc that logs to l.
func LogProgress(l *zap.Logger) ProgressFunc {
	return func(records int) {
		l.Info("reading sequences", zap.Int("records", records))
	}
}

// Ingester converts FASTA records into encoded sequences and parsed alleles.
type Ingester struct {
	parser        *allele.Parser
	logger        *zap.Logger
	progress      ProgressFunc
	progressEvery int
}

// NewIngester creates an ingester with no progress reporting.
func NewIngester() *Ingester {
	return &Ingester{
		parser:        allele.NewParser(),
		logger:        zap.NewNop(),
		progressEvery: DefaultProgressEvery,
	}
}

// SetLogger sets the logger for info messages.
func (in *Ingester) SetLogger(l *zap.Logger) {
	in.logger = l
}

// SetProgress registers fn to be called every n records and with the final
// count when the source is exhausted. n <= 0 selects DefaultProgressEvery.
func (in *Ingester) SetProgress(fn ProgressFunc, n int) {
	if n <= 0 {
		n = DefaultProgressEvery
	}
	in.progress = fn
	in.progressEvery = n
}

// Ingest reads every record from src. Any failure aborts the whole pass and
// no partial result is returned.
func (in *Ingester) Ingest(src RecordSource) (*Result, error) {
	in.logger.Info("starting fasta ingestion")

	res := newResult()
	for idx := 0; ; idx++ {
		rec, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrSource, idx, err)
		}
		if rec == nil {
			break
		}

		out := in.process(idx, rec)
		if out.Err != nil {
			return nil, out.Err
		}
		res.add(out)
		in.report(res.Len(), false)
	}

	in.report(res.Len(), true)
	in.logger.Info("done reading fasta", zap.Int("sequences", res.Len()))
	return res, nil
}

func (in *Ingester) report(n int, final bool) {
	if in.progress == nil {
		return
	}
	// the final count is reported unless it was just reported
	if (n%in.progressEvery == 0) != final {
		in.progress(n)
	}
}

// process encodes and parses one record.
func (in *Ingester) process(idx int, rec *Record) WorkResult {
	r := WorkResult{Seq: idx, ID: rec.ID}

	packed, err := dna.Encode(rec.Seq, rec.ID)
	if err != nil {
		r.Err = fmt.Errorf("record %d (%s): %w: %w", idx, rec.ID, ErrEncode, err)
		return r
	}

	fields := strings.Fields(rec.Desc)
	if len(fields) == 0 {
		r.Err = fmt.Errorf("record %d (%s): %w", idx, rec.ID, ErrMissingAnnotation)
		return r
	}
	designation := fields[0]

	a, err := in.parser.Parse(designation)
	if err != nil {
		r.Err = fmt.Errorf("record %d (%s): %w", idx, rec.ID, err)
		return r
	}

	r.Packed = packed
	r.Designation = designation
	r.Allele = a
	return r
}

func (res *Result) add(r WorkResult) {
	res.Sequences = append(res.Sequences, r.Packed)
	res.Designations = append(res.Designations, r.Designation)
	res.Alleles[r.ID] = r.Allele
	res.IDs = append(res.IDs, r.ID)
}
