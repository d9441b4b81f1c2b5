package ingest

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/vibe-hla/internal/allele"
	"github.com/inodb/vibe-hla/internal/dna"
)

// WorkItem holds a record read from the source, numbered in file order.
type WorkItem struct {
	Seq    int
	Record *Record
}

// WorkResult holds the processed output for a single record.
type WorkResult struct {
	Seq         int
	ID          string
	Packed      dna.Packed
	Designation string
	Allele      allele.Allele
	Err         error
}

// ProcessParallel encodes and parses work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (in *Ingester) ProcessParallel(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- in.process(item.Seq, item.Record)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// IngestParallel is Ingest with encoding and parsing spread over workers.
// Output order and error semantics match Ingest: the first failing record in
// file order aborts the pass.
func (in *Ingester) IngestParallel(src RecordSource, workers int) (*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	in.logger.Info("starting fasta ingestion", zap.Int("workers", workers))

	items := make(chan WorkItem, 2*workers)
	stop := make(chan struct{})
	var stopOnce sync.Once
	halt := func() { stopOnce.Do(func() { close(stop) }) }

	var srcErr error
	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			rec, err := src.Next()
			if err != nil {
				srcErr = fmt.Errorf("%w %d: %w", ErrSource, seq, err)
				return
			}
			if rec == nil {
				return
			}
			select {
			case items <- WorkItem{Seq: seq, Record: rec}:
			case <-stop:
				return
			}
		}
	}()

	res := newResult()
	err := OrderedCollect(in.ProcessParallel(items, workers), func(r WorkResult) error {
		if r.Err != nil {
			halt()
			return r.Err
		}
		res.add(r)
		in.report(res.Len(), false)
		return nil
	})
	halt()
	if err != nil {
		return nil, err
	}
	if srcErr != nil {
		return nil, srcErr
	}

	in.report(res.Len(), true)
	in.logger.Info("done reading fasta", zap.Int("sequences", res.Len()))
	return res, nil
}
