package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-hla/internal/allele"
	"github.com/inodb/vibe-hla/internal/ingest"
)

// WriteResult replaces the allele table with one row per ingested record.
// The record index becomes the equivalence class id. Rows are appended to a
// staging table first, so a failed write leaves the previous table intact.
func (s *Store) WriteResult(res *ingest.Result) error {
	db, err := allele.BuildDB(allele.NewParser(), res.Designations)
	if err != nil {
		return fmt.Errorf("rebuild alleles: %w", err)
	}
	if len(res.IDs) != db.Len() || len(res.Sequences) != db.Len() {
		return fmt.Errorf("inconsistent result: %d ids, %d sequences, %d designations",
			len(res.IDs), len(res.Sequences), db.Len())
	}

	return s.replaceAlleles(func(appendRow rowAppender) error {
		for i := 0; i < db.Len(); i++ {
			a := db.At(i)
			var f [allele.MaxFields]int32
			for level := 1; level <= a.Depth(); level++ {
				v, _ := a.Field(level)
				f[level-1] = int32(v)
			}
			if err := appendRow(
				int64(i), res.IDs[i], res.Designations[i], a.Gene(), int32(a.Depth()),
				f[0], f[1], f[2], f[3], int64(res.Sequences[i].Len()),
			); err != nil {
				return fmt.Errorf("append allele %d: %w", i, err)
			}
		}
		return nil
	})
}

// rowAppender appends one row in alleles column order.
type rowAppender func(args ...driver.Value) error

const stagingTable = "alleles_staging"

// replaceAlleles fills a staging table through fill and, if that succeeds,
// swaps it in for alleles in one transaction.
func (s *Store) replaceAlleles(fill func(rowAppender) error) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, allelesDDL("CREATE OR REPLACE TABLE", stagingTable)); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	defer conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+stagingTable)

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", stagingTable)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	if err := fill(appender.AppendRow); err != nil {
		appender.Close()
		return err
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE alleles"); err != nil {
		return fmt.Errorf("drop alleles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE "+stagingTable+" RENAME TO alleles"); err != nil {
		return fmt.Errorf("rename staged alleles: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alleles: %w", err)
	}
	return nil
}

// ClearAlleles removes all stored alleles.
func (s *Store) ClearAlleles() error {
	_, err := s.db.Exec("DELETE FROM alleles")
	return err
}

// LoadDB reads the allele table back into an allele.DB ordered by class id.
func (s *Store) LoadDB() (*allele.DB, error) {
	rows, err := s.db.Query(`SELECT eq_class, gene, depth, f1, f2, f3, f4
		FROM alleles ORDER BY eq_class`)
	if err != nil {
		return nil, fmt.Errorf("query alleles: %w", err)
	}
	defer rows.Close()

	var alleles []allele.Allele
	for rows.Next() {
		var (
			class int64
			gene  string
			depth int
			f     [allele.MaxFields]int32
		)
		if err := rows.Scan(&class, &gene, &depth, &f[0], &f[1], &f[2], &f[3]); err != nil {
			return nil, fmt.Errorf("scan allele: %w", err)
		}
		if class != int64(len(alleles)) {
			return nil, fmt.Errorf("allele table has a gap at class %d", len(alleles))
		}
		if depth < 0 || depth > allele.MaxFields {
			return nil, fmt.Errorf("class %d: invalid depth %d", class, depth)
		}
		fields := make([]uint16, depth)
		for i := range fields {
			fields[i] = uint16(f[i])
		}
		a, err := allele.New(gene, fields...)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", class, err)
		}
		alleles = append(alleles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alleles: %w", err)
	}
	return allele.NewDB(alleles), nil
}

// LookupClass returns the equivalence class id of a transcript. When the
// transcript appears more than once the last occurrence wins.
func (s *Store) LookupClass(transcriptID string) (int, bool, error) {
	var class int64
	err := s.db.QueryRow(`SELECT eq_class FROM alleles
		WHERE transcript_id=? ORDER BY eq_class DESC LIMIT 1`, transcriptID).Scan(&class)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query transcript: %w", err)
	}
	return int(class), true, nil
}

// LookupTranscript returns the parsed allele for a transcript.
func (s *Store) LookupTranscript(transcriptID string) (allele.Allele, bool, error) {
	var designation string
	err := s.db.QueryRow(`SELECT designation FROM alleles
		WHERE transcript_id=? ORDER BY eq_class DESC LIMIT 1`, transcriptID).Scan(&designation)
	if errors.Is(err, sql.ErrNoRows) {
		return allele.Allele{}, false, nil
	}
	if err != nil {
		return allele.Allele{}, false, fmt.Errorf("query transcript: %w", err)
	}
	a, err := allele.Parse(designation)
	if err != nil {
		return allele.Allele{}, false, fmt.Errorf("transcript %s: %w", transcriptID, err)
	}
	return a, true, nil
}

// GeneCounts returns the number of stored alleles per gene.
func (s *Store) GeneCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT gene, count(*) FROM alleles GROUP BY gene")
	if err != nil {
		return nil, fmt.Errorf("query gene counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			gene string
			n    int64
		)
		if err := rows.Scan(&gene, &n); err != nil {
			return nil, fmt.Errorf("scan gene count: %w", err)
		}
		counts[gene] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene counts: %w", err)
	}
	return counts, nil
}
