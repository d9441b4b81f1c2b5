package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hla/internal/ingest"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(t *testing.T) *ingest.Result {
	t.Helper()
	src, err := ingest.OpenFASTA("../../testdata/hla_sample.fa")
	require.NoError(t, err)
	defer src.Close()

	res, err := ingest.NewIngester().Ingest(src)
	require.NoError(t, err)
	return res
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "alleles.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestWriteAndLoadDB(t *testing.T) {
	s := openInMemory(t)
	res := sampleResult(t)

	require.NoError(t, s.WriteResult(res))

	db, err := s.LoadDB()
	require.NoError(t, err)
	require.Equal(t, res.Len(), db.Len())

	for i, d := range res.Designations {
		want, ok := res.Alleles[res.IDs[i]]
		require.True(t, ok, d)
		assert.Equal(t, want, db.At(i), d)
	}

	lca, ok := db.LowestCommonAllele([]int{0, 1, 5})
	require.True(t, ok)
	assert.Equal(t, "A*01:01", lca.String())

	_, ok = db.LowestCommonAllele([]int{0, 3})
	assert.False(t, ok, "A and B share no allele")
}

func TestWriteResult_Replaces(t *testing.T) {
	s := openInMemory(t)
	res := sampleResult(t)
	require.NoError(t, s.WriteResult(res))
	require.NoError(t, s.WriteResult(res))

	db, err := s.LoadDB()
	require.NoError(t, err)
	assert.Equal(t, res.Len(), db.Len())
}

func TestReplaceAlleles_FailureKeepsPreviousTable(t *testing.T) {
	s := openInMemory(t)
	res := sampleResult(t)
	require.NoError(t, s.WriteResult(res))

	boom := errors.New("append failed")
	err := s.replaceAlleles(func(appendRow rowAppender) error {
		require.NoError(t, appendRow(int64(0), "HLA:X", "C*01:02", "C", int32(2),
			int32(1), int32(2), int32(0), int32(0), int64(4)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	db, err := s.LoadDB()
	require.NoError(t, err)
	require.Equal(t, res.Len(), db.Len())
	assert.Equal(t, "A*01:01:01:01", db.At(0).String())

	var staged int
	require.NoError(t, s.DB().QueryRow(`SELECT count(*) FROM information_schema.tables
		WHERE table_name='alleles_staging'`).Scan(&staged))
	assert.Equal(t, 0, staged, "staging table is dropped")
}

func TestReplaceAlleles_RowRejected(t *testing.T) {
	s := openInMemory(t)
	res := sampleResult(t)
	require.NoError(t, s.WriteResult(res))

	err := s.replaceAlleles(func(appendRow rowAppender) error {
		return appendRow(int64(0), "HLA:X")
	})
	require.Error(t, err)

	counts, err := s.GeneCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 4, "B": 1, "MICB": 1}, counts)
}

func TestWriteResult_Empty(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(&ingest.Result{}))

	db, err := s.LoadDB()
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())
}

func TestLookupTranscript(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult(t)))

	a, ok, err := s.LookupTranscript("HLA:HLA01534")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A*02:53", a.String())

	class, ok, err := s.LookupClass("HLA:HLA02169")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, class)

	_, ok, err = s.LookupTranscript("HLA:HLA99999")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.LookupClass("HLA:HLA99999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeneCounts(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult(t)))

	counts, err := s.GeneCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 4, "B": 1, "MICB": 1}, counts)
}

func TestClearAlleles(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult(t)))
	require.NoError(t, s.ClearAlleles())

	counts, err := s.GeneCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}
