package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inodb/vibe-hla/internal/ingest"
)

// ResultCache manages gob-serialized ingestion results on disk:
//
//	~/.vibe-hla/ingest.gob       (serialized result)
//	~/.vibe-hla/ingest.gob.meta  (source file fingerprint)
type ResultCache struct {
	dir string
}

// NewResultCache creates a result cache for the given directory.
func NewResultCache(dir string) *ResultCache {
	return &ResultCache{dir: dir}
}

func (rc *ResultCache) gobPath() string {
	return filepath.Join(rc.dir, "ingest.gob")
}

func (rc *ResultCache) metaPath() string {
	return filepath.Join(rc.dir, "ingest.gob.meta")
}

// Valid checks whether the cached result was built from the given FASTA.
func (rc *ResultCache) Valid(fasta FileFingerprint) bool {
	meta, err := rc.readMeta()
	if err != nil {
		return false
	}

	for _, line := range fasta.metaLines("fasta") {
		k, v, _ := strings.Cut(line, "=")
		if meta[k] != v {
			return false
		}
	}

	if _, err := os.Stat(rc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads a cached ingestion result.
func (rc *ResultCache) Load() (*ingest.Result, error) {
	f, err := os.Open(rc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open result cache: %w", err)
	}
	defer f.Close()

	var res ingest.Result
	if err := gob.NewDecoder(f).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode result cache: %w", err)
	}
	return &res, nil
}

// Write serializes res to disk along with the source fingerprint.
func (rc *ResultCache) Write(res *ingest.Result, fasta FileFingerprint) error {
	if err := os.MkdirAll(rc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(rc.gobPath())
	if err != nil {
		return fmt.Errorf("create result cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(res); err != nil {
		f.Close()
		os.Remove(rc.gobPath())
		return fmt.Errorf("encode result cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result cache: %w", err)
	}

	return rc.writeMeta(fasta)
}

// Clear removes the cached files.
func (rc *ResultCache) Clear() {
	os.Remove(rc.gobPath())
	os.Remove(rc.metaPath())
}

func (rc *ResultCache) writeMeta(fasta FileFingerprint) error {
	lines := append(fasta.metaLines("fasta"),
		"created_at="+time.Now().UTC().Format(time.RFC3339),
		"",
	)
	return os.WriteFile(rc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (rc *ResultCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(rc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
