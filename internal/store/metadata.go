package store

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileFingerprint holds stat-based identity for a source file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// metaLines renders the fingerprint as key=value pairs under prefix.
// Relative paths are resolved so the same file matches from any directory.
func (fp FileFingerprint) metaLines(prefix string) []string {
	path, err := filepath.Abs(fp.Path)
	if err != nil {
		path = fp.Path
	}
	return []string{
		prefix + "_path=" + path,
		prefix + "_size=" + strconv.FormatInt(fp.Size, 10),
		prefix + "_modtime=" + fp.ModTime.UTC().Format(time.RFC3339Nano),
	}
}
