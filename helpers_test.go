package tarspan

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meigma/tarspan/internal/testutil"
)

// testModTime keeps archive bytes deterministic across test runs.
var testModTime = time.Unix(1700000000, 0).UTC()

// bytesEntry returns a regular entry backed by in-memory data.
func bytesEntry(name string, data []byte) *Entry {
	return &Entry{
		Name:    name,
		Type:    TypeRegular,
		Size:    int64(len(data)),
		Mode:    0o644,
		ModTime: testModTime,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// sizedEntry returns a regular entry with n deterministic pattern bytes.
func sizedEntry(name string, n int64) *Entry {
	return &Entry{
		Name:    name,
		Type:    TypeRegular,
		Size:    n,
		Mode:    0o644,
		ModTime: testModTime,
		Open: func() (io.ReadCloser, error) {
			return testutil.NewPatternReader(n), nil
		},
	}
}

// dirEntry returns a directory entry.
func dirEntry(name string) *Entry {
	return &Entry{
		Name:    name,
		Type:    TypeDirectory,
		Mode:    fs.ModeDir | 0o755,
		ModTime: testModTime,
	}
}

// mustFootprint computes an entry's footprint, failing the test on error.
func mustFootprint(t *testing.T, e *Entry) int64 {
	t.Helper()
	fp, err := e.Footprint()
	require.NoError(t, err)
	return fp
}

// segmentEntry is one parsed member of a written segment.
type segmentEntry struct {
	header *tar.Header
	data   []byte
}

// parseSegment reads a raw segment back with the standard tar reader.
func parseSegment(t *testing.T, raw []byte) []segmentEntry {
	t.Helper()
	var out []segmentEntry
	tr := tar.NewReader(bytes.NewReader(raw))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		out = append(out, segmentEntry{header: hdr, data: data})
	}
}
