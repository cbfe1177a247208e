// Package testutil provides shared helpers for tarspan tests.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// TempTree materializes the given files under a fresh temp directory and
// returns its path. Keys are slash-separated relative paths; parent
// directories are created as needed.
func TempTree(t testing.TB, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}

// patternAlphabet is the repeating byte sequence used for deterministic
// test content.
const patternAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// PatternData returns n deterministic bytes, so truncation bugs surface
// as content mismatches rather than silent size drift.
func PatternData(n int64) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = patternAlphabet[i%len(patternAlphabet)]
	}
	return data
}

// PatternReader yields PatternData(n) incrementally without allocating
// the full buffer.
type PatternReader struct {
	n   int64
	off int64
}

// NewPatternReader returns a reader over n pattern bytes.
func NewPatternReader(n int64) *PatternReader {
	return &PatternReader{n: n}
}

// Read implements io.Reader over the deterministic pattern.
func (r *PatternReader) Read(p []byte) (int, error) {
	if r.off >= r.n {
		return 0, io.EOF
	}
	n := len(p)
	if rem := r.n - r.off; int64(n) > rem {
		n = int(rem)
	}
	for i := range n {
		p[i] = patternAlphabet[(r.off+int64(i))%int64(len(patternAlphabet))]
	}
	r.off += int64(n)
	return n, nil
}

// Close implements io.Closer so the reader can serve as an entry data
// source directly.
func (r *PatternReader) Close() error { return nil }
