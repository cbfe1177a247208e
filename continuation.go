package tarspan

import (
	"io"

	"github.com/meigma/tarspan/internal/pathlist"
)

// Continuation is the ordered list of paths deferred by a packing run.
// Order matches the input, so feeding a continuation into the next run
// preserves the caller's intended sequence across segments.
type Continuation struct {
	paths []string
}

// NewContinuation returns a continuation over the given paths.
func NewContinuation(paths ...string) *Continuation {
	return &Continuation{paths: paths}
}

// Add appends a deferred path.
func (c *Continuation) Add(path string) {
	c.paths = append(c.paths, path)
}

// Len returns the number of deferred paths.
func (c *Continuation) Len() int {
	return len(c.paths)
}

// Paths returns the deferred paths in input order. The caller must not
// modify the returned slice.
func (c *Continuation) Paths() []string {
	return c.paths
}

// WriteTo writes the paths as a newline-delimited list, the same shape
// the packer accepts as input.
func (c *Continuation) WriteTo(w io.Writer) (int64, error) {
	return c.writeDelim(w, pathlist.Newline)
}

// writeDelim writes the paths separated by delim.
func (c *Continuation) writeDelim(w io.Writer, delim byte) (int64, error) {
	cw := countingWriter{w: w}
	pw := pathlist.NewWriter(&cw, delim)
	for _, p := range c.paths {
		if err := pw.WritePath(p); err != nil {
			return cw.n, err
		}
	}
	if err := pw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Source returns an entry source that resolves the deferred paths against
// the filesystem, ready to seed a subsequent run.
func (c *Continuation) Source() EntrySource {
	return &pathSlice{paths: c.paths}
}

// pathSlice resolves an in-memory path list in order.
type pathSlice struct {
	paths []string
	pos   int
}

func (s *pathSlice) Next() (*Entry, error) {
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++
	return ResolveEntry(path)
}
