// Package pathlist reads and writes delimiter-separated path lists, the
// interchange format between packing runs: newline-delimited for text
// tools, NUL-delimited for find -print0 pipelines.
package pathlist

import (
	"bufio"
	"io"
	"strings"
)

// List delimiters.
const (
	Newline byte = '\n'
	Null    byte = 0
)

// Scanner yields paths from a delimited list. Empty tokens are skipped,
// so trailing delimiters and blank lines are harmless.
type Scanner struct {
	r     *bufio.Reader
	delim byte
}

// NewScanner returns a scanner over r using the given delimiter.
func NewScanner(r io.Reader, delim byte) *Scanner {
	return &Scanner{r: bufio.NewReader(r), delim: delim}
}

// Next returns the next path, or io.EOF when the list is exhausted.
// A final token without a trailing delimiter is still returned.
func (s *Scanner) Next() (string, error) {
	for {
		tok, err := s.r.ReadString(s.delim)
		if n := len(tok); n > 0 && tok[n-1] == s.delim {
			tok = tok[:n-1]
		}
		if s.delim == Newline {
			tok = strings.TrimSuffix(tok, "\r")
		}
		if err != nil {
			if err == io.EOF && tok != "" {
				return tok, nil
			}
			return "", err
		}
		if tok == "" {
			continue
		}
		return tok, nil
	}
}

// Writer emits paths separated by a fixed delimiter. Output is buffered;
// call Flush when done.
type Writer struct {
	bw    *bufio.Writer
	delim byte
}

// NewWriter returns a writer on w using the given delimiter.
func NewWriter(w io.Writer, delim byte) *Writer {
	return &Writer{bw: bufio.NewWriter(w), delim: delim}
}

// WritePath writes one path followed by the delimiter.
func (w *Writer) WritePath(path string) error {
	if _, err := w.bw.WriteString(path); err != nil {
		return err
	}
	return w.bw.WriteByte(w.delim)
}

// Flush forces buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
