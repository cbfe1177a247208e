package tarspan

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/tarspan/internal/pathlist"
)

// EntrySource yields the entries of a packing run in order.
//
// Next returns io.EOF when the input is exhausted. Implementations need
// not be safe for concurrent use; a run reads from a single goroutine.
type EntrySource interface {
	Next() (*Entry, error)
}

// ResolveEntry builds the descriptor for the filesystem object at path.
//
// Symlinks are described, never followed. The archive name is the given
// path with separators normalized and any leading slashes removed, so
// absolute inputs extract relative to the destination; the path as given
// is kept in SourcePath. Regular files get a lazy data source that opens
// the file only once the entry is admitted.
//
// Objects with no archive representation, such as sockets, yield
// ErrUnsupportedType.
func ResolveEntry(path string) (*Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		link, err = os.Readlink(path)
		if err != nil {
			return nil, err
		}
	}
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedType, path, err)
	}
	typ, ok := typeFromFlag(hdr.Typeflag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, path)
	}

	e := &Entry{
		Name:       archivePath(path),
		SourcePath: path,
		Type:       typ,
		Size:       hdr.Size,
		LinkTarget: hdr.Linkname,
		Mode:       info.Mode(),
		ModTime:    hdr.ModTime,
		UID:        hdr.Uid,
		GID:        hdr.Gid,
		Uname:      hdr.Uname,
		Gname:      hdr.Gname,
		DevMajor:   hdr.Devmajor,
		DevMinor:   hdr.Devminor,
	}
	if typ == TypeRegular {
		e.Open = func() (io.ReadCloser, error) {
			return openRegular(path)
		}
	}
	return e, nil
}

// archivePath normalizes a filesystem path into an archive member name.
func archivePath(path string) string {
	name := filepath.ToSlash(path)
	name = strings.TrimLeft(name, "/")
	return strings.TrimSuffix(name, "/")
}

// Entries returns a source yielding the given entries in order.
func Entries(entries ...*Entry) EntrySource {
	return &entrySlice{entries: entries}
}

// entrySlice yields a fixed list of prebuilt entries.
type entrySlice struct {
	entries []*Entry
	pos     int
}

func (s *entrySlice) Next() (*Entry, error) {
	if s.pos >= len(s.entries) {
		return nil, io.EOF
	}
	e := s.entries[s.pos]
	s.pos++
	return e, nil
}

// PathSource streams entries resolved from a path list, the packer's
// native input format. Paths are resolved one at a time, so the list can
// be arbitrarily long.
type PathSource struct {
	sc *pathlist.Scanner
}

// NewPathSource returns a source reading a newline-delimited path list
// from r, resolving each path with ResolveEntry. With null true the list
// is NUL-delimited instead.
func NewPathSource(r io.Reader, null bool) *PathSource {
	delim := pathlist.Newline
	if null {
		delim = pathlist.Null
	}
	return &PathSource{sc: pathlist.NewScanner(r, delim)}
}

// Next resolves and returns the next listed path, or io.EOF at the end
// of the list.
func (s *PathSource) Next() (*Entry, error) {
	path, err := s.sc.Next()
	if err != nil {
		return nil, err
	}
	return ResolveEntry(path)
}

// TreeSource yields a directory tree in lexical walk order: every file,
// directory, and symlink under root, the way a recursive archiver would
// visit them. The root directory itself is not emitted.
type TreeSource struct {
	paths   []string
	pos     int
	walkErr error
	walked  bool
	root    string
}

// NewTreeSource returns a source over the tree rooted at dir.
func NewTreeSource(dir string) *TreeSource {
	return &TreeSource{root: dir}
}

// Next returns the next entry of the walk, or io.EOF when the tree is
// exhausted.
func (s *TreeSource) Next() (*Entry, error) {
	if !s.walked {
		s.walked = true
		s.walkErr = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == s.root {
				return nil
			}
			s.paths = append(s.paths, path)
			return nil
		})
	}
	if s.walkErr != nil {
		return nil, s.walkErr
	}
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++
	return ResolveEntry(path)
}
