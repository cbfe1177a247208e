package tarspan

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"strings"
)

// List reads the entry metadata of a stored segment, decompressing
// transparently. The returned entries carry no data sources; use them for
// inspection, not re-packing.
func List(r io.Reader) ([]Entry, error) {
	src, err := OpenSegment(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var entries []Entry
	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		typ, ok := typeFromFlag(hdr.Typeflag)
		if !ok {
			return nil, fmt.Errorf("read segment: unsupported entry type %q for %s", hdr.Typeflag, hdr.Name)
		}
		name := hdr.Name
		if typ == TypeDirectory {
			name = strings.TrimSuffix(name, "/")
		}
		entries = append(entries, Entry{
			Name:       name,
			Type:       typ,
			Size:       hdr.Size,
			LinkTarget: hdr.Linkname,
			Mode:       hdr.FileInfo().Mode(),
			ModTime:    hdr.ModTime,
			UID:        hdr.Uid,
			GID:        hdr.Gid,
			Uname:      hdr.Uname,
			Gname:      hdr.Gname,
			DevMajor:   hdr.Devmajor,
			DevMinor:   hdr.Devminor,
		})
	}
}
