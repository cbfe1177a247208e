package tarspan

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"
)

// EntryType identifies the kind of an archive entry.
type EntryType uint8

const (
	TypeRegular EntryType = iota
	TypeDirectory
	TypeSymlink
	TypeHardlink
	TypeChar
	TypeBlock
	TypeFifo
)

// String returns the human-readable name of the entry type.
func (t EntryType) String() string {
	switch t {
	case TypeRegular:
		return "regular"
	case TypeDirectory:
		return "directory"
	case TypeSymlink:
		return "symlink"
	case TypeHardlink:
		return "hardlink"
	case TypeChar:
		return "char"
	case TypeBlock:
		return "block"
	case TypeFifo:
		return "fifo"
	default:
		return "unknown"
	}
}

// hasData reports whether entries of this type carry content bytes.
func (t EntryType) hasData() bool {
	return t == TypeRegular
}

// Entry describes a single archive member before it is written.
//
// Entries are produced by ResolveEntry for filesystem paths, or built
// directly for synthetic content. The descriptor carries everything the
// packer needs to compute the entry's exact archive footprint without
// touching the data itself.
type Entry struct {
	// Name is the slash-separated path recorded in the archive.
	// Directories may omit the trailing slash; it is added on encoding.
	Name string

	// SourcePath is the filesystem path the entry was resolved from,
	// recorded in continuation and skip lists so a later run can reopen
	// it. Synthetic entries may leave it empty; Name stands in.
	SourcePath string

	// Type is the entry kind.
	Type EntryType

	// Size is the content length in bytes. It must be zero for every
	// type except TypeRegular.
	Size int64

	// LinkTarget is the target path for symlinks and hard links.
	LinkTarget string

	// Mode holds the permission and mode bits.
	Mode fs.FileMode

	// ModTime is the modification time, stored with second precision.
	ModTime time.Time

	// UID is the owning user ID.
	UID int

	// GID is the owning group ID.
	GID int

	// Uname is the owning user name, if known.
	Uname string

	// Gname is the owning group name, if known.
	Gname string

	// DevMajor is the major device number for TypeChar and TypeBlock.
	DevMajor int64

	// DevMinor is the minor device number for TypeChar and TypeBlock.
	DevMinor int64

	// Open returns the entry's content. It is called at most once, only
	// after the entry has been admitted to a segment, and the returned
	// reader is closed after exactly Size bytes are consumed.
	Open func() (io.ReadCloser, error)
}

// archiveName returns the name as encoded in the archive, with a trailing
// slash on directories.
func (e *Entry) archiveName() string {
	if e.Type == TypeDirectory && !strings.HasSuffix(e.Name, "/") {
		return e.Name + "/"
	}
	return e.Name
}

// sourcePath returns the path recorded in continuation and skip lists.
func (e *Entry) sourcePath() string {
	if e.SourcePath != "" {
		return e.SourcePath
	}
	return e.Name
}

// validate checks the structural invariants of the descriptor.
func (e *Entry) validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if strings.IndexByte(e.Name, 0) >= 0 {
		return fmt.Errorf("%w: name contains NUL", ErrInvalidEntry)
	}
	if strings.IndexByte(e.LinkTarget, 0) >= 0 {
		return fmt.Errorf("%w: link target contains NUL: %s", ErrInvalidEntry, e.Name)
	}
	if int64(len(e.archiveName())) > MaxNameLen {
		return fmt.Errorf("%w: %d byte name", ErrNameTooLong, len(e.Name))
	}
	if int64(len(e.LinkTarget)) > MaxNameLen {
		return fmt.Errorf("%w: %d byte link target: %s", ErrNameTooLong, len(e.LinkTarget), e.Name)
	}
	if e.Type == TypeRegular && e.Size < 0 {
		return fmt.Errorf("%w: negative size: %s", ErrInvalidEntry, e.Name)
	}
	if !e.Type.hasData() && e.Size != 0 {
		return fmt.Errorf("%w: size on %s entry: %s", ErrInvalidEntry, e.Type, e.Name)
	}
	if (e.Type == TypeSymlink || e.Type == TypeHardlink) && e.LinkTarget == "" {
		return fmt.Errorf("%w: missing link target: %s", ErrInvalidEntry, e.Name)
	}
	return nil
}

// header builds the tar header for the entry. The caller must have
// validated the entry first.
func (e *Entry) header() *tar.Header {
	hdr := &tar.Header{
		Name:     e.archiveName(),
		Typeflag: e.Type.typeflag(),
		Linkname: e.LinkTarget,
		Mode:     tarMode(e.Mode),
		Uid:      e.UID,
		Gid:      e.GID,
		Uname:    e.Uname,
		Gname:    e.Gname,
		ModTime:  e.ModTime.Truncate(time.Second),
		Devmajor: e.DevMajor,
		Devminor: e.DevMinor,
		Format:   tar.FormatGNU,
	}
	if e.Type == TypeRegular {
		hdr.Size = e.Size
	}
	return hdr
}

// typeflag maps the entry type to its tar type byte.
func (t EntryType) typeflag() byte {
	switch t {
	case TypeDirectory:
		return tar.TypeDir
	case TypeSymlink:
		return tar.TypeSymlink
	case TypeHardlink:
		return tar.TypeLink
	case TypeChar:
		return tar.TypeChar
	case TypeBlock:
		return tar.TypeBlock
	case TypeFifo:
		return tar.TypeFifo
	default:
		return tar.TypeReg
	}
}

// typeFromFlag maps a tar type byte back to an entry type.
func typeFromFlag(flag byte) (EntryType, bool) {
	switch flag {
	case tar.TypeReg:
		return TypeRegular, true
	case tar.TypeDir:
		return TypeDirectory, true
	case tar.TypeSymlink:
		return TypeSymlink, true
	case tar.TypeLink:
		return TypeHardlink, true
	case tar.TypeChar:
		return TypeChar, true
	case tar.TypeBlock:
		return TypeBlock, true
	case tar.TypeFifo:
		return TypeFifo, true
	default:
		return 0, false
	}
}

// Permission bits beyond fs.FileMode.Perm as encoded in tar headers.
const (
	modeSetuid = 0o4000
	modeSetgid = 0o2000
	modeSticky = 0o1000
)

// tarMode converts an fs.FileMode to the numeric mode stored in a header.
func tarMode(m fs.FileMode) int64 {
	mode := int64(m.Perm())
	if m&fs.ModeSetuid != 0 {
		mode |= modeSetuid
	}
	if m&fs.ModeSetgid != 0 {
		mode |= modeSetgid
	}
	if m&fs.ModeSticky != 0 {
		mode |= modeSticky
	}
	return mode
}
