package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/tarspan"
	"github.com/meigma/tarspan/internal/testutil"
)

// No t.Parallel() in this file - commands share package-level flag state.

// resetCreateFlags restores create's flags to their registered defaults.
func resetCreateFlags() {
	createSize = ""
	createInput = ""
	createRemainder = ""
	createNull = false
	createOut = "."
	createPrefix = "span"
	createRecordSize = tarspan.DefaultRecordSize
	createCompress = "none"
	createCatalog = ""
	createOversize = "abort"
	createBadName = "abort"
}

// archiveName mirrors how stored entry names are derived from source
// paths: slash-separated with leading slashes removed.
func archiveName(path string) string {
	return strings.TrimLeft(filepath.ToSlash(path), "/")
}

func TestSegmentName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		index  int
		comp   tarspan.Compression
		want   string
	}{
		{name: "first", prefix: "span", index: 0, comp: tarspan.CompressionNone, want: "span-000.tar"},
		{name: "double digit", prefix: "span", index: 12, comp: tarspan.CompressionNone, want: "span-012.tar"},
		{name: "beyond padding", prefix: "span", index: 1000, comp: tarspan.CompressionNone, want: "span-1000.tar"},
		{name: "gzip", prefix: "backup", index: 3, comp: tarspan.CompressionGzip, want: "backup-003.tar.gz"},
		{name: "zstd", prefix: "span", index: 0, comp: tarspan.CompressionZstd, want: "span-000.tar.zst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, segmentName(tt.prefix, tt.index, tt.comp))
		})
	}
}

func TestArgsSource(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"alone.txt":      []byte("alone"),
		"tree/a.txt":     []byte("aaa"),
		"tree/sub/b.txt": []byte("bbb"),
	})

	src := &argsSource{args: []string{
		filepath.Join(dir, "alone.txt"),
		filepath.Join(dir, "tree"),
	}}

	var got []string
	for {
		e, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e.SourcePath)
	}

	want := []string{
		filepath.Join(dir, "alone.txt"),
		filepath.Join(dir, "tree"),
		filepath.Join(dir, "tree", "a.txt"),
		filepath.Join(dir, "tree", "sub"),
		filepath.Join(dir, "tree", "sub", "b.txt"),
	}
	assert.Equal(t, want, got)

	// Exhausted sources stay exhausted.
	_, err := src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestArgsSource_MissingPath(t *testing.T) {
	src := &argsSource{args: []string{filepath.Join(t.TempDir(), "absent")}}
	_, err := src.Next()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreateSource_Validation(t *testing.T) {
	resetCreateFlags()

	createInput = "paths.txt"
	_, _, err := createSource(createCmd, []string{"extra"})
	assert.ErrorContains(t, err, "not both")

	createInput = ""
	_, _, err = createSource(createCmd, nil)
	assert.ErrorContains(t, err, "no paths given")
}

func TestRunCreate_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		wantMsg string
	}{
		{
			name:    "unparseable size",
			setup:   func() { createSize = "many" },
			wantMsg: "invalid --size",
		},
		{
			name:    "zero size",
			setup:   func() { createSize = "0" },
			wantMsg: "out of range",
		},
		{
			name: "unknown compression",
			setup: func() {
				createSize = "1MiB"
				createCompress = "lz4"
			},
			wantMsg: "invalid --compress",
		},
		{
			name: "unknown oversize policy",
			setup: func() {
				createSize = "1MiB"
				createOversize = "retry"
			},
			wantMsg: "invalid --oversize",
		},
		{
			name: "unknown bad-name policy",
			setup: func() {
				createSize = "1MiB"
				createBadName = "defer-ish"
			},
			wantMsg: "invalid --bad-name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCreateFlags()
			tt.setup()
			err := runCreate(createCmd, []string{t.TempDir()})
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestCreate_SpansSegments(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/data.bin":       testutil.PatternData(5000),
		"src/docs/guide.md":  testutil.PatternData(2000),
		"src/docs/readme.md": testutil.PatternData(600),
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")
	catalogPath := filepath.Join(out, "catalog.cbor")

	resetCreateFlags()
	createSize = "8KiB"
	createOut = out
	createCatalog = catalogPath

	var buf bytes.Buffer
	createCmd.SetOut(&buf)
	require.NoError(t, runCreate(createCmd, []string{src}))

	// The five entries do not fit in one 8 KiB segment, so the run
	// spills into a second one. Sizes are exact: headers plus rounded
	// data plus the trailer.
	info, err := os.Stat(filepath.Join(out, "span-000.tar"))
	require.NoError(t, err)
	assert.Equal(t, int64(7680), info.Size())

	info, err = os.Stat(filepath.Join(out, "span-001.tar"))
	require.NoError(t, err)
	assert.Equal(t, int64(5120), info.Size())

	_, err = os.Stat(filepath.Join(out, "span-002.tar"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	cat, err := tarspan.LoadCatalog(catalogPath)
	require.NoError(t, err)
	require.Len(t, cat.Segments, 2)
	assert.Equal(t, "span-000.tar", cat.Segments[0].Name)
	assert.Len(t, cat.Segments[0].Entries, 3)
	assert.Equal(t, "span-001.tar", cat.Segments[1].Name)
	assert.Len(t, cat.Segments[1].Entries, 2)

	// Deferred entries keep their input order in the follow-up segment.
	assert.Equal(t, archiveName(filepath.Join(src, "docs", "guide.md")), cat.Segments[1].Entries[0].Path)
	assert.Equal(t, archiveName(filepath.Join(src, "docs", "readme.md")), cat.Segments[1].Entries[1].Path)

	assert.Contains(t, buf.String(), "span-000.tar")
	assert.Contains(t, buf.String(), "packed 5 entries into 2 segments")
}

func TestCreate_RemainderStopsAfterOneSegment(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/data.bin":       testutil.PatternData(5000),
		"src/docs/guide.md":  testutil.PatternData(2000),
		"src/docs/readme.md": testutil.PatternData(600),
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")
	remainder := filepath.Join(dir, "rest.list")

	resetCreateFlags()
	createSize = "8KiB"
	createOut = out
	createRemainder = remainder

	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, []string{src}))

	_, err := os.Stat(filepath.Join(out, "span-000.tar"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "span-001.tar"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	data, err := os.ReadFile(remainder)
	require.NoError(t, err)
	want := filepath.Join(src, "docs", "guide.md") + "\n" +
		filepath.Join(src, "docs", "readme.md") + "\n"
	assert.Equal(t, want, string(data))
}

func TestCreate_RemainderFeedsNextRun(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/data.bin":       testutil.PatternData(5000),
		"src/docs/guide.md":  testutil.PatternData(2000),
		"src/docs/readme.md": testutil.PatternData(600),
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")
	remainder := filepath.Join(dir, "rest.list")

	resetCreateFlags()
	createSize = "8KiB"
	createOut = out
	createRemainder = remainder
	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, []string{src}))

	resetCreateFlags()
	createSize = "8KiB"
	createOut = out
	createPrefix = "next"
	createInput = remainder
	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, nil))

	entries := listSegment(t, filepath.Join(out, "next-000.tar"))
	require.Len(t, entries, 2)
	assert.Equal(t, archiveName(filepath.Join(src, "docs", "guide.md")), entries[0].Name)
	assert.Equal(t, archiveName(filepath.Join(src, "docs", "readme.md")), entries[1].Name)
}

func TestCreate_NothingFits(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/big.bin": testutil.PatternData(100_000),
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")

	resetCreateFlags()
	createSize = "4KiB"
	createOut = out
	createOversize = "defer"

	createCmd.SetOut(io.Discard)
	err := runCreate(createCmd, []string{filepath.Join(src, "big.bin")})
	assert.ErrorContains(t, err, "no remaining entry fits")

	// The unproductive segment is cleaned up.
	matches, globErr := filepath.Glob(filepath.Join(out, "span-*"))
	require.NoError(t, globErr)
	assert.Empty(t, matches)
}

func TestCreate_CompressedSegment(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/notes.txt": testutil.PatternData(3000),
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")
	catalogPath := filepath.Join(out, "catalog.cbor")

	resetCreateFlags()
	createSize = "1MiB"
	createOut = out
	createCompress = "zstd"
	createCatalog = catalogPath

	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, []string{filepath.Join(src, "notes.txt")}))

	path := filepath.Join(out, "span-000.tar.zst")
	entries := listSegment(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, archiveName(filepath.Join(src, "notes.txt")), entries[0].Name)

	// The catalog digest covers the archive stream, so the compressed
	// file still verifies.
	cat, err := tarspan.LoadCatalog(catalogPath)
	require.NoError(t, err)
	require.Len(t, cat.Segments, 1)
	assert.Equal(t, "span-000.tar.zst", cat.Segments[0].Name)
	require.NoError(t, tarspan.VerifySegment(path, cat.Segments[0].Digest))
}

func TestListCommand(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/notes.txt": testutil.PatternData(3000),
	})
	out := filepath.Join(dir, "out")

	resetCreateFlags()
	createSize = "1MiB"
	createOut = out
	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, []string{filepath.Join(dir, "src")}))

	listBytes = false
	var buf bytes.Buffer
	listCmd.SetOut(&buf)
	require.NoError(t, runList(listCmd, []string{filepath.Join(out, "span-000.tar")}))
	assert.Contains(t, buf.String(), "notes.txt")
	assert.Contains(t, buf.String(), "2 entries")

	listBytes = true
	buf.Reset()
	listCmd.SetOut(&buf)
	require.NoError(t, runList(listCmd, []string{filepath.Join(out, "span-000.tar")}))
	assert.Contains(t, buf.String(), "3000")
}

func TestVerifyCommand(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/notes.txt": testutil.PatternData(3000),
	})
	out := filepath.Join(dir, "out")
	catalogPath := filepath.Join(out, "catalog.cbor")

	resetCreateFlags()
	createSize = "1MiB"
	createOut = out
	createCatalog = catalogPath
	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, []string{filepath.Join(dir, "src")}))

	cat, err := tarspan.LoadCatalog(catalogPath)
	require.NoError(t, err)
	segment := filepath.Join(out, cat.Segments[0].Name)

	// Catalog mode checks every recorded segment.
	verifyCatalog = catalogPath
	verifyDigest = ""
	verifyWorkers = 2
	var buf bytes.Buffer
	verifyCmd.SetOut(&buf)
	require.NoError(t, runVerify(verifyCmd, nil))
	assert.Contains(t, buf.String(), "1 segments OK")

	// Digest mode checks a single file.
	verifyCatalog = ""
	verifyDigest = cat.Segments[0].Digest.String()
	buf.Reset()
	verifyCmd.SetOut(&buf)
	require.NoError(t, runVerify(verifyCmd, []string{segment}))
	assert.Contains(t, buf.String(), "OK")

	verifyDigest = "not-a-digest"
	err = runVerify(verifyCmd, []string{segment})
	assert.ErrorContains(t, err, "invalid --digest")

	verifyDigest = cat.Segments[0].Digest.String()
	err = runVerify(verifyCmd, nil)
	assert.ErrorContains(t, err, "exactly one SEGMENT")

	// Corruption surfaces as a digest mismatch.
	require.NoError(t, os.WriteFile(segment, []byte("clobbered"), 0o644))
	verifyCatalog = catalogPath
	verifyDigest = ""
	err = runVerify(verifyCmd, nil)
	assert.ErrorIs(t, err, tarspan.ErrDigestMismatch)
}

func TestLocateCommand(t *testing.T) {
	dir := testutil.TempTree(t, map[string][]byte{
		"src/docs/readme.md": testutil.PatternData(600),
		"src/data.bin":       testutil.PatternData(5000),
	})
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")
	catalogPath := filepath.Join(out, "catalog.cbor")

	resetCreateFlags()
	createSize = "1MiB"
	createOut = out
	createCatalog = catalogPath
	createCmd.SetOut(io.Discard)
	require.NoError(t, runCreate(createCmd, []string{src}))

	readme := archiveName(filepath.Join(src, "docs", "readme.md"))

	locateCatalog = catalogPath
	var buf bytes.Buffer
	locateCmd.SetOut(&buf)
	require.NoError(t, runLocate(locateCmd, []string{readme}))
	assert.Contains(t, buf.String(), "span-000.tar")
	assert.Contains(t, buf.String(), "offset")

	buf.Reset()
	locateCmd.SetOut(&buf)
	err := runLocate(locateCmd, []string{readme, "no/such/path"})
	assert.ErrorContains(t, err, "1 of 2 paths not in catalog")
	assert.Contains(t, buf.String(), "not found")
}

// listSegment opens a stored segment and returns its entries.
func listSegment(t *testing.T, path string) []tarspan.Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	stream, err := tarspan.OpenSegment(f)
	require.NoError(t, err)
	defer stream.Close()
	entries, err := tarspan.List(stream)
	require.NoError(t, err)
	return entries
}
