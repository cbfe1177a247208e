package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/tarspan"
	"github.com/meigma/tarspan/internal/pathlist"
)

var (
	createSize       string
	createInput      string
	createRemainder  string
	createNull       bool
	createOut        string
	createPrefix     string
	createRecordSize int64
	createCompress   string
	createCatalog    string
	createOversize   string
	createBadName    string
)

var createCmd = &cobra.Command{
	Use:   "create -s SIZE [flags] [PATH...]",
	Short: "Pack paths into capacity-bounded segments",
	Long: `Create packs the given paths into tar segments that never exceed the
requested size. Entries that do not fit in the current segment carry
over to the next one, in input order, until the input is exhausted.

Paths come from the command line or from a list file (--input), one
path per line, or NUL-delimited with --null. A directory argument is
packed recursively. With --remainder, create writes exactly one
segment and saves the paths that did not fit to the given file, ready
to feed back in with --input.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createSize, "size", "s", "", "segment capacity, e.g. 700MB or 4GiB (required)")
	createCmd.Flags().StringVarP(&createInput, "input", "i", "", "read paths from this list file instead of arguments (- for stdin)")
	createCmd.Flags().StringVarP(&createRemainder, "remainder", "l", "", "write one segment and save unpacked paths to this file (- for stdout)")
	createCmd.Flags().BoolVarP(&createNull, "null", "0", false, "path lists are NUL-delimited, as produced by find -print0")
	createCmd.Flags().StringVarP(&createOut, "out", "o", ".", "directory segments are written to")
	createCmd.Flags().StringVar(&createPrefix, "prefix", "span", "segment file name prefix")
	createCmd.Flags().Int64Var(&createRecordSize, "record-size", tarspan.DefaultRecordSize, "pad segments to a multiple of this many bytes")
	createCmd.Flags().StringVar(&createCompress, "compress", "none", "compress stored segments: none, gzip, or zstd")
	createCmd.Flags().StringVar(&createCatalog, "catalog", "", "write a catalog of all segments to this file")
	createCmd.Flags().StringVar(&createOversize, "oversize", "abort", "entry larger than an empty segment: abort, skip, or defer")
	createCmd.Flags().StringVar(&createBadName, "bad-name", "abort", "entry that cannot be stored: abort or skip")

	_ = createCmd.MarkFlagRequired("size")
}

func runCreate(cmd *cobra.Command, args []string) error {
	capacity, err := humanize.ParseBytes(createSize)
	if err != nil {
		return fmt.Errorf("invalid --size %q: %w", createSize, err)
	}
	if capacity == 0 || capacity > uint64(tarspan.MaxCapacity) {
		return fmt.Errorf("invalid --size %q: out of range", createSize)
	}
	comp, err := tarspan.ParseCompression(createCompress)
	if err != nil {
		return fmt.Errorf("invalid --compress: %w", err)
	}
	oversize, err := tarspan.ParsePolicy(createOversize)
	if err != nil {
		return fmt.Errorf("invalid --oversize: %w", err)
	}
	badName, err := tarspan.ParsePolicy(createBadName)
	if err != nil {
		return fmt.Errorf("invalid --bad-name: %w", err)
	}

	src, cleanup, err := createSource(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := os.MkdirAll(createOut, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := []tarspan.PackOption{
		tarspan.PackWithCapacity(int64(capacity)),
		tarspan.PackWithRecordSize(createRecordSize),
		tarspan.PackWithOversizePolicy(oversize),
		tarspan.PackWithBadNamePolicy(badName),
		tarspan.PackWithLogger(newLogger()),
	}

	// With --remainder - the path list owns stdout, so run reports move
	// to stderr.
	out := cmd.OutOrStdout()
	if createRemainder == "-" {
		out = cmd.ErrOrStderr()
	}

	var cat *tarspan.Catalog
	if createCatalog != "" {
		cat = tarspan.NewCatalog()
	}

	var (
		segments     int
		totalEntries int
		totalSkipped int
		totalBytes   int64
	)
	for i := 0; ; i++ {
		name := segmentName(createPrefix, i, comp)
		path := filepath.Join(createOut, name)

		res, err := packSegment(cmd.Context(), src, path, comp, opts)
		if err != nil {
			return err
		}
		if createRemainder == "" && len(res.Accepted) == 0 && len(res.Deferred) > 0 {
			// Nothing left fits; another run would defer the same paths
			// forever.
			os.Remove(path)
			return fmt.Errorf("no remaining entry fits in %s: %d deferred", humanize.IBytes(capacity), len(res.Deferred))
		}

		segments++
		totalEntries += len(res.Accepted)
		totalSkipped += len(res.Skipped)
		totalBytes += res.WrittenBytes
		if cat != nil {
			cat.AddSegment(name, res)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", path, humanize.IBytes(uint64(res.WrittenBytes)), res.Digest)

		if createRemainder != "" {
			if err := writeRemainder(cmd, res.Deferred); err != nil {
				return err
			}
			if len(res.Deferred) > 0 && createRemainder != "-" {
				fmt.Fprintf(out, "%d paths left over in %s\n", len(res.Deferred), createRemainder)
			}
			break
		}
		if len(res.Deferred) == 0 {
			break
		}
		src = res.Continuation().Source()
	}

	if cat != nil {
		if err := cat.Save(createCatalog); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "packed %d entries into %d segments, %s total\n", totalEntries, segments, humanize.IBytes(uint64(totalBytes)))
	if totalSkipped > 0 {
		fmt.Fprintf(out, "skipped %d entries\n", totalSkipped)
	}
	return nil
}

// createSource picks the entry source for the run: a path list file,
// stdin, or the positional arguments.
func createSource(cmd *cobra.Command, args []string) (tarspan.EntrySource, func(), error) {
	noop := func() {}
	if createInput != "" {
		if len(args) > 0 {
			return nil, noop, errors.New("pass paths either as arguments or with --input, not both")
		}
		if createInput == "-" {
			return tarspan.NewPathSource(cmd.InOrStdin(), createNull), noop, nil
		}
		f, err := os.Open(createInput)
		if err != nil {
			return nil, noop, err
		}
		return tarspan.NewPathSource(f, createNull), func() { f.Close() }, nil
	}
	if len(args) == 0 {
		return nil, noop, errors.New("no paths given; pass arguments or --input")
	}
	return &argsSource{args: args}, noop, nil
}

// packSegment runs one packing pass into a fresh segment file. A failed
// run leaves no file behind; its partial output is not a valid segment.
func packSegment(ctx context.Context, src tarspan.EntrySource, path string, comp tarspan.Compression, opts []tarspan.PackOption) (*tarspan.Result, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw, err := tarspan.NewCompressor(f, comp)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	res, packErr := tarspan.Pack(ctx, src, cw, opts...)
	closeErr := cw.Close()
	if err := f.Close(); closeErr == nil {
		closeErr = err
	}
	if packErr != nil {
		os.Remove(path)
		return nil, packErr
	}
	if closeErr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("finish segment %s: %w", path, closeErr)
	}
	return res, nil
}

// segmentName builds the file name of segment index, with the extension
// matching the configured compression.
func segmentName(prefix string, index int, comp tarspan.Compression) string {
	name := fmt.Sprintf("%s-%03d.tar", prefix, index)
	switch comp {
	case tarspan.CompressionGzip:
		name += ".gz"
	case tarspan.CompressionZstd:
		name += ".zst"
	}
	return name
}

// writeRemainder saves the deferred paths as a list the next run can
// consume with --input.
func writeRemainder(cmd *cobra.Command, paths []string) error {
	var w io.Writer = cmd.OutOrStdout()
	if createRemainder != "-" {
		f, err := os.Create(createRemainder)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	delim := pathlist.Newline
	if createNull {
		delim = pathlist.Null
	}
	pw := pathlist.NewWriter(w, delim)
	for _, p := range paths {
		if err := pw.WritePath(p); err != nil {
			return err
		}
	}
	return pw.Flush()
}

// argsSource yields the command-line paths in order. A directory
// argument expands to the directory itself followed by its tree in walk
// order, the way a recursive archiver visits it.
type argsSource struct {
	args    []string
	pos     int
	current tarspan.EntrySource
}

func (s *argsSource) Next() (*tarspan.Entry, error) {
	for {
		if s.current != nil {
			e, err := s.current.Next()
			if !errors.Is(err, io.EOF) {
				return e, err
			}
			s.current = nil
		}
		if s.pos >= len(s.args) {
			return nil, io.EOF
		}
		path := s.args[s.pos]
		s.pos++
		info, err := os.Lstat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			s.current = tarspan.NewTreeSource(path)
		}
		return tarspan.ResolveEntry(path)
	}
}
