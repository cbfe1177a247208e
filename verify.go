package tarspan

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// defaultVerifyWorkers bounds concurrent segment hashing.
const defaultVerifyWorkers = 4

// SegmentDigest hashes the archive stream of a stored segment,
// decompressing transparently, and returns the canonical digest and the
// stream length. The digest matches Result.Digest for segments produced
// by Pack, however they were compressed at rest.
func SegmentDigest(r io.Reader) (digest.Digest, int64, error) {
	src, err := OpenSegment(r)
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	digester := digest.Canonical.Digester()
	n, err := io.Copy(digester.Hash(), src)
	if err != nil {
		return "", 0, fmt.Errorf("hash segment: %w", err)
	}
	return digester.Digest(), n, nil
}

// VerifySegment re-hashes the segment at path and compares it against the
// expected digest. A mismatch yields ErrDigestMismatch.
func VerifySegment(path string, want digest.Digest) error {
	if err := want.Validate(); err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	got, _, err := SegmentDigest(f)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if got != want {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrDigestMismatch, path, got, want)
	}
	return nil
}

// VerifyCatalog re-hashes every segment recorded in the catalog, looking
// the files up relative to dir. Segments are verified concurrently;
// the first failure cancels the rest.
func VerifyCatalog(ctx context.Context, dir string, cat *Catalog, workers int) error {
	if workers <= 0 {
		workers = defaultVerifyWorkers
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, seg := range cat.Segments {
		seg := seg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return VerifySegment(filepath.Join(dir, seg.Name), seg.Digest)
		})
	}
	return g.Wait()
}
