//go:build integration

package integration

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/tarspan"
	"github.com/meigma/tarspan/registry"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
// The container is shared across all tests for performance.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		ctx := context.Background()
		registryAddr, registryErr = startRegistryContainer(ctx)
	})

	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}

	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// --- Test Client Factory ---

// newTestClient creates a client configured for the local test registry.
func newTestClient(tb testing.TB, opts ...registry.Option) *registry.Client {
	tb.Helper()

	// Always use plain HTTP for local registry
	allOpts := append([]registry.Option{registry.WithPlainHTTP(true)}, opts...)
	return registry.New(allOpts...)
}

// --- Test Reference Helpers ---

// testRef generates a unique reference for a test to avoid collisions.
func testRef(registryAddr, testName string) string {
	return fmt.Sprintf("%s/test/%s:latest", registryAddr, testName)
}

// testRefWithTag generates a reference with a specific tag.
func testRefWithTag(registryAddr, testName, tag string) string {
	return fmt.Sprintf("%s/test/%s:%s", registryAddr, testName, tag)
}

// --- Test Data Helpers ---

// createTestFiles writes test files to a directory.
func createTestFiles(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(tb, os.WriteFile(fullPath, content, 0o644))
	}
}

// buildSpan packs srcDir into capacity-bounded segments under a fresh
// directory and returns the span plus the directory holding its files.
func buildSpan(tb testing.TB, srcDir string, capacity int64, comp tarspan.Compression) (*registry.Span, string) {
	tb.Helper()

	outDir := tb.TempDir()
	cat := tarspan.NewCatalog()

	var src tarspan.EntrySource = tarspan.NewTreeSource(srcDir)
	for i := 0; ; i++ {
		name := fmt.Sprintf("span-%03d.tar", i)
		switch comp {
		case tarspan.CompressionGzip:
			name += ".gz"
		case tarspan.CompressionZstd:
			name += ".zst"
		}
		path := filepath.Join(outDir, name)

		f, err := os.Create(path)
		require.NoError(tb, err, "create segment file")
		cw, err := tarspan.NewCompressor(f, comp)
		require.NoError(tb, err, "create compressor")

		res, packErr := tarspan.Pack(context.Background(), src, cw, tarspan.PackWithCapacity(capacity))
		require.NoError(tb, cw.Close(), "close compressor")
		require.NoError(tb, f.Close(), "close segment file")
		require.NoError(tb, packErr, "pack segment")

		cat.AddSegment(name, res)
		if len(res.Deferred) == 0 {
			break
		}
		src = res.Continuation().Source()
	}

	require.NoError(tb, cat.Save(filepath.Join(outDir, registry.CatalogFileName)), "save catalog")
	span, err := registry.SpanFromCatalog(outDir, cat)
	require.NoError(tb, err, "load span")
	return span, outDir
}

// makeCompressibleContent creates content that benefits from compression.
func makeCompressibleContent(size int) []byte {
	pattern := []byte("This is a repeating pattern for compression testing. ")
	result := make([]byte, 0, size)
	for len(result) < size {
		result = append(result, pattern...)
	}
	return result[:size]
}

// makeRandomContent creates random binary content.
func makeRandomContent(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}

// --- Standard Test Fixtures ---

// smallTree is a simple flat tree with 3 small files.
var smallTree = map[string][]byte{
	"hello.txt":   []byte("Hello, World!"),
	"readme.md":   []byte("# Test Span\n\nThis is a test."),
	"config.json": []byte(`{"version": 1, "name": "test"}`),
}

// nestedTree contains nested directories.
var nestedTree = map[string][]byte{
	"root.txt":        []byte("root file"),
	"dir1/a.txt":      []byte("file a in dir1"),
	"dir1/b.txt":      []byte("file b in dir1"),
	"dir1/sub/c.txt":  []byte("file c in dir1/sub"),
	"dir2/x.txt":      []byte("file x in dir2"),
	"dir2/deep/y.txt": []byte("file y in dir2/deep"),
	"dir2/deep/z.txt": []byte("file z in dir2/deep"),
}

// compressibleTree contains files that benefit significantly from compression.
var compressibleTree = map[string][]byte{
	"large.txt":     makeCompressibleContent(100 * 1024),
	"small.txt":     []byte("tiny"),
	"repeated.json": []byte(`{"data": "` + string(makeCompressibleContent(10*1024)) + `"}`),
}

// --- Assertion Helpers ---

// assertPulledSpan verifies a pulled directory: the catalog is present
// and every segment it records re-hashes to its recorded digest.
func assertPulledSpan(tb testing.TB, dir string, wantSegments int) *tarspan.Catalog {
	tb.Helper()

	cat, err := tarspan.LoadCatalog(filepath.Join(dir, registry.CatalogFileName))
	require.NoError(tb, err, "load pulled catalog")
	require.Len(tb, cat.Segments, wantSegments, "pulled segment count")
	require.NoError(tb, tarspan.VerifyCatalog(context.Background(), dir, cat, 4), "verify pulled segments")
	return cat
}

// catalogPaths collects every entry path recorded across the catalog's
// segments, in span order.
func catalogPaths(cat *tarspan.Catalog) []string {
	var paths []string
	for _, seg := range cat.Segments {
		for _, e := range seg.Entries {
			paths = append(paths, e.Path)
		}
	}
	return paths
}
