package tarspan

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/tarspan/internal/testutil"
)

func TestContinuation_Paths(t *testing.T) {
	t.Parallel()

	c := NewContinuation("a.txt", "b/c.txt")
	assert.Equal(t, 2, c.Len())

	c.Add("d.txt")
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"a.txt", "b/c.txt", "d.txt"}, c.Paths())
}

func TestContinuation_WriteTo(t *testing.T) {
	t.Parallel()

	c := NewContinuation("a.txt", "b/c.txt")

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "a.txt\nb/c.txt\n", buf.String())
}

func TestContinuation_WriteToEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewContinuation().WriteTo(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}

func TestContinuation_Source(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string][]byte{
		"a.txt": []byte("aa"),
		"b.txt": []byte("bb"),
	})

	c := NewContinuation(dir+"/b.txt", dir+"/a.txt")
	src := c.Source()

	first, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Size)
	assert.Equal(t, dir+"/b.txt", first.SourcePath)

	second, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, dir+"/a.txt", second.SourcePath)

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}
