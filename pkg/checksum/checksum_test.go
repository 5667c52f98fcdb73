package checksum

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	sum, err := Of(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, OfBytes([]byte("hello world")), sum)
	assert.Len(t, sum, 40) // hex-encoded SHA-1 is 20 bytes
}

func TestWriterMatchesOf(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	w := NewWriter()
	_, err := w.Write(data[:10])
	require.NoError(t, err)
	_, err = w.Write(data[10:])
	require.NoError(t, err)

	want, err := Of(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want, w.Sum())
}

func TestOfEmpty(t *testing.T) {
	sum, err := Of(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", sum)
}
