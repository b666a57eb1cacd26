package routeros

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLengthBoundaries(t *testing.T) {
	cases := []struct {
		length    int
		prefixLen int
	}{
		{0, 1},
		{1, 1},
		{127, 1},   // last single-byte length
		{128, 2},   // first 0x80-prefixed length
		{16383, 2}, // last two-byte length
		{16384, 3}, // first 0xC0-prefixed length
		{0x1FFFFF, 3},
		{0x200000, 4},
	}

	for _, tc := range cases {
		prefix := encodeLength(tc.length)
		assert.Len(t, prefix, tc.prefixLen, "length %d", tc.length)

		decoded, err := readLength(bytes.NewReader(prefix))
		require.NoError(t, err, "length %d", tc.length)
		assert.Equal(t, tc.length, decoded, "length %d", tc.length)
	}
}

func TestWordRoundTrip(t *testing.T) {
	for _, n := range []int{0, 127, 128, 16383, 16384} {
		word := strings.Repeat("a", n)

		var buf bytes.Buffer
		require.NoError(t, writeWord(&buf, word))

		got, err := readWord(&buf, maxWordLen)
		require.NoError(t, err, "word length %d", n)
		assert.Equal(t, word, got, "word length %d", n)
	}
}

func TestReadWordTruncatedFrame(t *testing.T) {
	// Length prefix promises 10 bytes but only 3 arrive.
	var buf bytes.Buffer
	buf.Write(encodeLength(10))
	buf.WriteString("abc")

	_, err := readWord(&buf, maxWordLen)
	assert.Error(t, err)
}

func TestReadWordRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeLength(maxWordLen + 1))

	_, err := readWord(&buf, maxWordLen)
	assert.Error(t, err)
}
