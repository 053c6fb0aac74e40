package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covkit/covkit/errs"
)

func TestParseHitCountDecl(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cur := NewCursor([]byte("Hit Count Table: version 1, count 42\n"))

		count, present, err := ParseHitCountDecl(cur)

		require.NoError(t, err)
		require.True(t, present)
		require.Equal(t, 42, count)
	})

	t.Run("Absent at end of stream", func(t *testing.T) {
		count, present, err := ParseHitCountDecl(NewCursor(nil))

		require.NoError(t, err)
		require.False(t, present)
		require.Equal(t, 0, count)
	})

	t.Run("Absent leaves cursor untouched", func(t *testing.T) {
		cur := NewCursor([]byte("trailing garbage\n"))

		_, present, err := ParseHitCountDecl(cur)

		require.NoError(t, err)
		require.False(t, present)

		line, ok := cur.Line()
		require.True(t, ok)
		require.Equal(t, "trailing garbage", line)
	})

	t.Run("Unsupported version", func(t *testing.T) {
		cur := NewCursor([]byte("Hit Count Table: version 2, count 10\n"))

		_, _, err := ParseHitCountDecl(cur)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrUnsupportedHitCountVersion)
	})

	t.Run("Declaration missing the comma", func(t *testing.T) {
		cur := NewCursor([]byte("Hit Count Table: version 1 count 3\n"))

		_, _, err := ParseHitCountDecl(cur)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrMalformedHitCountDecl)
	})

	t.Run("Garbled count", func(t *testing.T) {
		cur := NewCursor([]byte("Hit Count Table: version 1, count lots\n"))

		_, _, err := ParseHitCountDecl(cur)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrInvalidNumber)
	})
}

func TestHitCountValues(t *testing.T) {
	t.Run("Roundtrip", func(t *testing.T) {
		counts := []uint32{1, 5000, 123456, 0xFFFFFFFF}

		data := AppendHitCountTable(nil, counts)
		cur := NewCursor(data)

		declared, present, err := ParseHitCountDecl(cur)
		require.NoError(t, err)
		require.True(t, present)
		require.Equal(t, len(counts), declared)

		parsed, err := ParseHitCountValues(cur, declared)
		require.NoError(t, err)
		require.Equal(t, counts, parsed)
	})

	t.Run("Little endian layout", func(t *testing.T) {
		cur := NewCursor([]byte{0x88, 0x13, 0x00, 0x00}) // 5000 LE

		parsed, err := ParseHitCountValues(cur, 1)
		require.NoError(t, err)
		require.Equal(t, uint32(5000), parsed[0])
	})

	t.Run("Truncated values", func(t *testing.T) {
		cur := NewCursor([]byte{0x01, 0x00})

		_, err := ParseHitCountValues(cur, 1)
		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrTruncatedHitCounts)
	})
}
