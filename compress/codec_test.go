package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covkit/covkit/format"
)

func sampleTrace() []byte {
	var buf bytes.Buffer
	buf.WriteString("DRCOV VERSION: 2\nDRCOV FLAVOR: drcov\n")
	buf.WriteString("Module Table: version 2, count 1\n")
	buf.WriteString("Columns: id, base, end, entry, path\n")
	buf.WriteString("0, 0x400000, 0x500000, 0x401000, /usr/bin/target\n")
	buf.WriteString("BB Table: 256 bbs\n")
	for i := 0; i < 256; i++ {
		buf.Write([]byte{byte(i), 0x10, 0, 0, 8, 0, 0, 0})
	}

	return buf.Bytes()
}

func TestCodecs_Roundtrip(t *testing.T) {
	original := sampleTrace()

	types := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}
	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			codec, err := GetCodec(typ)
			require.NoError(t, err)

			compressed, err := codec.Compress(original)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, original, decompressed)
		})
	}
}

func TestDetect(t *testing.T) {
	original := sampleTrace()

	t.Run("Plain text", func(t *testing.T) {
		require.Equal(t, format.CompressionNone, Detect(original))
	})

	t.Run("Empty", func(t *testing.T) {
		require.Equal(t, format.CompressionNone, Detect(nil))
	})

	compressed := []format.CompressionType{
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}
	for _, typ := range compressed {
		t.Run(typ.String(), func(t *testing.T) {
			codec, err := GetCodec(typ)
			require.NoError(t, err)

			data, err := codec.Compress(original)
			require.NoError(t, err)
			require.Equal(t, typ, Detect(data))
		})
	}
}

func TestDetect_DispatchRoundtrip(t *testing.T) {
	// A reader that sniffs the codec from the payload must get the
	// original bytes back, for every compressed format.
	original := sampleTrace()

	for _, typ := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		data, err := codec.Compress(original)
		require.NoError(t, err)

		detected, err := GetCodec(Detect(data))
		require.NoError(t, err)

		decompressed, err := detected.Decompress(data)
		require.NoError(t, err)
		require.Equal(t, original, decompressed)
	}
}

func TestCreateCodec(t *testing.T) {
	t.Run("All supported types", func(t *testing.T) {
		for _, typ := range []format.CompressionType{
			format.CompressionNone,
			format.CompressionZstd,
			format.CompressionS2,
			format.CompressionLZ4,
		} {
			codec, err := CreateCodec(typ, "trace")
			require.NoError(t, err)
			require.NotNil(t, codec)
		}
	})

	t.Run("Invalid type", func(t *testing.T) {
		_, err := CreateCodec(format.CompressionType(0xFF), "trace")
		require.Error(t, err)
	})
}

func TestNoOpCompressor(t *testing.T) {
	codec := NewNoOpCompressor()
	data := sampleTrace()

	compressed, err := codec.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, compressed)

	decompressed, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}
