package coverage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/covkit/covkit/compress"
	"github.com/covkit/covkit/format"
	"github.com/covkit/covkit/internal/pool"
	"github.com/covkit/covkit/section"
)

// Write serializes doc to w in drcov v2 binary form. The document is
// strictly validated first, so malformed state never reaches disk; the
// caller repairs or rejects defects before writing.
//
// A hit count table is emitted only when the flavor supports it and the
// document actually carries counts.
func Write(doc *Document, w io.Writer) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}

	return nil
}

// Encode serializes doc into a freshly allocated buffer.
func Encode(doc *Document) ([]byte, error) {
	if _, err := doc.Validate(false); err != nil {
		return nil, err
	}

	buf := pool.GetTraceBuffer()
	defer pool.PutTraceBuffer(buf)

	buf.B = doc.Header.AppendTo(buf.B)
	buf.B = section.AppendModuleTable(buf.B, doc.Modules, doc.ModuleVersion)
	buf.B = section.AppendBBTable(buf.B, doc.BasicBlocks)
	if doc.Header.SupportsHitCounts() && doc.HasHitCounts() {
		buf.B = section.AppendHitCountTable(buf.B, doc.HitCounts)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// WriteFile serializes doc to path. The compression codec is chosen by
// file extension: .zst/.zstd, .lz4 and .s2 produce framed compressed
// output, anything else is written raw.
func WriteFile(doc *Document, path string) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	typ := compressionForPath(path)
	if typ != format.CompressionNone {
		codec, err := compress.GetCodec(typ)
		if err != nil {
			return err
		}
		data, err = codec.Compress(data)
		if err != nil {
			return fmt.Errorf("compress %s trace: %w", typ, err)
		}
	}

	return os.WriteFile(path, data, 0o644)
}

// compressionForPath maps a file extension to its codec.
func compressionForPath(path string) format.CompressionType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return format.CompressionZstd
	case ".lz4":
		return format.CompressionLZ4
	case ".s2":
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}
