package compress

// ZstdCompressor provides Zstandard frame compression for trace files.
//
// Zstd gives the best compression ratio of the supported codecs and is
// the recommended choice for archiving large fuzzing corpora, where
// traces are written once and decompressed rarely.
//
// The implementation is selected at build time: the default pure-Go
// encoder (klauspost/compress), or the cgo encoder (valyala/gozstd)
// when built with the "cgozstd" tag. Both produce standard Zstandard
// frames and are wire compatible.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
