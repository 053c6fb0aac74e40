// Package compress provides compression codecs for whole trace files.
//
// Coverage traces from long fuzzing campaigns compress extremely well
// (module paths repeat, block records cluster), so covkit reads and
// writes optionally compressed trace files. Every codec uses a framed
// format whose leading magic bytes identify the algorithm, which lets
// Detect pick the right decompressor without out-of-band metadata:
//
//   - Zstd: Zstandard frames (best ratio, default for archival)
//   - S2: S2 stream framing (balanced ratio and speed)
//   - LZ4: LZ4 frames (fastest decompression)
//   - None: pass-through
//
// The zstd codec has two implementations selected at build time: the
// pure-Go klauspost encoder (default) and the cgo gozstd encoder behind
// the "cgozstd" build tag.
package compress
