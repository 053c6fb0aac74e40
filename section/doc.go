// Package section implements the per-section codecs of the drcov trace
// file format: the text header, the versioned module table, the binary
// basic block table (plus its legacy ASCII form), and the optional
// trailing hit count table.
//
// A drcov file is a text/binary hybrid. The text sections are
// line-oriented and parsed through a Cursor that tracks line numbers for
// error reporting; the binary sections are tightly packed little-endian
// records decoded in place from the same buffer.
//
// Layout:
//
//	DRCOV VERSION: 2
//	DRCOV FLAVOR: <flavor>
//	Module Table: version <2|3|4>, count <N>   (legacy: "Module Table: <N>")
//	Columns: <comma-separated column names>    (absent for legacy)
//	<N module rows>
//	BB Table: <M> bbs
//	<M * 8 bytes of packed records>
//	[Hit Count Table: version 1, count <M>]
//	[<M * 4 bytes of packed uint32>]
//
// Each section provides a Parse function consuming a Cursor and an
// AppendTo-style writer producing the canonical serialized form.
package section
