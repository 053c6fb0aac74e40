// Package coverage provides the in-memory model for drcov coverage
// traces and the set algebra built on top of it.
//
// The core type is Document: the validated aggregate of file header,
// module table, basic block list and optional hit count array. Documents
// come from three places:
//
//   - Read / ReadFile: parse a trace file (optionally compressed)
//   - Builder: fluent construction from scratch
//   - CoverageSet operations: re-synthesized results of set algebra
//
// Validation runs in two policies. Strict rejects any invariant
// violation; permissive repairs recoverable ones (dangling blocks,
// misaligned hit counts) and reports every applied repair, so a document
// handed to the caller is always internally consistent either way.
//
// CoverageSet treats a document as a mathematical set of basic blocks,
// backed by a roaring bitmap over packed block keys, and supports union,
// intersection, difference, symmetric difference, module filtering,
// rarity counting across trace collections, and absolute address
// resolution. Set operations never mutate their operands.
package coverage
