// Package covkit reads, writes and manipulates drcov coverage traces,
// the basic-block coverage format produced by DynamoRIO's drcov tool,
// frida-based tracers and compatible instrumentation.
//
// # Core Features
//
//   - Full drcov v2 codec: text header, module table versions legacy/2/3/4,
//     packed binary basic block table, optional hit count table
//   - Legacy ASCII block listings parsed transparently on read
//   - Permissive mode that repairs malformed traces and reports every
//     repair applied, or strict mode that rejects them
//   - Set algebra over traces (union, intersection, difference,
//     symmetric difference) backed by roaring bitmaps
//   - Rarity analysis across trace corpora and module-relative filtering
//   - Transparent zstd, LZ4 and S2 compression detected by frame magic
//
// # Basic Usage
//
// Reading and diffing two traces:
//
//	import "github.com/covkit/covkit"
//
//	a, _, err := covkit.FromFile("baseline.drcov", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _, err := covkit.FromFile("fuzzed.drcov", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks only the fuzzed run reached.
//	diff := b.Difference(a)
//	fmt.Printf("%d new blocks\n", diff.Len())
//	_ = diff.WriteToFile("new-coverage.drcov")
//
// Building a trace from scratch:
//
//	doc, err := covkit.NewBuilder().
//	    AddModule("/bin/target", 0x400000, 0x500000).
//	    AddCoverage(0, 0x1000, 32).
//	    AddCoverageWithHits(0, 0x1040, 16, 250).
//	    Build()
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the
// coverage package, covering the most common use cases. For fine-grained
// control over documents, validation and the section codecs, use the
// coverage and section packages directly.
package covkit

import (
	"context"
	"io"

	"github.com/covkit/covkit/coverage"
	"github.com/covkit/covkit/section"
)

// Read parses a drcov trace from r, transparently decompressing if the
// payload carries a known compression frame.
//
// Parameters:
//   - r: Source of the raw trace bytes
//   - permissive: Repair malformed traces instead of rejecting them
//
// Returns:
//   - *coverage.Document: The parsed trace.
//   - []coverage.Repair: Repairs applied in permissive mode, nil when clean.
//   - error: An error if the trace is malformed beyond repair.
func Read(r io.Reader, permissive bool) (*coverage.Document, []coverage.Repair, error) {
	return coverage.Read(r, permissive)
}

// ReadFile parses the drcov trace stored at path.
//
// Compressed files are handled transparently; detection is by content,
// not extension.
func ReadFile(path string, permissive bool) (*coverage.Document, []coverage.Repair, error) {
	return coverage.ReadFile(path, permissive)
}

// Write serializes doc to w in drcov v2 binary form after strict
// validation.
func Write(doc *coverage.Document, w io.Writer) error {
	return coverage.Write(doc, w)
}

// WriteFile serializes doc to path, compressing by extension
// (.zst/.zstd, .lz4, .s2).
func WriteFile(doc *coverage.Document, path string) error {
	return coverage.WriteFile(doc, path)
}

// NewBuilder creates a builder for constructing traces programmatically.
//
// Example:
//
//	doc, err := covkit.NewBuilder().
//	    AddModule("/usr/lib/libc.so", 0x7f0000000000, 0x7f0000200000).
//	    AddCoverage(0, 0x26000, 48).
//	    Build()
func NewBuilder() *coverage.Builder {
	return coverage.NewBuilder()
}

// FromFile reads the trace at path and wraps it in a CoverageSet ready
// for set algebra.
func FromFile(path string, permissive bool) (*coverage.CoverageSet, []coverage.Repair, error) {
	return coverage.FromFile(path, permissive)
}

// LoadAll reads multiple trace files concurrently, preserving input
// order in the results. The first failure cancels the remaining loads.
//
// Example:
//
//	results, err := covkit.LoadAll(ctx, paths, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rarity := covkit.RarityInfo(sets(results))
func LoadAll(ctx context.Context, paths []string, permissive bool) ([]coverage.LoadResult, error) {
	return coverage.LoadAll(ctx, paths, permissive)
}

// RarityInfo counts how many of the given sets contain each block.
func RarityInfo(sets []*coverage.CoverageSet) map[section.BasicBlock]int {
	return coverage.RarityInfo(sets)
}
