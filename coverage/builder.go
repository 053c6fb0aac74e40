package coverage

import (
	"fmt"
	"slices"

	"github.com/covkit/covkit/errs"
	"github.com/covkit/covkit/format"
	"github.com/covkit/covkit/section"
)

// Builder constructs a valid Document from scratch through a fluent,
// append-only API. It is the construction path used by format
// converters and tests.
//
// Methods record the first error and turn subsequent calls into no-ops;
// Build returns that error. Module ids are assigned sequentially in
// AddModule order, so blocks reference modules by the id AddModule
// implies.
//
// Hit count bookkeeping: the internal hit count array stays absent until
// a call supplies a count other than DefaultHitCount (or EnableHitCounts
// / SetHitCounts forces the issue), at which point it is retroactively
// back-filled with DefaultHitCount for all previously added blocks and
// the flavor switches to format.FlavorWithHits.
type Builder struct {
	err     error
	header  section.FileHeader
	modules []section.ModuleEntry
	blocks  []section.BasicBlock
	hits    []uint32
	version format.ModuleTableVersion
	hasHits bool
}

// NewBuilder returns a Builder producing v2 documents with the standard
// flavor.
func NewBuilder() *Builder {
	return &Builder{
		header:  section.NewFileHeader(),
		version: format.VersionV2,
	}
}

// SetFlavor sets the header flavor string.
func (b *Builder) SetFlavor(flavor string) *Builder {
	if b.err != nil {
		return b
	}
	b.header.Flavor = flavor

	return b
}

// SetModuleVersion selects the module table version to write.
func (b *Builder) SetModuleVersion(version format.ModuleTableVersion) *Builder {
	if b.err != nil {
		return b
	}
	if !version.IsValid() {
		b.err = fmt.Errorf("invalid module table version %d", version)
		return b
	}
	b.version = version

	return b
}

// AddModule appends a module with the next sequential id and a zero
// entry point.
func (b *Builder) AddModule(path string, base, end uint64) *Builder {
	return b.AddModuleWithEntry(path, base, end, 0)
}

// AddModuleWithEntry appends a module with the next sequential id and an
// explicit entry point address.
func (b *Builder) AddModuleWithEntry(path string, base, end, entry uint64) *Builder {
	if b.err != nil {
		return b
	}
	b.modules = append(b.modules, section.ModuleEntry{
		ID:           uint32(len(b.modules)),
		ContainingID: -1,
		Base:         base,
		End:          end,
		Entry:        entry,
		Path:         path,
	})

	return b
}

// AddCoverage appends a basic block with the implicit default hit count.
func (b *Builder) AddCoverage(moduleID uint16, offset uint32, size uint16) *Builder {
	return b.AddCoverageWithHits(moduleID, offset, size, DefaultHitCount)
}

// AddCoverageWithHits appends a basic block with an explicit execution
// count. The first non-default count enables hit count tracking for the
// whole document.
func (b *Builder) AddCoverageWithHits(moduleID uint16, offset uint32, size uint16, hitCount uint32) *Builder {
	if b.err != nil {
		return b
	}
	b.blocks = append(b.blocks, section.BasicBlock{
		Start:    offset,
		Size:     size,
		ModuleID: moduleID,
	})

	if b.hasHits {
		b.hits = append(b.hits, hitCount)
	} else if hitCount != DefaultHitCount {
		b.enableHits()
		b.hits[len(b.hits)-1] = hitCount
	}

	return b
}

// AddBasicBlocks appends multiple blocks at once with default hit counts.
func (b *Builder) AddBasicBlocks(blocks []section.BasicBlock) *Builder {
	if b.err != nil {
		return b
	}
	b.blocks = append(b.blocks, blocks...)
	if b.hasHits {
		for range blocks {
			b.hits = append(b.hits, DefaultHitCount)
		}
	}

	return b
}

// SetHitCounts replaces the hit count array. Its length must exactly
// equal the current block count.
func (b *Builder) SetHitCounts(counts []uint32) *Builder {
	if b.err != nil {
		return b
	}
	if len(counts) != len(b.blocks) {
		b.err = errs.NewValidationError(errs.ErrHitCountLength,
			fmt.Sprintf("%d hit counts for %d blocks", len(counts), len(b.blocks)))
		return b
	}

	b.hasHits = true
	b.hits = slices.Clone(counts)
	b.header.Flavor = format.FlavorWithHits

	return b
}

// EnableHitCounts turns on hit count tracking, back-filling every block
// added so far with the default count.
func (b *Builder) EnableHitCounts() *Builder {
	if b.err != nil {
		return b
	}
	if !b.hasHits {
		b.enableHits()
	}

	return b
}

// enableHits back-fills the array with defaults and switches the flavor
// to the hit count sentinel.
func (b *Builder) enableHits() {
	b.hasHits = true
	b.hits = make([]uint32, len(b.blocks))
	for i := range b.hits {
		b.hits[i] = DefaultHitCount
	}
	b.header.Flavor = format.FlavorWithHits
}

// ClearCoverage removes all blocks and hit counts, keeping modules and
// header settings.
func (b *Builder) ClearCoverage() *Builder {
	if b.err != nil {
		return b
	}
	b.blocks = nil
	if b.hasHits {
		b.hits = b.hits[:0]
	}

	return b
}

// BlockCount returns the number of blocks added so far.
func (b *Builder) BlockCount() int {
	return len(b.blocks)
}

// ModuleCount returns the number of modules added so far.
func (b *Builder) ModuleCount() int {
	return len(b.modules)
}

// Build assembles the document and runs strict validation; any deferred
// builder error or invariant violation fails the build. The builder can
// keep being used afterwards.
func (b *Builder) Build() (*Document, error) {
	if b.err != nil {
		return nil, b.err
	}

	doc := &Document{
		Header:        b.header,
		Modules:       slices.Clone(b.modules),
		BasicBlocks:   slices.Clone(b.blocks),
		ModuleVersion: b.version,
	}
	if b.hasHits {
		doc.HitCounts = make([]uint32, len(b.hits))
		copy(doc.HitCounts, b.hits)
	}

	if _, err := doc.Validate(false); err != nil {
		return nil, err
	}

	return doc, nil
}
