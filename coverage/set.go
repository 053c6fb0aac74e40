package coverage

import (
	"encoding/binary"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/covkit/covkit/format"
	"github.com/covkit/covkit/internal/hash"
	"github.com/covkit/covkit/section"
)

// CoverageSet is a set-algebra view over a coverage trace. Blocks are
// held in a roaring bitmap keyed by their packed representation, which
// makes union, intersection and difference cheap even for traces with
// millions of blocks.
//
// Set operations treat coverage as pure membership: hit counts are
// discarded and the result carries the standard flavor. Use
// FilterByModule when execution counts must survive.
type CoverageSet struct {
	doc     *Document
	modules map[uint32]section.ModuleEntry
	bits    *roaring64.Bitmap
}

// NewCoverageSet wraps an existing document. The document is referenced,
// not copied; callers must not mutate it afterwards.
func NewCoverageSet(doc *Document) *CoverageSet {
	bits := roaring64.NewBitmap()
	for _, blk := range doc.BasicBlocks {
		bits.Add(blk.Key())
	}

	modules := make(map[uint32]section.ModuleEntry, len(doc.Modules))
	for _, mod := range doc.Modules {
		// Last occurrence wins for duplicated ids.
		modules[mod.ID] = mod
	}

	return &CoverageSet{
		doc:     doc,
		modules: modules,
		bits:    bits,
	}
}

// FromFile reads the trace at path and wraps it in a CoverageSet.
func FromFile(path string, permissive bool) (*CoverageSet, []Repair, error) {
	doc, repairs, err := ReadFile(path, permissive)
	if err != nil {
		return nil, nil, err
	}

	return NewCoverageSet(doc), repairs, nil
}

// WriteToFile serializes the underlying document to path, compressing
// by file extension.
func (s *CoverageSet) WriteToFile(path string) error {
	return WriteFile(s.doc, path)
}

// Document returns the underlying document.
func (s *CoverageSet) Document() *Document {
	return s.doc
}

// Len returns the number of unique basic blocks in the set.
func (s *CoverageSet) Len() int {
	return int(s.bits.GetCardinality())
}

// IsEmpty reports whether the set contains no blocks.
func (s *CoverageSet) IsEmpty() bool {
	return s.bits.IsEmpty()
}

// Contains reports whether the exact block is a member of the set.
func (s *CoverageSet) Contains(blk section.BasicBlock) bool {
	return s.bits.Contains(blk.Key())
}

// Modules returns the module table sorted by id.
func (s *CoverageSet) Modules() []section.ModuleEntry {
	return sortedModules(s.modules)
}

// Blocks returns the member blocks in packed key order, which sorts by
// offset first, then size, then module id.
func (s *CoverageSet) Blocks() []section.BasicBlock {
	blocks := make([]section.BasicBlock, 0, s.bits.GetCardinality())
	it := s.bits.Iterator()
	for it.HasNext() {
		blocks = append(blocks, section.BlockFromKey(it.Next()))
	}

	return blocks
}

// Union returns a set containing blocks present in either operand.
// Module tables are merged with the other set winning on id collisions.
func (s *CoverageSet) Union(other *CoverageSet) *CoverageSet {
	bits := s.bits.Clone()
	bits.Or(other.bits)

	return s.derive(bits, mergeModules(s.modules, other.modules), maxVersion(s, other))
}

// Intersect returns a set containing blocks present in both operands.
func (s *CoverageSet) Intersect(other *CoverageSet) *CoverageSet {
	bits := s.bits.Clone()
	bits.And(other.bits)

	return s.derive(bits, mergeModules(s.modules, other.modules), maxVersion(s, other))
}

// Difference returns a set containing blocks present in s but not in
// other. The result keeps only s's module table.
func (s *CoverageSet) Difference(other *CoverageSet) *CoverageSet {
	bits := s.bits.Clone()
	bits.AndNot(other.bits)

	return s.derive(bits, s.modules, s.doc.ModuleVersion)
}

// SymmetricDifference returns a set containing blocks present in exactly
// one of the operands.
func (s *CoverageSet) SymmetricDifference(other *CoverageSet) *CoverageSet {
	bits := s.bits.Clone()
	bits.Xor(other.bits)

	return s.derive(bits, mergeModules(s.modules, other.modules), maxVersion(s, other))
}

// FilterByModule returns a set restricted to modules whose path
// contains pattern, matched case-insensitively. Both the module table
// and the block list shrink to the matches. Unlike the set operations,
// filtering preserves hit counts: the surviving counts stay aligned
// with their blocks and the flavor is carried over.
func (s *CoverageSet) FilterByModule(pattern string) *CoverageSet {
	needle := strings.ToLower(pattern)

	// Keyed by the full uint32 id: module tables may carry ids above
	// the uint16 block range, and truncating here would alias them onto
	// low ids and leak blocks of non-matching modules.
	keep := make(map[uint32]struct{})
	doc := &Document{
		Header:        s.doc.Header,
		ModuleVersion: s.doc.ModuleVersion,
	}
	for _, mod := range s.doc.Modules {
		if !strings.Contains(strings.ToLower(mod.Path), needle) {
			continue
		}
		doc.Modules = append(doc.Modules, mod)
		keep[mod.ID] = struct{}{}
	}
	if s.doc.HasHitCounts() {
		doc.HitCounts = []uint32{}
	}

	for i, blk := range s.doc.BasicBlocks {
		if _, ok := keep[uint32(blk.ModuleID)]; !ok {
			continue
		}
		doc.BasicBlocks = append(doc.BasicBlocks, blk)
		if doc.HitCounts != nil {
			doc.HitCounts = append(doc.HitCounts, s.doc.GetHitCount(i))
		}
	}

	return NewCoverageSet(doc)
}

// CoverageByModule groups member blocks by module base name.
func (s *CoverageSet) CoverageByModule() map[string][]section.BasicBlock {
	grouped := make(map[string][]section.BasicBlock)
	it := s.bits.Iterator()
	for it.HasNext() {
		blk := section.BlockFromKey(it.Next())
		mod, ok := s.modules[uint32(blk.ModuleID)]
		if !ok {
			continue
		}
		name := mod.Name()
		grouped[name] = append(grouped[name], blk)
	}

	return grouped
}

// AbsoluteAddresses resolves every member block against its module base
// and returns the deduplicated, sorted address list. Blocks whose module
// is missing from the table are skipped.
func (s *CoverageSet) AbsoluteAddresses() []uint64 {
	seen := roaring64.NewBitmap()
	it := s.bits.Iterator()
	for it.HasNext() {
		blk := section.BlockFromKey(it.Next())
		mod, ok := s.modules[uint32(blk.ModuleID)]
		if !ok {
			continue
		}
		seen.Add(mod.Base + uint64(blk.Start))
	}

	addrs := make([]uint64, 0, seen.GetCardinality())
	ait := seen.Iterator()
	for ait.HasNext() {
		addrs = append(addrs, ait.Next())
	}

	return addrs
}

// Fingerprint returns a stable 64-bit digest of the set membership. Two
// sets with the same blocks fingerprint identically regardless of input
// ordering, hit counts or module paths.
func (s *CoverageSet) Fingerprint() uint64 {
	digest := hash.NewDigest()
	var buf [8]byte
	it := s.bits.Iterator()
	for it.HasNext() {
		binary.LittleEndian.PutUint64(buf[:], it.Next())
		_, _ = digest.Write(buf[:])
	}

	return digest.Sum64()
}

// RarityInfo counts, for each block appearing anywhere in sets, how many
// sets contain it. A block counts at most once per set, so the result
// divides coverage into common blocks (count near len(sets)) and rare
// ones (count 1).
func RarityInfo(sets []*CoverageSet) map[section.BasicBlock]int {
	rarity := make(map[section.BasicBlock]int)
	for _, set := range sets {
		it := set.bits.Iterator()
		for it.HasNext() {
			rarity[section.BlockFromKey(it.Next())]++
		}
	}

	return rarity
}

// derive builds a result set around bits, synthesizing a fresh document
// so the result is usable with the writer directly. Hit counts do not
// survive set algebra; the result always carries the standard flavor.
func (s *CoverageSet) derive(bits *roaring64.Bitmap, modules map[uint32]section.ModuleEntry, version format.ModuleTableVersion) *CoverageSet {
	doc := &Document{
		Header:        section.NewFileHeader(),
		Modules:       sortedModules(modules),
		ModuleVersion: version,
	}

	doc.BasicBlocks = make([]section.BasicBlock, 0, bits.GetCardinality())
	it := bits.Iterator()
	for it.HasNext() {
		doc.BasicBlocks = append(doc.BasicBlocks, section.BlockFromKey(it.Next()))
	}

	merged := make(map[uint32]section.ModuleEntry, len(modules))
	for id, mod := range modules {
		merged[id] = mod
	}

	return &CoverageSet{
		doc:     doc,
		modules: merged,
		bits:    bits,
	}
}

// mergeModules unions two module tables, with b winning on id
// collisions.
func mergeModules(a, b map[uint32]section.ModuleEntry) map[uint32]section.ModuleEntry {
	merged := make(map[uint32]section.ModuleEntry, len(a)+len(b))
	for id, mod := range a {
		merged[id] = mod
	}
	for id, mod := range b {
		merged[id] = mod
	}

	return merged
}

// maxVersion picks the richer module table version of the operands.
func maxVersion(a, b *CoverageSet) format.ModuleTableVersion {
	if b.doc.ModuleVersion > a.doc.ModuleVersion {
		return b.doc.ModuleVersion
	}

	return a.doc.ModuleVersion
}

// sortedModules flattens a module map into an id-ordered slice.
func sortedModules(modules map[uint32]section.ModuleEntry) []section.ModuleEntry {
	out := make([]section.ModuleEntry, 0, len(modules))
	for _, mod := range modules {
		out = append(out, mod)
	}
	slices.SortFunc(out, func(a, b section.ModuleEntry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return out
}
