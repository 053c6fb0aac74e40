package coverage

import (
	"fmt"
	"slices"

	"github.com/covkit/covkit/errs"
	"github.com/covkit/covkit/format"
	"github.com/covkit/covkit/section"
)

// DefaultHitCount is the implicit execution count of a block in traces
// without a hit count table: recorded as executed means executed at
// least once.
const DefaultHitCount uint32 = 1

// Document is the validated in-memory aggregate of one coverage trace.
//
// HitCounts is either nil (no hit count data) or a parallel array
// index-aligned 1:1 with BasicBlocks; HitCounts[i] is the execution
// count of BasicBlocks[i]. A non-nil empty slice means "hit counts
// enabled, zero blocks" and round-trips as such.
type Document struct {
	Header        section.FileHeader
	Modules       []section.ModuleEntry
	BasicBlocks   []section.BasicBlock
	HitCounts     []uint32
	ModuleVersion format.ModuleTableVersion
}

// NewDocument returns an empty document with the default header and
// module table version.
func NewDocument() *Document {
	return &Document{
		Header:        section.NewFileHeader(),
		ModuleVersion: format.VersionV2,
	}
}

// HasHitCounts reports whether the document carries hit count data.
func (d *Document) HasHitCounts() bool {
	return d.HitCounts != nil
}

// GetHitCount returns the execution count of BasicBlocks[i], falling
// back to DefaultHitCount when no hit count data exists or i is out of
// range.
func (d *Document) GetHitCount(i int) uint32 {
	if d.HitCounts == nil || i < 0 || i >= len(d.HitCounts) {
		return DefaultHitCount
	}

	return d.HitCounts[i]
}

// BlockHit pairs a basic block with its execution count.
type BlockHit struct {
	Block section.BasicBlock
	Hits  uint32
}

// BlocksWithHits returns every block paired with its hit count,
// defaulting to DefaultHitCount when the document has none.
func (d *Document) BlocksWithHits() []BlockHit {
	out := make([]BlockHit, len(d.BasicBlocks))
	for i, b := range d.BasicBlocks {
		out[i] = BlockHit{Block: b, Hits: d.GetHitCount(i)}
	}

	return out
}

// FindModule returns the module entry with the given id, or nil.
//
// When ids follow the sequential convention (id equals list position)
// the lookup is O(1); otherwise it degrades to a linear scan returning
// the first match, which also defines the behavior for documents with
// duplicate ids.
func (d *Document) FindModule(id uint32) *section.ModuleEntry {
	if int(id) < len(d.Modules) && d.Modules[id].ID == id {
		return &d.Modules[id]
	}
	for i := range d.Modules {
		if d.Modules[i].ID == id {
			return &d.Modules[i]
		}
	}

	return nil
}

// FindModuleByAddress returns the first module whose address range
// contains addr, or nil. The end address is exclusive.
func (d *Document) FindModuleByAddress(addr uint64) *section.ModuleEntry {
	for i := range d.Modules {
		if d.Modules[i].ContainsAddress(addr) {
			return &d.Modules[i]
		}
	}

	return nil
}

// CoverageStats returns the number of basic blocks per module id.
func (d *Document) CoverageStats() map[uint32]int {
	stats := make(map[uint32]int, len(d.Modules))
	for _, b := range d.BasicBlocks {
		stats[uint32(b.ModuleID)]++
	}

	return stats
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{
		Header:        d.Header,
		Modules:       slices.Clone(d.Modules),
		BasicBlocks:   slices.Clone(d.BasicBlocks),
		HitCounts:     slices.Clone(d.HitCounts),
		ModuleVersion: d.ModuleVersion,
	}
}

// RepairKind identifies one class of permissive-mode repair or warning.
type RepairKind uint8

const (
	// RepairDroppedBlocks: blocks referencing unknown module ids were
	// removed, together with their paired hit counts.
	RepairDroppedBlocks RepairKind = iota + 1
	// RepairTruncatedHitCounts: the hit count array was longer than the
	// block list and was truncated.
	RepairTruncatedHitCounts
	// RepairPaddedHitCounts: the hit count array was shorter than the
	// block list and was padded with DefaultHitCount.
	RepairPaddedHitCounts
	// WarnDuplicateModuleID: two modules share an id. Nothing is removed;
	// lookups resolve to the first match.
	WarnDuplicateModuleID
	// WarnNonSequentialIDs: module ids do not equal their list positions.
	// Sequential ids are a convention, not a requirement.
	WarnNonSequentialIDs
)

func (k RepairKind) String() string {
	switch k {
	case RepairDroppedBlocks:
		return "dropped-blocks"
	case RepairTruncatedHitCounts:
		return "truncated-hit-counts"
	case RepairPaddedHitCounts:
		return "padded-hit-counts"
	case WarnDuplicateModuleID:
		return "duplicate-module-id"
	case WarnNonSequentialIDs:
		return "non-sequential-module-ids"
	default:
		return "unknown"
	}
}

// Repair records one repair applied (or warning raised) by permissive
// validation.
type Repair struct {
	Detail string
	Kind   RepairKind
	Count  int
}

// Validate checks the document's invariants.
//
// Strict mode (permissive=false) returns a ValidationError on the first
// violation and never mutates the document; warnings that are not
// violations (non-sequential module ids) are still reported. Permissive
// mode repairs recoverable violations in place and reports every repair.
// Validation is idempotent: a second call on a repaired or already-valid
// document applies nothing.
func (d *Document) Validate(permissive bool) ([]Repair, error) {
	var repairs []Repair

	seen := make(map[uint32]struct{}, len(d.Modules))
	for i := range d.Modules {
		id := d.Modules[i].ID
		if _, dup := seen[id]; dup {
			if !permissive {
				return nil, errs.NewValidationError(errs.ErrDuplicateModuleID,
					fmt.Sprintf("module id %d", id))
			}
			repairs = append(repairs, Repair{
				Kind:   WarnDuplicateModuleID,
				Detail: fmt.Sprintf("module id %d appears more than once", id),
			})
			continue
		}
		seen[id] = struct{}{}
	}

	for i := range d.Modules {
		if d.Modules[i].ID != uint32(i) {
			repairs = append(repairs, Repair{
				Kind:   WarnNonSequentialIDs,
				Detail: fmt.Sprintf("module id %d at position %d", d.Modules[i].ID, i),
			})
			break
		}
	}

	dangling := 0
	for _, b := range d.BasicBlocks {
		if _, ok := seen[uint32(b.ModuleID)]; !ok {
			dangling++
		}
	}
	if dangling > 0 {
		if !permissive {
			return nil, errs.NewValidationError(errs.ErrUnknownBlockModule,
				fmt.Sprintf("%d block(s) reference missing modules", dangling))
		}
		d.dropDanglingBlocks(seen)
		repairs = append(repairs, Repair{
			Kind:   RepairDroppedBlocks,
			Count:  dangling,
			Detail: fmt.Sprintf("dropped %d block(s) referencing missing modules", dangling),
		})
	}

	if d.HitCounts != nil && len(d.HitCounts) != len(d.BasicBlocks) {
		if !permissive {
			return nil, errs.NewValidationError(errs.ErrHitCountMismatch,
				fmt.Sprintf("%d hit counts for %d blocks", len(d.HitCounts), len(d.BasicBlocks)))
		}
		if len(d.HitCounts) > len(d.BasicBlocks) {
			excess := len(d.HitCounts) - len(d.BasicBlocks)
			d.HitCounts = d.HitCounts[:len(d.BasicBlocks)]
			repairs = append(repairs, Repair{
				Kind:   RepairTruncatedHitCounts,
				Count:  excess,
				Detail: fmt.Sprintf("truncated %d excess hit count(s)", excess),
			})
		} else {
			missing := len(d.BasicBlocks) - len(d.HitCounts)
			for range missing {
				d.HitCounts = append(d.HitCounts, DefaultHitCount)
			}
			repairs = append(repairs, Repair{
				Kind:   RepairPaddedHitCounts,
				Count:  missing,
				Detail: fmt.Sprintf("padded %d missing hit count(s) with %d", missing, DefaultHitCount),
			})
		}
	}

	return repairs, nil
}

// dropDanglingBlocks removes blocks whose module id is not in known,
// keeping the hit count array index-aligned.
func (d *Document) dropDanglingBlocks(known map[uint32]struct{}) {
	blocks := d.BasicBlocks[:0]
	var hits []uint32
	if d.HitCounts != nil {
		hits = d.HitCounts[:0]
	}

	for i, b := range d.BasicBlocks {
		if _, ok := known[uint32(b.ModuleID)]; !ok {
			continue
		}
		blocks = append(blocks, b)
		if d.HitCounts != nil && i < len(d.HitCounts) {
			hits = append(hits, d.HitCounts[i])
		}
	}

	d.BasicBlocks = blocks
	if d.HitCounts != nil {
		d.HitCounts = hits
	}
}

// Rebase returns a copy of the document with the module's address range
// shifted to newBase. The entry point moves by the same delta; block
// offsets are module-relative and stay unchanged. The receiver is not
// modified.
func (d *Document) Rebase(moduleID uint32, newBase uint64) (*Document, error) {
	if d.FindModule(moduleID) == nil {
		return nil, errs.ErrInvalidModuleID
	}

	out := d.Clone()
	for i := range out.Modules {
		m := &out.Modules[i]
		if m.ID != moduleID {
			continue
		}
		size := m.Size()
		entryOff := m.Entry - m.Base
		m.Base = newBase
		m.End = newBase + size
		if m.Entry != 0 {
			m.Entry = newBase + entryOff
		}
		break // first match only, mirroring FindModule
	}

	return out, nil
}

// Reindex returns a copy of the document whose modules are renumbered
// sequentially in list order, with block module ids and containing ids
// remapped accordingly. Blocks referencing unknown modules keep their
// ids; run Validate to reject or drop them. The receiver is not
// modified.
func (d *Document) Reindex() *Document {
	out := d.Clone()

	remap := make(map[uint32]uint32, len(out.Modules))
	for i := range out.Modules {
		oldID := out.Modules[i].ID
		if _, ok := remap[oldID]; !ok {
			remap[oldID] = uint32(i)
		}
		out.Modules[i].ID = uint32(i)
	}
	for i := range out.Modules {
		if cid := out.Modules[i].ContainingID; cid >= 0 {
			if newID, ok := remap[uint32(cid)]; ok {
				out.Modules[i].ContainingID = int32(newID)
			}
		}
	}
	for i := range out.BasicBlocks {
		if newID, ok := remap[uint32(out.BasicBlocks[i].ModuleID)]; ok {
			out.BasicBlocks[i].ModuleID = uint16(newID)
		}
	}

	return out
}
