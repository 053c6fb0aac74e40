package section

import (
	"strconv"
	"strings"
	"unsafe"

	"github.com/covkit/covkit/endian"
	"github.com/covkit/covkit/errs"
)

// BasicBlock is one executed basic block record.
//
// Start is the offset from the owning module's base address, Size the
// block length in bytes, and ModuleID a foreign key into the module
// table (by id, not by list position). BasicBlock is a value type:
// blocks with identical fields are indistinguishable duplicates.
type BasicBlock struct {
	Start    uint32
	Size     uint16
	ModuleID uint16
}

// Key packs the block into a single uint64, losslessly and order
// preserving within a module's offset space. Used as the element
// representation in coverage set bitmaps.
func (b BasicBlock) Key() uint64 {
	return uint64(b.Start)<<32 | uint64(b.Size)<<16 | uint64(b.ModuleID)
}

// BlockFromKey is the inverse of Key.
func BlockFromKey(k uint64) BasicBlock {
	return BasicBlock{
		Start:    uint32(k >> 32),
		Size:     uint16(k >> 16),
		ModuleID: uint16(k),
	}
}

// AbsoluteAddress resolves the block against its owning module entry.
// Returns errs.ErrModuleMismatch when m is not the block's module.
func (b BasicBlock) AbsoluteAddress(m ModuleEntry) (uint64, error) {
	if uint32(b.ModuleID) != m.ID {
		return 0, errs.ErrModuleMismatch
	}

	return m.Base + uint64(b.Start), nil
}

// ParseBBTableDecl consumes the "BB Table: <M> bbs" declaration line and
// returns the declared record count.
func ParseBBTableDecl(cur *Cursor) (int, error) {
	line, ok := cur.Line()
	if !ok {
		return 0, errs.NewFormatError(errs.ErrMissingBBTable, cur.LineNumber(), "")
	}
	rest, found := strings.CutPrefix(line, MarkerBBTable)
	if !found {
		return 0, errs.NewFormatError(errs.ErrMissingBBTable, cur.LineNumber(), line)
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "bbs")
	count, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || count < 0 {
		return 0, errs.NewFormatError(errs.ErrInvalidNumber, cur.LineNumber(), line)
	}

	return count, nil
}

// IsASCIIBlockData reports whether the data following a BB table
// declaration is the legacy ASCII listing rather than packed records.
func IsASCIIBlockData(cur *Cursor) bool {
	line, ok := cur.PeekLine()
	if !ok {
		return false
	}

	return strings.HasPrefix(line, ASCIIBlockBanner) || strings.HasPrefix(line, ASCIIBlockPrefix)
}

// ParseBinaryBlocks consumes count packed 8-byte records.
//
// Returns errs.ErrTruncatedBBTable when fewer than count*8 bytes remain.
func ParseBinaryBlocks(cur *Cursor, count int) ([]BasicBlock, error) {
	data, ok := cur.Bytes(count * BBRecordSize)
	if !ok {
		return nil, errs.NewFormatError(errs.ErrTruncatedBBTable, 0, "")
	}

	blocks := make([]BasicBlock, count)
	if count == 0 {
		return blocks, nil
	}

	// BasicBlock has the exact memory layout of a wire record, so on
	// little-endian hosts the whole table decodes as one copy.
	if endian.IsNativeLittleEndian() {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&blocks[0])), count*BBRecordSize), data)

		return blocks, nil
	}

	engine := endian.GetLittleEndianEngine()
	for i := range blocks {
		rec := data[i*BBRecordSize : (i+1)*BBRecordSize]
		blocks[i] = BasicBlock{
			Start:    engine.Uint32(rec[0:4]),
			Size:     engine.Uint16(rec[4:6]),
			ModuleID: engine.Uint16(rec[6:8]),
		}
	}

	return blocks, nil
}

// ParseASCIIBlocks consumes the legacy ASCII block listing:
//
//	module id, start, size:
//	module[  4]: 0x0000000000001090,   8
//
// Lines that do not match the grammar are skipped, matching the lenient
// behavior of the tools that produced this format. The listing runs to
// the end of the stream; legacy traces never carry a hit count table.
func ParseASCIIBlocks(cur *Cursor) []BasicBlock {
	var blocks []BasicBlock
	for {
		line, ok := cur.Line()
		if !ok {
			return blocks
		}
		block, ok := parseASCIIBlockLine(line)
		if ok {
			blocks = append(blocks, block)
		}
	}
}

func parseASCIIBlockLine(line string) (BasicBlock, bool) {
	line = strings.TrimSpace(line)
	rest, found := strings.CutPrefix(line, ASCIIBlockPrefix)
	if !found {
		return BasicBlock{}, false
	}

	idStr, rest, found := strings.Cut(rest, "]:")
	if !found {
		return BasicBlock{}, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 16)
	if err != nil {
		return BasicBlock{}, false
	}

	offStr, sizeStr, found := strings.Cut(rest, ",")
	if !found {
		return BasicBlock{}, false
	}
	off, err := parseNumber(offStr)
	if err != nil || off > 0xFFFFFFFF {
		return BasicBlock{}, false
	}
	size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 10, 16)
	if err != nil {
		return BasicBlock{}, false
	}

	return BasicBlock{Start: uint32(off), Size: uint16(size), ModuleID: uint16(id)}, true
}

// AppendBBTable serializes the declaration line and packed records onto
// dst. The legacy ASCII form is read-only and never written.
func AppendBBTable(dst []byte, blocks []BasicBlock) []byte {
	dst = append(dst, MarkerBBTable...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(len(blocks)), 10)
	dst = append(dst, " bbs\n"...)

	engine := endian.GetLittleEndianEngine()
	for _, b := range blocks {
		dst = engine.AppendUint32(dst, b.Start)
		dst = engine.AppendUint16(dst, b.Size)
		dst = engine.AppendUint16(dst, b.ModuleID)
	}

	return dst
}
