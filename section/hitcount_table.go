package section

import (
	"strconv"
	"strings"

	"github.com/covkit/covkit/endian"
	"github.com/covkit/covkit/errs"
)

// ParseHitCountDecl inspects the next line for a hit count table
// declaration ("Hit Count Table: version 1, count <N>").
//
// Absence — end of stream, or a line that does not match the marker — is
// reported as present=false without consuming anything; it means "no hit
// counts", not malformed data. A matching line with an unsupported
// version or a garbled count is a FormatError.
func ParseHitCountDecl(cur *Cursor) (count int, present bool, err error) {
	line, ok := cur.PeekLine()
	if !ok {
		return 0, false, nil
	}
	rest, found := strings.CutPrefix(line, MarkerHitCountTable)
	if !found {
		return 0, false, nil
	}
	cur.Line() // consume the declaration

	verPart, countPart, found := strings.Cut(strings.TrimSpace(rest), ",")
	if !found {
		return 0, false, errs.NewFormatError(errs.ErrMalformedHitCountDecl, cur.LineNumber(), line)
	}

	verStr, ok := strings.CutPrefix(strings.TrimSpace(verPart), "version")
	if !ok {
		return 0, false, errs.NewFormatError(errs.ErrUnsupportedHitCountVersion, cur.LineNumber(), line)
	}
	ver, err := strconv.Atoi(strings.TrimSpace(verStr))
	if err != nil || ver != HitCountTableVersion {
		return 0, false, errs.NewFormatError(errs.ErrUnsupportedHitCountVersion, cur.LineNumber(), line)
	}

	countStr, ok := strings.CutPrefix(strings.TrimSpace(countPart), "count")
	if !ok {
		return 0, false, errs.NewFormatError(errs.ErrInvalidNumber, cur.LineNumber(), line)
	}
	count, err = strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || count < 0 {
		return 0, false, errs.NewFormatError(errs.ErrInvalidNumber, cur.LineNumber(), line)
	}

	return count, true, nil
}

// ParseHitCountValues consumes count packed little-endian uint32 values.
//
// Returns errs.ErrTruncatedHitCounts when fewer than count*4 bytes remain.
func ParseHitCountValues(cur *Cursor, count int) ([]uint32, error) {
	data, ok := cur.Bytes(count * HitCountRecordSize)
	if !ok {
		return nil, errs.NewFormatError(errs.ErrTruncatedHitCounts, 0, "")
	}

	engine := endian.GetLittleEndianEngine()
	counts := make([]uint32, count)
	for i := range counts {
		counts[i] = engine.Uint32(data[i*HitCountRecordSize:])
	}

	return counts, nil
}

// AppendHitCountTable serializes the declaration line and packed values
// onto dst.
func AppendHitCountTable(dst []byte, counts []uint32) []byte {
	dst = append(dst, MarkerHitCountTable...)
	dst = append(dst, " version "...)
	dst = strconv.AppendInt(dst, HitCountTableVersion, 10)
	dst = append(dst, ", count "...)
	dst = strconv.AppendInt(dst, int64(len(counts)), 10)
	dst = append(dst, '\n')

	engine := endian.GetLittleEndianEngine()
	for _, c := range counts {
		dst = engine.AppendUint32(dst, c)
	}

	return dst
}
