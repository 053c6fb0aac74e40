package section

import (
	"strconv"
	"strings"

	"github.com/covkit/covkit/errs"
	"github.com/covkit/covkit/format"
)

// FileHeader holds the two leading text lines of a drcov trace.
//
// Version must equal format.FileVersion. Flavor is a free-form
// producer-identifying string, overloaded as a feature sentinel:
// format.FlavorWithHits means a hit count table follows the basic block
// table; any other value means it does not.
type FileHeader struct {
	Flavor  string
	Version int
}

// NewFileHeader returns the default header written by this library.
func NewFileHeader() FileHeader {
	return FileHeader{
		Version: format.FileVersion,
		Flavor:  format.FlavorStandard,
	}
}

// SupportsHitCounts reports whether the flavor signals a trailing hit
// count table.
func (h FileHeader) SupportsHitCounts() bool {
	return h.Flavor == format.FlavorWithHits
}

// ParseFileHeader consumes the version and flavor lines.
//
// Returns:
//   - FileHeader: Parsed header
//   - error: errs.ErrMissingHeader on a garbled line, or
//     errs.ErrUnsupportedVersion for any version other than 2
func ParseFileHeader(cur *Cursor) (FileHeader, error) {
	h := FileHeader{}

	line, ok := cur.Line()
	if !ok {
		return h, errs.NewFormatError(errs.ErrMissingHeader, cur.LineNumber(), "")
	}
	rest, found := strings.CutPrefix(line, MarkerVersion)
	if !found {
		return h, errs.NewFormatError(errs.ErrMissingHeader, cur.LineNumber(), line)
	}
	version, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return h, errs.NewFormatError(errs.ErrInvalidNumber, cur.LineNumber(), line)
	}
	if version != format.FileVersion {
		return h, errs.NewFormatError(errs.ErrUnsupportedVersion, cur.LineNumber(), line)
	}
	h.Version = version

	line, ok = cur.Line()
	if !ok {
		return h, errs.NewFormatError(errs.ErrMissingHeader, cur.LineNumber(), "")
	}
	rest, found = strings.CutPrefix(line, MarkerFlavor)
	if !found {
		return h, errs.NewFormatError(errs.ErrMissingHeader, cur.LineNumber(), line)
	}
	h.Flavor = strings.TrimSpace(rest)

	return h, nil
}

// AppendTo serializes the header lines onto dst.
func (h FileHeader) AppendTo(dst []byte) []byte {
	dst = append(dst, MarkerVersion...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(h.Version), 10)
	dst = append(dst, '\n')
	dst = append(dst, MarkerFlavor...)
	dst = append(dst, ' ')
	dst = append(dst, h.Flavor...)
	dst = append(dst, '\n')

	return dst
}
