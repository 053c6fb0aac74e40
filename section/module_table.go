package section

import (
	"strconv"
	"strings"

	"github.com/covkit/covkit/errs"
	"github.com/covkit/covkit/format"
)

// ModuleEntry describes one loaded binary image in the traced process.
//
// ContainingID, Offset, Checksum and Timestamp carry values only for the
// module table versions (and platforms) that define them; HasWindowsFields
// records whether the checksum/timestamp columns were present in the
// source file, because the writer globalizes them: if any module of a
// document carries them, the columns are emitted for all modules.
type ModuleEntry struct {
	Path         string
	Base         uint64
	End          uint64
	Entry        uint64
	Offset       uint64
	ID           uint32
	ContainingID int32
	Checksum     uint32
	Timestamp    uint32

	HasWindowsFields bool
}

// Size returns the size of the module's address range in bytes.
func (m ModuleEntry) Size() uint64 {
	return m.End - m.Base
}

// Name returns the basename of the module path. Both slash conventions
// are handled since traces may originate on Windows.
func (m ModuleEntry) Name() string {
	path := m.Path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}

	return path
}

// ContainsAddress reports whether an absolute address falls within this
// module. The end address is exclusive.
func (m ModuleEntry) ContainsAddress(addr uint64) bool {
	return addr >= m.Base && addr < m.End
}

// columnsFor returns the column list written for the given table version.
// The checksum/timestamp pair is inserted before the path column, matching
// the order produced by Windows builds of drcov.
func columnsFor(version format.ModuleTableVersion, windows bool) []string {
	var cols []string
	switch version {
	case format.VersionLegacy, format.VersionV2:
		cols = []string{ColID, ColBase, ColEnd, ColEntry}
	case format.VersionV3:
		cols = []string{ColID, ColContainingID, ColStart, ColEnd, ColEntry}
	case format.VersionV4:
		cols = []string{ColID, ColContainingID, ColStart, ColEnd, ColEntry, ColOffset}
	}
	if windows {
		cols = append(cols, ColChecksum, ColTimestamp)
	}

	return append(cols, ColPath)
}

// ParseModuleTable consumes the module table declaration, the optional
// Columns line, and the module rows.
//
// Returns:
//   - []ModuleEntry: Parsed modules in file order
//   - format.ModuleTableVersion: Detected table version
//   - error: FormatError naming the offending line on any grammar violation
func ParseModuleTable(cur *Cursor) ([]ModuleEntry, format.ModuleTableVersion, error) {
	line, ok := cur.Line()
	if !ok {
		return nil, 0, errs.NewFormatError(errs.ErrMissingModuleTable, cur.LineNumber(), "")
	}
	decl, found := strings.CutPrefix(line, MarkerModuleTable)
	if !found {
		return nil, 0, errs.NewFormatError(errs.ErrMissingModuleTable, cur.LineNumber(), line)
	}

	version, count, err := parseModuleTableDecl(strings.TrimSpace(decl))
	if err != nil {
		return nil, 0, errs.NewFormatError(err, cur.LineNumber(), line)
	}

	columns := columnsFor(format.VersionLegacy, false)
	if version != format.VersionLegacy {
		colLine, ok := cur.Line()
		if !ok {
			return nil, 0, errs.NewFormatError(errs.ErrMissingColumns, cur.LineNumber(), "")
		}
		rest, found := strings.CutPrefix(colLine, MarkerColumns)
		if !found {
			return nil, 0, errs.NewFormatError(errs.ErrMissingColumns, cur.LineNumber(), colLine)
		}
		columns = splitColumns(rest)
	}

	modules := make([]ModuleEntry, 0, count)
	for i := 0; i < count; i++ {
		row, ok := cur.Line()
		if !ok {
			return nil, 0, errs.NewFormatError(errs.ErrTruncatedModuleTable, cur.LineNumber(), "")
		}
		entry, err := parseModuleRow(row, columns)
		if err != nil {
			return nil, 0, errs.NewFormatError(err, cur.LineNumber(), row)
		}
		modules = append(modules, entry)
	}

	return modules, version, nil
}

// parseModuleTableDecl parses the text after "Module Table:". A bare
// count denotes the legacy format; "version <n>, count <m>" the
// versioned one.
func parseModuleTableDecl(decl string) (format.ModuleTableVersion, int, error) {
	if !strings.Contains(decl, "version") {
		count, err := strconv.Atoi(decl)
		if err != nil || count < 0 {
			return 0, 0, errs.ErrMissingModuleTable
		}

		return format.VersionLegacy, count, nil
	}

	parts := strings.SplitN(decl, ",", 2)
	if len(parts) != 2 {
		return 0, 0, errs.ErrMissingModuleTable
	}

	verStr, ok := strings.CutPrefix(strings.TrimSpace(parts[0]), "version")
	if !ok {
		return 0, 0, errs.ErrMissingModuleTable
	}
	ver, err := strconv.Atoi(strings.TrimSpace(verStr))
	if err != nil {
		return 0, 0, errs.ErrInvalidNumber
	}

	version := format.ModuleTableVersion(ver)
	if !version.IsValid() || version == format.VersionLegacy {
		return 0, 0, errs.ErrUnknownTableVersion
	}

	countStr, ok := strings.CutPrefix(strings.TrimSpace(parts[1]), "count")
	if !ok {
		return 0, 0, errs.ErrMissingModuleTable
	}
	count, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || count < 0 {
		return 0, 0, errs.ErrInvalidNumber
	}

	return version, count, nil
}

func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, strings.ToLower(strings.TrimSpace(p)))
	}

	return cols
}

// parseModuleRow parses one comma-separated module row against the column
// list. The path column absorbs any remaining commas when it is last,
// which is where every known producer puts it.
func parseModuleRow(row string, columns []string) (ModuleEntry, error) {
	entry := ModuleEntry{}

	parts := strings.SplitN(row, ",", len(columns))
	if len(parts) != len(columns) {
		return entry, errs.ErrColumnMismatch
	}

	for i, col := range columns {
		field := strings.TrimSpace(parts[i])
		switch col {
		case ColID:
			v, err := strconv.ParseUint(field, 10, 32)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.ID = uint32(v)
		case ColContainingID:
			// drcov writes -1 for modules with no container.
			v, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.ContainingID = int32(v)
		case ColBase, ColStart:
			v, err := parseNumber(field)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.Base = v
		case ColEnd:
			v, err := parseNumber(field)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.End = v
		case ColEntry:
			v, err := parseNumber(field)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.Entry = v
		case ColOffset:
			v, err := parseNumber(field)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.Offset = v
		case ColChecksum:
			v, err := parseNumber(field)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.Checksum = uint32(v)
			entry.HasWindowsFields = true
		case ColTimestamp:
			v, err := parseNumber(field)
			if err != nil {
				return entry, errs.ErrInvalidNumber
			}
			entry.Timestamp = uint32(v)
			entry.HasWindowsFields = true
		case ColPath:
			entry.Path = field
		default:
			return entry, errs.ErrUnknownColumn
		}
	}

	return entry, nil
}

// AppendModuleTable serializes the module table onto dst in the canonical
// form for the given version. Addresses are lowercase 0x hex. The
// checksum/timestamp columns are emitted for all modules when any module
// carries Windows fields, defaulting absent values to 0. The legacy
// table has no Columns line to declare extra columns, so Windows fields
// are never written there; a reader would fold them into the path.
func AppendModuleTable(dst []byte, modules []ModuleEntry, version format.ModuleTableVersion) []byte {
	windows := false
	if version != format.VersionLegacy {
		for _, m := range modules {
			if m.HasWindowsFields {
				windows = true
				break
			}
		}
	}

	dst = append(dst, MarkerModuleTable...)
	dst = append(dst, ' ')
	if version == format.VersionLegacy {
		dst = strconv.AppendInt(dst, int64(len(modules)), 10)
		dst = append(dst, '\n')
	} else {
		dst = append(dst, "version "...)
		dst = strconv.AppendInt(dst, int64(version), 10)
		dst = append(dst, ", count "...)
		dst = strconv.AppendInt(dst, int64(len(modules)), 10)
		dst = append(dst, '\n')
	}

	columns := columnsFor(version, windows)
	if version != format.VersionLegacy {
		dst = append(dst, MarkerColumns...)
		dst = append(dst, ' ')
		dst = append(dst, strings.Join(columns, ", ")...)
		dst = append(dst, '\n')
	}

	for _, m := range modules {
		dst = appendModuleRow(dst, m, columns)
	}

	return dst
}

func appendModuleRow(dst []byte, m ModuleEntry, columns []string) []byte {
	for i, col := range columns {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		switch col {
		case ColID:
			dst = strconv.AppendUint(dst, uint64(m.ID), 10)
		case ColContainingID:
			dst = strconv.AppendInt(dst, int64(m.ContainingID), 10)
		case ColBase, ColStart:
			dst = appendHex(dst, m.Base)
		case ColEnd:
			dst = appendHex(dst, m.End)
		case ColEntry:
			dst = appendHex(dst, m.Entry)
		case ColOffset:
			dst = appendHex(dst, m.Offset)
		case ColChecksum:
			dst = appendHex(dst, uint64(m.Checksum))
		case ColTimestamp:
			dst = appendHex(dst, uint64(m.Timestamp))
		case ColPath:
			dst = append(dst, m.Path...)
		}
	}

	return append(dst, '\n')
}

func appendHex(dst []byte, v uint64) []byte {
	dst = append(dst, '0', 'x')

	return strconv.AppendUint(dst, v, 16)
}
