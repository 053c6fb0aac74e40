package section

// Declaration line prefixes. Every text section starts with one of these
// markers at the beginning of a line.
const (
	MarkerVersion       = "DRCOV VERSION:"
	MarkerFlavor        = "DRCOV FLAVOR:"
	MarkerModuleTable   = "Module Table:"
	MarkerColumns       = "Columns:"
	MarkerBBTable       = "BB Table:"
	MarkerHitCountTable = "Hit Count Table:"

	// ASCIIBlockBanner precedes legacy ASCII block listings in old traces.
	ASCIIBlockBanner = "module id, start, size:"
	// ASCIIBlockPrefix starts each legacy ASCII block line ("module[ 4]: ...").
	ASCIIBlockPrefix = "module["
)

// Binary record sizes in the packed tables.
const (
	BBRecordSize       = 8 // uint32 start + uint16 size + uint16 module id
	HitCountRecordSize = 4 // uint32 count

	// HitCountTableVersion is the only hit count table version understood.
	HitCountTableVersion = 1
)

// Module table column names. The parser accepts both "base" (v2 and
// earlier) and "start" (v3+) for the module base address.
const (
	ColID           = "id"
	ColBase         = "base"
	ColStart        = "start"
	ColEnd          = "end"
	ColEntry        = "entry"
	ColPath         = "path"
	ColContainingID = "containing_id"
	ColOffset       = "offset"
	ColChecksum     = "checksum"
	ColTimestamp    = "timestamp"
)
