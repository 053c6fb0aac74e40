package format

type (
	ModuleTableVersion uint8
	CompressionType    uint8
)

const (
	// VersionLegacy is the unversioned module table ("Module Table: <N>").
	VersionLegacy ModuleTableVersion = 1
	// VersionV2 is the first versioned module table format.
	VersionV2 ModuleTableVersion = 2
	// VersionV3 renames "base" to "start" and adds "containing_id".
	VersionV3 ModuleTableVersion = 3
	// VersionV4 adds the "offset" column on top of v3.
	VersionV4 ModuleTableVersion = 4

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard frame compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 stream compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 frame compression.
)

const (
	// FileVersion is the only supported drcov protocol version.
	FileVersion = 2

	// FlavorStandard is the default flavor written by DynamoRIO's drcov tool.
	FlavorStandard = "drcov"

	// FlavorWithHits is the flavor sentinel signaling that a hit count
	// table follows the basic block table.
	FlavorWithHits = "drcov-hits"
)

func (v ModuleTableVersion) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case VersionV2:
		return "v2"
	case VersionV3:
		return "v3"
	case VersionV4:
		return "v4"
	default:
		return "Unknown"
	}
}

// IsValid reports whether v is one of the four known module table versions.
func (v ModuleTableVersion) IsValid() bool {
	return v >= VersionLegacy && v <= VersionV4
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
