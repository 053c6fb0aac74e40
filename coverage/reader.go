package coverage

import (
	"fmt"
	"io"
	"os"

	"github.com/covkit/covkit/compress"
	"github.com/covkit/covkit/errs"
	"github.com/covkit/covkit/format"
	"github.com/covkit/covkit/section"
)

// Read parses a complete coverage trace from r. Compressed payloads are
// detected by magic number and decompressed transparently.
//
// In permissive mode structural defects are repaired and reported
// through the returned repair list; in strict mode the first defect
// fails the parse. The repair list is nil when nothing needed fixing.
func Read(r io.Reader, permissive bool) (*Document, []Repair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read trace: %w", err)
	}

	return Parse(data, permissive)
}

// ReadFile parses the coverage trace stored at path.
func ReadFile(path string, permissive bool) (*Document, []Repair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	return Parse(data, permissive)
}

// Parse decodes a coverage trace held in memory.
func Parse(data []byte, permissive bool) (*Document, []Repair, error) {
	if typ := compress.Detect(data); typ != format.CompressionNone {
		codec, err := compress.GetCodec(typ)
		if err != nil {
			return nil, nil, err
		}
		decoded, err := codec.Decompress(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decompress %s trace: %w", typ, err)
		}
		data = decoded
	}

	cur := section.NewCursor(data)

	header, err := section.ParseFileHeader(cur)
	if err != nil {
		return nil, nil, err
	}

	modules, version, err := section.ParseModuleTable(cur)
	if err != nil {
		return nil, nil, err
	}

	count, err := section.ParseBBTableDecl(cur)
	if err != nil {
		return nil, nil, err
	}

	var blocks []section.BasicBlock
	if section.IsASCIIBlockData(cur) {
		blocks = section.ParseASCIIBlocks(cur)
	} else {
		blocks, err = section.ParseBinaryBlocks(cur, count)
		if err != nil {
			return nil, nil, err
		}
	}

	doc := &Document{
		Header:        header,
		Modules:       modules,
		BasicBlocks:   blocks,
		ModuleVersion: version,
	}

	if header.SupportsHitCounts() {
		declared, present, err := section.ParseHitCountDecl(cur)
		if err != nil {
			return nil, nil, err
		}
		if present {
			if declared != len(blocks) && !permissive {
				return nil, nil, errs.NewValidationError(errs.ErrHitCountMismatch,
					fmt.Sprintf("%d hit counts declared for %d blocks", declared, len(blocks)))
			}
			counts, err := section.ParseHitCountValues(cur, declared)
			if err != nil {
				return nil, nil, err
			}
			doc.HitCounts = counts
		}
	}

	repairs, err := doc.Validate(permissive)
	if err != nil {
		return nil, nil, err
	}

	return doc, repairs, nil
}
