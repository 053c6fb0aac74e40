package covkit

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covkit/covkit/coverage"
)

func TestTopLevel_BuildWriteRead(t *testing.T) {
	doc, err := NewBuilder().
		AddModule("/usr/bin/target", 0x400000, 0x500000).
		AddCoverage(0, 0x1000, 32).
		AddCoverageWithHits(0, 0x1040, 16, 250).
		Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(doc, &buf))

	parsed, repairs, err := Read(&buf, false)
	require.NoError(t, err)
	require.Empty(t, repairs)
	require.Equal(t, doc.BasicBlocks, parsed.BasicBlocks)
	require.Equal(t, []uint32{1, 250}, parsed.HitCounts)
}

func TestTopLevel_SetWorkflow(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, offsets ...uint32) string {
		b := NewBuilder().AddModule("/usr/bin/target", 0x400000, 0x500000)
		for _, off := range offsets {
			b.AddCoverage(0, off, 16)
		}
		doc, err := b.Build()
		require.NoError(t, err)

		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(doc, path))

		return path
	}

	baseline := write("baseline.drcov", 0x1000, 0x2000)
	fuzzed := write("fuzzed.drcov.zst", 0x2000, 0x3000)

	results, err := LoadAll(context.Background(), []string{baseline, fuzzed}, true)
	require.NoError(t, err)
	require.Len(t, results, 2)

	diff := results[1].Set.Difference(results[0].Set)
	require.Equal(t, 1, diff.Len())

	rarity := RarityInfo([]*coverage.CoverageSet{results[0].Set, results[1].Set})
	require.Len(t, rarity, 3)

	require.Empty(t, RarityInfo(nil))
}

func TestTopLevel_ReadFile(t *testing.T) {
	doc, err := NewBuilder().
		AddModule("/usr/bin/target", 0x400000, 0x500000).
		AddCoverage(0, 0x1000, 32).
		Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trace.drcov")
	require.NoError(t, WriteFile(doc, path))

	set, repairs, err := FromFile(path, false)
	require.NoError(t, err)
	require.Empty(t, repairs)
	require.Equal(t, 1, set.Len())
}
