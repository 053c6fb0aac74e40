package coverage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covkit/covkit/errs"
	"github.com/covkit/covkit/format"
	"github.com/covkit/covkit/section"
)

func TestBuilder_Basic(t *testing.T) {
	doc, err := NewBuilder().
		AddModule("/usr/bin/target", 0x400000, 0x500000).
		AddModule("/usr/lib/libc.so", 0x7f0000000000, 0x7f0000200000).
		AddCoverage(0, 0x1000, 32).
		AddCoverage(1, 0x50000, 8).
		Build()

	require.NoError(t, err)
	require.Len(t, doc.Modules, 2)
	require.Len(t, doc.BasicBlocks, 2)
	require.False(t, doc.HasHitCounts())
	require.Equal(t, format.FlavorStandard, doc.Header.Flavor)
	require.Equal(t, format.VersionV2, doc.ModuleVersion)

	// Sequential ids assigned in add order, no container by default.
	require.Equal(t, uint32(0), doc.Modules[0].ID)
	require.Equal(t, uint32(1), doc.Modules[1].ID)
	require.Equal(t, int32(-1), doc.Modules[0].ContainingID)
}

func TestBuilder_HitCountBackfill(t *testing.T) {
	t.Run("Default counts stay implicit", func(t *testing.T) {
		doc, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			AddCoverageWithHits(0, 0x10, 4, DefaultHitCount).
			Build()

		require.NoError(t, err)
		require.False(t, doc.HasHitCounts())
		require.Equal(t, format.FlavorStandard, doc.Header.Flavor)
	})

	t.Run("First non-default count backfills", func(t *testing.T) {
		doc, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			AddCoverage(0, 0x10, 4).
			AddCoverage(0, 0x20, 4).
			AddCoverageWithHits(0, 0x30, 4, 250).
			AddCoverage(0, 0x40, 4).
			Build()

		require.NoError(t, err)
		require.True(t, doc.HasHitCounts())
		require.Equal(t, []uint32{1, 1, 250, 1}, doc.HitCounts)
		require.Equal(t, format.FlavorWithHits, doc.Header.Flavor)
	})

	t.Run("EnableHitCounts without counts", func(t *testing.T) {
		doc, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			AddCoverage(0, 0x10, 4).
			EnableHitCounts().
			Build()

		require.NoError(t, err)
		require.Equal(t, []uint32{DefaultHitCount}, doc.HitCounts)
		require.True(t, doc.Header.SupportsHitCounts())
	})

	t.Run("Enabled with zero blocks is non-nil empty", func(t *testing.T) {
		doc, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			EnableHitCounts().
			Build()

		require.NoError(t, err)
		require.True(t, doc.HasHitCounts())
		require.Empty(t, doc.HitCounts)
	})
}

func TestBuilder_SetHitCounts(t *testing.T) {
	t.Run("Exact length accepted", func(t *testing.T) {
		doc, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			AddCoverage(0, 0x10, 4).
			AddCoverage(0, 0x20, 4).
			SetHitCounts([]uint32{5, 9}).
			Build()

		require.NoError(t, err)
		require.Equal(t, []uint32{5, 9}, doc.HitCounts)
		require.Equal(t, format.FlavorWithHits, doc.Header.Flavor)
	})

	t.Run("Length mismatch fails the build", func(t *testing.T) {
		_, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			AddCoverage(0, 0x10, 4).
			SetHitCounts([]uint32{5, 9}).
			Build()

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrHitCountLength)
	})

	t.Run("Error sticks through later calls", func(t *testing.T) {
		_, err := NewBuilder().
			AddModule("/bin/a", 0x1000, 0x2000).
			SetHitCounts([]uint32{1}).
			AddCoverage(0, 0x10, 4).
			Build()

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrHitCountLength)
	})
}

func TestBuilder_AddBasicBlocks(t *testing.T) {
	blocks := []section.BasicBlock{
		{Start: 0x10, Size: 4, ModuleID: 0},
		{Start: 0x20, Size: 8, ModuleID: 0},
	}

	doc, err := NewBuilder().
		AddModule("/bin/a", 0x1000, 0x2000).
		AddCoverageWithHits(0, 0x5, 2, 7).
		AddBasicBlocks(blocks).
		Build()

	require.NoError(t, err)
	require.Len(t, doc.BasicBlocks, 3)
	// Bulk blocks get default hit counts.
	require.Equal(t, []uint32{7, 1, 1}, doc.HitCounts)
}

func TestBuilder_ClearCoverage(t *testing.T) {
	b := NewBuilder().
		AddModule("/bin/a", 0x1000, 0x2000).
		AddCoverageWithHits(0, 0x10, 4, 9)
	require.Equal(t, 1, b.BlockCount())

	doc, err := b.ClearCoverage().Build()
	require.NoError(t, err)
	require.Empty(t, doc.BasicBlocks)
	require.Len(t, doc.Modules, 1)
	// Hit count tracking stays enabled, just empty.
	require.True(t, doc.HasHitCounts())
	require.Empty(t, doc.HitCounts)
}

func TestBuilder_ModuleVersion(t *testing.T) {
	doc, err := NewBuilder().
		SetModuleVersion(format.VersionV4).
		AddModule("/bin/a", 0x1000, 0x2000).
		Build()

	require.NoError(t, err)
	require.Equal(t, format.VersionV4, doc.ModuleVersion)

	_, err = NewBuilder().SetModuleVersion(format.ModuleTableVersion(9)).Build()
	require.Error(t, err)
}

func TestBuilder_StrictValidationAtBuild(t *testing.T) {
	// Block referencing a module never added.
	_, err := NewBuilder().
		AddModule("/bin/a", 0x1000, 0x2000).
		AddCoverage(3, 0x10, 4).
		Build()

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrUnknownBlockModule)
}

func TestBuilder_Reusable(t *testing.T) {
	b := NewBuilder().AddModule("/bin/a", 0x1000, 0x2000)

	first, err := b.AddCoverage(0, 0x10, 4).Build()
	require.NoError(t, err)

	second, err := b.AddCoverage(0, 0x20, 4).Build()
	require.NoError(t, err)

	require.Len(t, first.BasicBlocks, 1)
	require.Len(t, second.BasicBlocks, 2)
}
