package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGrid_PlaceTreasure(t *testing.T) {
	cases := []struct {
		name    string
		cell    int
		wantErr error
	}{
		{name: "first cell", cell: 0},
		{name: "last cell", cell: BoardSize - 1},
		{name: "negative", cell: -1, wantErr: ErrInvalidPlacement},
		{name: "past the board", cell: BoardSize, wantErr: ErrInvalidPlacement},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGrid()
			err := g.PlaceTreasure(tc.cell)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				_, placed := g.Treasure()
				assert.False(t, placed)
				return
			}
			require.NoError(t, err)
			got, placed := g.Treasure()
			assert.True(t, placed)
			assert.Equal(t, tc.cell, got)
		})
	}
}

func TestGrid_PlacementIsOneShot(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.PlaceTreasure(7))

	err := g.PlaceTreasure(8)
	require.ErrorIs(t, err, ErrInvalidPlacement)

	got, _ := g.Treasure()
	assert.Equal(t, 7, got)
}

func TestGrid_ProbeRejectsOutOfRange(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.PlaceTreasure(3))

	for _, cell := range []int{-1, BoardSize, 100} {
		_, err := g.Probe(cell)
		require.ErrorIs(t, err, ErrInvalidProbe, "cell %d", cell)
	}
	assert.Equal(t, 0, g.Opened())
}

func TestGrid_ProbeWithoutTreasure(t *testing.T) {
	g := NewGrid()
	_, err := g.Probe(0)
	require.ErrorIs(t, err, ErrInvalidProbe)
}

func TestGrid_ProbeMarksCells(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.PlaceTreasure(12))

	hit, err := g.Probe(4)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = g.Probe(12)
	require.NoError(t, err)
	assert.True(t, hit)

	cells := g.Cells()
	assert.Equal(t, CellMiss, cells[4])
	assert.Equal(t, CellHit, cells[12])
	assert.Equal(t, CellEmpty, cells[0])
	assert.Equal(t, 2, g.Opened())
}

func TestPropertyProbeHitIffTreasure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		treasure := rapid.IntRange(0, BoardSize-1).Draw(t, "treasure")
		cell := rapid.IntRange(0, BoardSize-1).Draw(t, "cell")

		g := NewGrid()
		if err := g.PlaceTreasure(treasure); err != nil {
			t.Fatalf("place %d: %v", treasure, err)
		}
		hit, err := g.Probe(cell)
		if err != nil {
			t.Fatalf("probe %d: %v", cell, err)
		}
		if hit != (cell == treasure) {
			t.Fatalf("probe %d with treasure %d: hit=%v", cell, treasure, hit)
		}
	})
}

func TestPropertySecondProbeRejectedAndStateKept(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		treasure := rapid.IntRange(0, BoardSize-1).Draw(t, "treasure")
		cell := rapid.IntRange(0, BoardSize-1).Draw(t, "cell")

		g := NewGrid()
		if err := g.PlaceTreasure(treasure); err != nil {
			t.Fatalf("place: %v", err)
		}
		if _, err := g.Probe(cell); err != nil {
			t.Fatalf("first probe: %v", err)
		}
		before := g.Cells()

		_, err := g.Probe(cell)
		if !errors.Is(err, ErrInvalidProbe) {
			t.Fatalf("second probe of %d: want ErrInvalidProbe, got %v", cell, err)
		}
		if g.Cells() != before {
			t.Fatalf("grid changed after rejected probe")
		}
	})
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "empty", CellEmpty.String())
	assert.Equal(t, "miss", CellMiss.String())
	assert.Equal(t, "hit", CellHit.String())
	assert.Equal(t, "Cell(9)", Cell(9).String())
}
