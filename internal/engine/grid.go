package engine

import "fmt"

const (
	BoardEdge = 5
	BoardSize = BoardEdge * BoardEdge
)

type Cell uint8

const (
	CellEmpty Cell = iota
	CellMiss
	CellHit
)

func (c Cell) String() string {
	switch c {
	case CellEmpty:
		return "empty"
	case CellMiss:
		return "miss"
	case CellHit:
		return "hit"
	default:
		return fmt.Sprintf("Cell(%d)", uint8(c))
	}
}

// Grid is one player's board. The treasure is placed once by the owner and
// only ever revealed to the opponent through probe results.
type Grid struct {
	cells    [BoardSize]Cell
	treasure int
	placed   bool
}

func NewGrid() *Grid {
	return &Grid{treasure: -1}
}

func InBounds(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

func (g *Grid) PlaceTreasure(cell int) error {
	if !InBounds(cell) {
		return fmt.Errorf("%w: cell %d out of range", ErrInvalidPlacement, cell)
	}
	if g.placed {
		return fmt.Errorf("%w: treasure already set", ErrInvalidPlacement)
	}
	g.treasure = cell
	g.placed = true
	return nil
}

// Probe opens cell and reports whether it held the treasure.
func (g *Grid) Probe(cell int) (bool, error) {
	if !InBounds(cell) {
		return false, fmt.Errorf("%w: cell %d out of range", ErrInvalidProbe, cell)
	}
	if !g.placed {
		return false, fmt.Errorf("%w: no treasure on this board", ErrInvalidProbe)
	}
	if g.cells[cell] != CellEmpty {
		return false, fmt.Errorf("%w: cell %d already opened", ErrInvalidProbe, cell)
	}

	if cell == g.treasure {
		g.cells[cell] = CellHit
		return true, nil
	}
	g.cells[cell] = CellMiss
	return false, nil
}

// Treasure returns the treasure cell and whether it has been placed.
func (g *Grid) Treasure() (int, bool) {
	return g.treasure, g.placed
}

func (g *Grid) Cells() [BoardSize]Cell {
	return g.cells
}

func (g *Grid) Opened() int {
	n := 0
	for _, c := range g.cells {
		if c != CellEmpty {
			n++
		}
	}
	return n
}
