package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// Cell is one square of the grid. Geometry never changes after the grid is
// built; scores live in columns indexed by ID.
type Cell struct {
	ID int
	// Col and Row index the cell along the projected x and y axes.
	Col, Row int
	// Projected is the square in metres: a closed ring of 5 points starting
	// at the south-west corner, counter-clockwise.
	Projected geom.Polygon
	// Polygon is Projected reprojected to lon/lat degrees.
	Polygon geom.Polygon
}

// Corners returns the four distinct corners of the geographic polygon.
func (c Cell) Corners() []geom.Point {
	ring := c.Polygon[0]
	return ring[:len(ring)-1]
}

// Grid is an ordered tessellation of a projected region into squares of
// equal size. IDs run 0..n-1 in column-major order over x then y: for each
// column x the rows y are emitted bottom to top, so
// ID = Col*Rows + Row.
type Grid struct {
	Frame *Frame
	Size  float64
	Cols  int
	Rows  int
	Cells []Cell

	index *rtree.Rtree
}

// cellRef is what the spatial index stores for a cell.
type cellRef struct {
	geom.Polygonal
	id int
}

// hardCellLimit caps every grid, including ones built with the guard disabled.
const hardCellLimit = math.MaxInt32

// CellCount returns ceil(width/size) * ceil(height/size) for a frame.
func CellCount(f *Frame, size float64) (cols, rows int) {
	return int(math.Ceil(f.Width() / size)), int(math.Ceil(f.Height() / size))
}

// BuildGrid tessellates the frame into size x size squares starting at the
// frame minimum. The last column and row may extend past the frame edge.
// maxCells <= 0 leaves only the hard limit of math.MaxInt32 cells.
func BuildGrid(f *Frame, size float64, maxCells int) (*Grid, error) {
	if !(size > 0) || math.IsInf(size, 1) {
		return nil, fmt.Errorf("%w: grid size %g must be a positive number of metres",
			domain.ErrInvalidGridConfiguration, size)
	}

	total := math.Ceil(f.Width()/size) * math.Ceil(f.Height()/size)
	if total < 1 {
		return nil, fmt.Errorf("%w: grid size %g over a %gm x %gm region yields no cells",
			domain.ErrInvalidGridConfiguration, size, f.Width(), f.Height())
	}
	if total > hardCellLimit {
		return nil, fmt.Errorf("%w: grid size %g yields %.0f cells, hard limit is %d",
			domain.ErrInvalidGridConfiguration, size, total, hardCellLimit)
	}
	if maxCells > 0 && total > float64(maxCells) {
		return nil, fmt.Errorf("%w: grid size %g yields %.0f cells, limit is %d",
			domain.ErrInvalidGridConfiguration, size, total, maxCells)
	}

	cols, rows := CellCount(f, size)
	g := &Grid{
		Frame: f,
		Size:  size,
		Cols:  cols,
		Rows:  rows,
		Cells: make([]Cell, 0, cols*rows),
		index: rtree.NewTree(25, 50),
	}

	x0, y0 := f.Bounds.Min.X, f.Bounds.Min.Y
	for i := 0; i < cols; i++ {
		x := x0 + float64(i)*size
		for j := 0; j < rows; j++ {
			y := y0 + float64(j)*size
			square := geom.Polygon{{
				{X: x, Y: y},
				{X: x + size, Y: y},
				{X: x + size, Y: y + size},
				{X: x, Y: y + size},
				{X: x, Y: y},
			}}
			gg, err := f.Projection.ToGeographic(square)
			if err != nil {
				return nil, fmt.Errorf("cell %d,%d: %w", i, j, err)
			}
			id := len(g.Cells)
			g.Cells = append(g.Cells, Cell{
				ID:        id,
				Col:       i,
				Row:       j,
				Projected: square,
				Polygon:   gg.(geom.Polygon),
			})
			g.index.Insert(&cellRef{Polygonal: square, id: id})
		}
	}
	return g, nil
}

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.Cells) }

// candidates returns, in ID order, the cells whose bounds overlap b.
func (g *Grid) candidates(b *geom.Bounds) []int {
	found := g.index.SearchIntersect(b)
	ids := make([]int, 0, len(found))
	for _, f := range found {
		ids = append(ids, f.(*cellRef).id)
	}
	sort.Ints(ids)
	return ids
}
