package evalplot

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// GridCols is the number of subplots per grid row.
const GridCols = 3

// Per-row size of a subplot grid.
const (
	gridWidth     = 15 * vg.Inch
	gridRowHeight = 5 * vg.Inch
)

// Grid is a row-major layout of subplots, GridCols wide.
type Grid struct {
	Rows, Cols int
	// Cells holds every grid position. Positions past the last plot are nil
	// and are skipped when drawing.
	Cells [][]*plot.Plot
	// Plots holds the non-nil cells in order.
	Plots []*plot.Plot
}

// NewGrid creates a grid with n plots filling ceil(n/GridCols) rows.
func NewGrid(n int) *Grid {
	rows := (n + GridCols - 1) / GridCols
	g := &Grid{
		Rows:  rows,
		Cols:  GridCols,
		Cells: make([][]*plot.Plot, rows),
		Plots: make([]*plot.Plot, 0, n),
	}
	for j := range g.Cells {
		g.Cells[j] = make([]*plot.Plot, GridCols)
		for i := range g.Cells[j] {
			if len(g.Plots) == n {
				break
			}
			p := plot.New()
			g.Cells[j][i] = p
			g.Plots = append(g.Plots, p)
		}
	}
	return g
}

// Deleted returns the number of empty trailing cells.
func (g *Grid) Deleted() int {
	return g.Rows*g.Cols - len(g.Plots)
}

// Size returns the natural drawing size: 15in wide, 5in per row.
func (g *Grid) Size() (w, h vg.Length) {
	return gridWidth, vg.Length(g.Rows) * gridRowHeight
}

// Draw tiles the grid's plots onto c with aligned data areas.
func (g *Grid) Draw(c draw.Canvas) {
	if g.Rows == 0 {
		return
	}
	t := draw.Tiles{
		Rows:      g.Rows,
		Cols:      g.Cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(g.Cells, t, c)
	for j, row := range g.Cells {
		for i, p := range row {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}
}
