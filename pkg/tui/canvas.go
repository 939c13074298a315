package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
)

// One terminal cell stands for CellWidth × CellHeight layout pixels, which
// roughly matches a monospace glyph's aspect ratio.
const (
	CellWidth  = 10
	CellHeight = 20
)

type paint uint8

const (
	paintBlank paint = iota
	paintEdge
	paintActiveEdge
	paintLabel
	paintNode
	paintSelected
)

type cell struct {
	r     rune
	paint paint
	kind  string
}

// canvas is a character grid the view rasterizes a snapshot into
type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) inside(col, row int) bool {
	return col >= 0 && col < c.cols && row >= 0 && row < c.rows
}

func (c *canvas) at(col, row int) cell {
	if !c.inside(col, row) {
		return cell{r: ' '}
	}
	return c.cells[row*c.cols+col]
}

// set paints a cell unless it already holds something of higher priority
func (c *canvas) set(col, row int, ce cell) {
	if !c.inside(col, row) {
		return
	}
	i := row*c.cols + col
	if c.cells[i].paint > ce.paint {
		return
	}
	c.cells[i] = ce
}

// cellFor maps a layout position to the cell containing it
func cellFor(p visualization.Position, cols, rows int) (int, int) {
	col := int(p.X / CellWidth)
	row := int(p.Y / CellHeight)
	return clampIndex(col, cols), clampIndex(row, rows)
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// dottedLine draws every other cell of the Bresenham line between two
// cells, leaving both endpoints for the nodes.
func (c *canvas) dottedLine(c0, r0, c1, r1 int, p paint) {
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	err := dc + dr

	for step := 0; ; step++ {
		if c0 == c1 && r0 == r1 {
			return
		}
		if step > 0 && step%2 == 0 {
			c.set(c0, r0, cell{r: edgeGlyph, paint: p})
		}
		e2 := 2 * err
		if e2 >= dr {
			err += dr
			c0 += sc
		}
		if e2 <= dc {
			err += dc
			r0 += sr
		}
	}
}

// text writes s starting at col, stopping at the right edge
func (c *canvas) text(col, row int, s string, p paint, kind string) {
	for _, r := range s {
		if col >= c.cols {
			return
		}
		c.set(col, row, cell{r: r, paint: p, kind: kind})
		col++
	}
}

// line returns one row without styling
func (c *canvas) line(row int) string {
	var b strings.Builder
	for col := 0; col < c.cols; col++ {
		b.WriteRune(c.at(col, row).r)
	}
	return b.String()
}

func styleFor(ce cell) lipgloss.Style {
	switch ce.paint {
	case paintEdge:
		return edgeStyle
	case paintActiveEdge:
		return activeEdgeStyle
	case paintNode, paintLabel:
		return nodeStyle(ce.kind)
	case paintSelected:
		return selectedStyle
	}
	return lipgloss.NewStyle()
}

// render styles runs of equally painted cells together
func (c *canvas) render() string {
	var out strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var runCell cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runCell.paint == paintBlank {
				out.WriteString(run.String())
			} else {
				out.WriteString(styleFor(runCell).Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < c.cols; col++ {
			ce := c.at(col, row)
			if run.Len() > 0 && (ce.paint != runCell.paint || ce.kind != runCell.kind) {
				flush()
			}
			runCell = ce
			run.WriteRune(ce.r)
		}
		flush()
	}
	return out.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
