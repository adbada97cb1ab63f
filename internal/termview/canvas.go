// Package termview draws projected scenes on a character terminal and turns
// key presses into operator input events.
package termview

import (
	"image"
	"image/color"
)

// Pixel size of one character cell. The scene is laid out in pixels and
// every cell covers this many of them.
const (
	CellWidth  = 8
	CellHeight = 16
)

// Glyphs used on the canvas
const (
	glyphBlank = ' '
	glyphFill  = '█'
	glyphHoriz = '─'
	glyphVert  = '│'
	glyphCross = '┼'
	glyphDot   = '·'
)

// Cell is one character position
type Cell struct {
	Rune rune
	Fg   color.RGBA
	Bg   color.RGBA
}

// Canvas rasterizes draw commands onto a grid of cells
type Canvas struct {
	cols, rows int
	cells      []Cell
}

// NewCanvas creates a blank canvas of cols x rows cells
func NewCanvas(cols, rows int) *Canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &Canvas{cols: cols, rows: rows, cells: make([]Cell, cols*rows)}
	for i := range c.cells {
		c.cells[i].Rune = glyphBlank
	}
	return c
}

// Cols returns the width in cells
func (c *Canvas) Cols() int { return c.cols }

// Rows returns the height in cells
func (c *Canvas) Rows() int { return c.rows }

// At returns the cell at col, row. Out of range positions return a blank cell.
func (c *Canvas) At(col, row int) Cell {
	if !c.inside(col, row) {
		return Cell{Rune: glyphBlank}
	}
	return c.cells[row*c.cols+col]
}

// Line returns the runes of one row as a string
func (c *Canvas) Line(row int) string {
	if row < 0 || row >= c.rows {
		return ""
	}
	rs := make([]rune, c.cols)
	for col := 0; col < c.cols; col++ {
		rs[col] = c.cells[row*c.cols+col].Rune
	}
	return string(rs)
}

func (c *Canvas) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < c.cols && row < c.rows
}

func (c *Canvas) set(col, row int, r rune, fg color.RGBA) {
	if !c.inside(col, row) {
		return
	}
	cell := &c.cells[row*c.cols+col]
	cell.Rune = r
	cell.Fg = fg
}

// Size reports the canvas size in pixels
func (c *Canvas) Size() (int, int) {
	return c.cols * CellWidth, c.rows * CellHeight
}

func cellOf(x, y int) (int, int) {
	return floorDiv(x, CellWidth), floorDiv(y, CellHeight)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FillRect paints the background of every cell the rectangle touches
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	c0, r0 := cellOf(x, y)
	c1, r1 := cellOf(x+w-1, y+h-1)
	for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
		for cc := max(c0, 0); cc <= min(c1, c.cols-1); cc++ {
			c.cells[row*c.cols+cc] = Cell{Rune: glyphBlank, Bg: col}
		}
	}
}

// DrawLine draws a cell line between two pixel positions
func (c *Canvas) DrawLine(x1, y1, x2, y2 int, col color.RGBA) {
	c0, r0 := cellOf(x1, y1)
	c1, r1 := cellOf(x2, y2)

	glyph := glyphDot
	switch {
	case r0 == r1:
		glyph = glyphHoriz
	case c0 == c1:
		glyph = glyphVert
	}

	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		r := glyph
		if cur := c.At(c0, r0).Rune; (cur == glyphHoriz && glyph == glyphVert) || (cur == glyphVert && glyph == glyphHoriz) {
			r = glyphCross
		}
		c.set(c0, r0, r, col)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

// FillPolygon fills every cell whose center lies inside the polygon. A
// polygon too small to cover any center still marks the cell of its first
// vertex.
func (c *Canvas) FillPolygon(xs, ys []int, col color.RGBA) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return
	}

	minX, maxX, minY, maxY := xs[0], xs[0], ys[0], ys[0]
	for i := 1; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	c0, r0 := cellOf(minX, minY)
	c1, r1 := cellOf(maxX, maxY)
	filled := false
	for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
		py := float64(row*CellHeight) + CellHeight/2
		for cc := max(c0, 0); cc <= min(c1, c.cols-1); cc++ {
			px := float64(cc*CellWidth) + CellWidth/2
			if pointInPolygon(px, py, xs[:n], ys[:n]) {
				c.set(cc, row, glyphFill, col)
				filled = true
			}
		}
	}

	if !filled {
		cc, row := cellOf(xs[0], ys[0])
		c.set(cc, row, glyphFill, col)
	}
}

// pointInPolygon is the even-odd rule
func pointInPolygon(px, py float64, xs, ys []int) bool {
	inside := false
	n := len(xs)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := float64(xs[i]), float64(ys[i])
		xj, yj := float64(xs[j]), float64(ys[j])
		if (yi > py) != (yj > py) && px < (xj-xi)*(py-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// DrawImage paints each cell the image covers with the average color of its
// opaque pixels
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	if img == nil {
		return
	}
	b := img.Bounds()
	c0, r0 := cellOf(x, y)
	c1, r1 := cellOf(x+b.Dx()-1, y+b.Dy()-1)

	for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
		for cc := max(c0, 0); cc <= min(c1, c.cols-1); cc++ {
			// Pixel window of this cell in image coordinates
			ix0 := max(cc*CellWidth-x, 0) + b.Min.X
			iy0 := max(row*CellHeight-y, 0) + b.Min.Y
			ix1 := min((cc+1)*CellWidth-x, b.Dx()) + b.Min.X
			iy1 := min((row+1)*CellHeight-y, b.Dy()) + b.Min.Y

			if avg, ok := averageOpaque(img, ix0, iy0, ix1, iy1); ok {
				c.set(cc, row, glyphFill, avg)
			}
		}
	}
}

func averageOpaque(img image.Image, x0, y0, x1, y1 int) (color.RGBA, bool) {
	var rs, gs, bs, n, opaque uint64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			n++
			if a >= 0x8000 {
				opaque++
				rs += uint64(r)
				gs += uint64(g)
				bs += uint64(b)
			}
		}
	}
	if n == 0 || opaque*2 < n {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(rs / opaque >> 8),
		G: uint8(gs / opaque >> 8),
		B: uint8(bs / opaque >> 8),
		A: 255,
	}, true
}

// DrawText writes text with its baseline at pixel y. Text that would run
// past the right edge is shifted left to end at the edge, since cells are
// wider than the pixel font the layout assumes.
func (c *Canvas) DrawText(text string, x, y int, col color.RGBA) {
	rs := []rune(text)
	cc, row := cellOf(x, y-1)
	if over := cc + len(rs) - c.cols; over > 0 {
		cc = max(cc-over, 0)
	}
	for _, r := range rs {
		c.set(cc, row, r, col)
		cc++
	}
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
	default:
		return 0
	}
}
