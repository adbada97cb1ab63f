package projector

import (
	"image"
	"image/color"
)

// Kind identifies a draw command
type Kind int

// Draw command kinds
const (
	FillRect Kind = iota
	DrawLine
	FillPolygon
	DrawImage
	DrawText
)

func (k Kind) String() string {
	switch k {
	case FillRect:
		return "fill_rect"
	case DrawLine:
		return "draw_line"
	case FillPolygon:
		return "fill_polygon"
	case DrawImage:
		return "draw_image"
	case DrawText:
		return "draw_text"
	default:
		return "unknown"
	}
}

// DrawCommand is one drawing instruction in screen coordinates.
// Which fields are meaningful depends on Kind:
//
//	FillRect:    X, Y, W, H, Color
//	DrawLine:    X, Y, X2, Y2, Color
//	FillPolygon: Xs, Ys, Color, Name
//	DrawImage:   X, Y (top-left), Image
//	DrawText:    X, Y (baseline), Text, Color
type DrawCommand struct {
	Kind  Kind
	Name  string
	Color color.RGBA

	X, Y   int
	W, H   int
	X2, Y2 int

	Xs, Ys []int

	Image image.Image
	Text  string
}

// Surface is something draw commands can be issued to
type Surface interface {
	Size() (width, height int)
	FillRect(x, y, w, h int, c color.RGBA)
	DrawLine(x1, y1, x2, y2 int, c color.RGBA)
	FillPolygon(xs, ys []int, c color.RGBA)
	DrawImage(img image.Image, x, y int)
	DrawText(text string, x, y int, c color.RGBA)
}

// Issue replays commands onto a surface in order
func Issue(cmds []DrawCommand, s Surface) {
	for _, c := range cmds {
		switch c.Kind {
		case FillRect:
			s.FillRect(c.X, c.Y, c.W, c.H, c.Color)
		case DrawLine:
			s.DrawLine(c.X, c.Y, c.X2, c.Y2, c.Color)
		case FillPolygon:
			s.FillPolygon(c.Xs, c.Ys, c.Color)
		case DrawImage:
			s.DrawImage(c.Image, c.X, c.Y)
		case DrawText:
			s.DrawText(c.Text, c.X, c.Y, c.Color)
		}
	}
}
