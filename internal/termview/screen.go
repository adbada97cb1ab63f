package termview

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"aircraftdisplay/internal/controls"
)

// Screen is a terminal display. Draw calls go to an off-screen canvas that
// Present copies to the terminal.
type Screen struct {
	screen tcell.Screen
	keys   *Keymap
	logger *logrus.Logger
	canvas *Canvas
	footer string
}

// NewScreen takes over the terminal
func NewScreen(logger *logrus.Logger) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	return newScreen(s, logger)
}

func newScreen(s tcell.Screen, logger *logrus.Logger) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal screen: %w", err)
	}
	s.Clear()

	scr := &Screen{
		screen: s,
		keys:   NewKeymap(),
		logger: logger,
		canvas: NewCanvas(0, 0),
		footer: HelpText,
	}
	return scr, nil
}

// SetFooter replaces the text on the bottom row
func (s *Screen) SetFooter(text string) {
	s.footer = text
}

// Begin starts a new frame sized to the terminal. The bottom row is kept for
// the footer.
func (s *Screen) Begin() {
	cols, rows := s.screen.Size()
	s.canvas = NewCanvas(cols, max(rows-1, 0))
}

// Size reports the drawable area in pixels
func (s *Screen) Size() (int, int) { return s.canvas.Size() }

// FillRect draws on the current frame
func (s *Screen) FillRect(x, y, w, h int, c color.RGBA) { s.canvas.FillRect(x, y, w, h, c) }

// DrawLine draws on the current frame
func (s *Screen) DrawLine(x1, y1, x2, y2 int, c color.RGBA) { s.canvas.DrawLine(x1, y1, x2, y2, c) }

// FillPolygon draws on the current frame
func (s *Screen) FillPolygon(xs, ys []int, c color.RGBA) { s.canvas.FillPolygon(xs, ys, c) }

// DrawImage draws on the current frame
func (s *Screen) DrawImage(img image.Image, x, y int) { s.canvas.DrawImage(img, x, y) }

// DrawText draws on the current frame
func (s *Screen) DrawText(text string, x, y int, c color.RGBA) { s.canvas.DrawText(text, x, y, c) }

func toColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Present copies the current frame to the terminal
func (s *Screen) Present() {
	for row := 0; row < s.canvas.Rows(); row++ {
		for col := 0; col < s.canvas.Cols(); col++ {
			cell := s.canvas.At(col, row)
			style := tcell.StyleDefault.Foreground(toColor(cell.Fg)).Background(toColor(cell.Bg))
			s.screen.SetContent(col, row, cell.Rune, nil, style)
		}
	}

	cols, _ := s.screen.Size()
	footer := []rune(s.footer)
	for col := 0; col < cols; col++ {
		r := ' '
		if col < len(footer) {
			r = footer[col]
		}
		s.screen.SetContent(col, s.canvas.Rows(), r, nil, tcell.StyleDefault.Reverse(true))
	}
	s.screen.Show()
}

// PollInput forwards key presses as events until a quit key is pressed or
// ctx is done. It returns true if the operator asked to quit.
func (s *Screen) PollInput(ctx context.Context, events chan<- controls.Event) bool {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	for {
		ev := s.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return false
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			evs, quit := s.keys.Translate(ev.Key(), ev.Rune())
			if quit {
				s.logger.Info("Quit requested from keyboard")
				return true
			}
			for _, e := range evs {
				select {
				case events <- e:
				case <-ctx.Done():
					return false
				}
			}
		}
	}
}

// Close gives the terminal back
func (s *Screen) Close() {
	s.screen.Fini()
}
